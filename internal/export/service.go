package export

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/atosab2b/catalog-export/internal/catalog"
	"github.com/atosab2b/catalog-export/internal/email"
	"github.com/atosab2b/catalog-export/internal/groups"
	"github.com/atosab2b/catalog-export/pkg/rest"
	"go.uber.org/zap"
)

type CatalogClient interface {
	FetchArticles(ctx context.Context, cred catalog.Credential) ([]catalog.Article, error)
	FetchPhoto(ctx context.Context, code string, cred catalog.Credential) ([]byte, error)
}

type GroupResolver interface {
	Resolve(ctx context.Context, group string) ([]string, error)
	OrderRanks(ctx context.Context) (map[string]int, error)
}

// Credentials maps logical catalog roles to accounts, injected from config.
type Credentials struct {
	ByLanguage map[string]catalog.Credential
	// Reference accounts (wholesale/reseller tiers) used only for the
	// discount exemption comparison, keyed by a label for logging.
	Reference map[string]catalog.Credential
}

type Service interface {
	StartExport(input CreateExportInput) (*CreateExportOutput, *rest.ApiErr)
	Progress(jobID string) (*ProgressOutput, *rest.ApiErr)
	Download(jobID string) (*bytes.Buffer, string, *rest.ApiErr)
}

type svc struct {
	registry    *Registry
	catalog     CatalogClient
	groups      GroupResolver
	images      *ImageResolver
	credentials Credentials
	mailer      email.Email // nil disables delivery
	logger      *zap.Logger
}

func NewService(registry *Registry, catalogClient CatalogClient, groupResolver GroupResolver, credentials Credentials, mailer email.Email, logger *zap.Logger) *svc {
	return &svc{
		registry:    registry,
		catalog:     catalogClient,
		groups:      groupResolver,
		images:      NewImageResolver(catalogClient, imageWorkers, logger),
		credentials: credentials,
		mailer:      mailer,
		logger:      logger,
	}
}

// StartExport validates the request, registers a job and returns its id
// immediately. The job itself runs detached from the request lifecycle.
func (s *svc) StartExport(input CreateExportInput) (*CreateExportOutput, *rest.ApiErr) {
	if input.Grupo == "" {
		return nil, rest.NewBadRequestError("el grupo es obligatorio")
	}
	if input.Idioma == "" {
		input.Idioma = LanguageDefault
	}
	if !IsValidLanguage(input.Idioma) {
		return nil, rest.NewBadRequestError("idioma no soportado: " + input.Idioma)
	}
	if _, ok := s.credentials.ByLanguage[input.Idioma]; !ok {
		return nil, rest.NewBadRequestError("no hay credenciales configuradas para el idioma " + input.Idioma)
	}
	if input.Descuento < 0 || input.Descuento > 100 {
		return nil, rest.NewBadRequestError("el descuento debe estar entre 0 y 100")
	}

	job := s.registry.Create(buildFilename(input.Grupo, input.Idioma, input.SinImagenes))

	go s.run(job, input)

	return &CreateExportOutput{JobID: job.ID}, nil
}

func (s *svc) Progress(jobID string) (*ProgressOutput, *rest.ApiErr) {
	job, ok := s.registry.Get(jobID)
	if !ok {
		return nil, rest.NewNotFoundError("trabajo no encontrado")
	}

	status := job.Status()
	return &ProgressOutput{
		Progreso:    status.Progress,
		Fase:        status.Phase,
		Error:       status.Error,
		Filename:    status.Filename,
		EtaSegundos: status.ETASeconds,
	}, nil
}

func (s *svc) Download(jobID string) (*bytes.Buffer, string, *rest.ApiErr) {
	job, ok := s.registry.Get(jobID)
	if !ok {
		return nil, "", rest.NewNotFoundError("trabajo no encontrado")
	}

	result := job.Result()
	if result == nil {
		return nil, "", rest.NewNotFoundError("el archivo aún no está listo")
	}
	return result, job.Filename, nil
}

// run drives the job through its phases. It owns the job's lifetime: the
// creating request has long returned by the time most of this executes.
func (s *svc) run(job *Job, input CreateExportInput) {
	ctx := context.Background()
	log := s.logger.With(zap.String("job_id", job.ID), zap.String("grupo", input.Grupo))

	defer func() {
		if rec := recover(); rec != nil {
			log.Error("export job panicked", zap.Any("panic", rec))
			job.Fail("error interno generando el Excel")
		}
	}()

	// Phase: preparing. Reference tables are snapshotted here; an admin
	// replace mid-job never changes this job's view.
	codes, err := s.groups.Resolve(ctx, input.Grupo)
	if err != nil {
		log.Error("failed to resolve group", zap.Error(err))
		job.Fail("error al consultar el grupo " + input.Grupo)
		return
	}
	if len(codes) == 0 {
		log.Warn("group has no articles")
		job.Fail("no hay artículos para el grupo " + input.Grupo)
		return
	}

	ranks, err := s.groups.OrderRanks(ctx)
	if err != nil {
		log.Warn("failed to load order table, keeping catalog order", zap.Error(err))
		ranks = map[string]int{}
	}

	// Phase: fetch the baseline catalog. No data, no job.
	job.SetPhase(PhaseFetchingArticles)
	baseCred := s.credentials.ByLanguage[LanguageDefault]
	articles, err := s.catalog.FetchArticles(ctx, baseCred)
	if err != nil {
		log.Error("baseline article fetch failed", zap.Error(err))
		job.Fail("error al descargar artículos del catálogo")
		return
	}

	selected := selectArticles(articles, codes, input.SoloStock)
	log.Info("articles selected",
		zap.Int("group_codes", len(codes)),
		zap.Int("catalog_articles", len(articles)),
		zap.Int("rows", len(selected)),
	)

	totalUnits := len(selected)
	if !input.SinImagenes {
		totalUnits *= 2
	}
	job.SetTotalUnits(totalUnits)

	// Phase: translations. Failure degrades to base-language descriptions.
	if input.Idioma != LanguageDefault {
		job.SetPhase(PhaseFetchingTranslations)
		s.applyTranslations(ctx, selected, input.Idioma, log)
	}

	// Phase: promotions. Skipped entirely without a discount.
	exempt := map[string]bool{}
	if input.Descuento > 0 {
		job.SetPhase(PhaseComputingPromotions)
		exempt = s.computeExemptions(ctx, selected, log)
	}

	rows := make([]exportRow, len(selected))
	for i, article := range selected {
		price := article.PrecioVenta
		if input.Descuento > 0 && !exempt[article.Codigo] {
			price = applyDiscount(price, input.Descuento)
		}
		rows[i] = exportRow{article: article, price: price}
	}

	sortRows(rows, ranks)

	// Phase: images. Individual failures leave empty cells, never fail the job.
	if !input.SinImagenes {
		job.SetPhase(PhaseResolvingImages)
		resolvedArticles := make([]catalog.Article, len(rows))
		for i := range rows {
			resolvedArticles[i] = rows[i].article
		}
		images := s.images.Resolve(ctx, resolvedArticles, baseCred, job.AddUnits)
		for i := range rows {
			rows[i].image = images[rows[i].article.Codigo]
		}
	}

	// Phase: assemble the artifact.
	job.SetPhase(PhaseAssembling)
	buf, err := assembleWorkbook(rows, headerTranslations[input.Idioma], !input.SinImagenes, func() {
		job.AddUnits(1)
	})
	if err != nil {
		log.Error("workbook assembly failed", zap.Error(err))
		job.Fail("error al generar el archivo Excel")
		return
	}

	job.Complete(buf)
	log.Info("export job completed",
		zap.Int("rows", len(rows)),
		zap.Int("bytes", buf.Len()),
	)

	if input.Email != "" && s.mailer != nil {
		s.sendResult(job, input, buf.Bytes(), log)
	}
}

func (s *svc) applyTranslations(ctx context.Context, selected []catalog.Article, idioma string, log *zap.Logger) {
	translated, err := s.catalog.FetchArticles(ctx, s.credentials.ByLanguage[idioma])
	if err != nil {
		log.Warn("translation fetch failed, keeping base-language descriptions",
			zap.String("idioma", idioma),
			zap.Error(err),
		)
		return
	}

	descriptions := make(map[string]string, len(translated))
	for _, article := range translated {
		descriptions[article.Codigo] = article.Descripcion
	}
	for i := range selected {
		if desc, ok := descriptions[selected[i].Codigo]; ok && desc != "" {
			selected[i].Descripcion = desc
		}
	}
}

// computeExemptions fetches each reference account's price list and marks
// articles whose prices already coincide. Any fetch failure degrades to an
// empty set: every row then takes the discount.
func (s *svc) computeExemptions(ctx context.Context, selected []catalog.Article, log *zap.Logger) map[string]bool {
	if len(s.credentials.Reference) == 0 {
		return map[string]bool{}
	}

	referenceLists := make(map[string][]catalog.Article, len(s.credentials.Reference))
	for label, cred := range s.credentials.Reference {
		list, err := s.catalog.FetchArticles(ctx, cred)
		if err != nil {
			log.Warn("reference price fetch failed, no exemptions applied",
				zap.String("account", label),
				zap.Error(err),
			)
			return map[string]bool{}
		}
		referenceLists[label] = list
	}

	exempt := computeExemptCodes(selected, referenceLists)
	log.Info("promotion exemptions computed",
		zap.Int("accounts", len(referenceLists)),
		zap.Int("exempt", len(exempt)),
	)
	return exempt
}

func (s *svc) sendResult(job *Job, input CreateExportInput, data []byte, log *zap.Logger) {
	subject := fmt.Sprintf("Listado %s (%s)", input.Grupo, input.Idioma)
	text := "Adjuntamos el listado solicitado."
	html := fmt.Sprintf("<p>Adjuntamos el listado <b>%s</b> en %s.</p>", input.Grupo, input.Idioma)

	if err := s.mailer.SendWithAttachment(subject, text, html, []string{input.Email}, job.Filename, data); err != nil {
		log.Error("failed to email finished export", zap.Error(err))
		return
	}
	log.Info("export emailed", zap.String("recipient", input.Email))
}

// selectArticles keeps catalog articles referenced by the group, optionally
// only those with stock. Codes missing from the catalog are silently dropped.
func selectArticles(articles []catalog.Article, codes []string, soloStock bool) []catalog.Article {
	wanted := make(map[string]bool, len(codes))
	for _, code := range codes {
		wanted[code] = true
	}

	var selected []catalog.Article
	for _, article := range articles {
		if !wanted[article.Codigo] {
			continue
		}
		if soloStock && article.Disponible <= 0 {
			continue
		}
		selected = append(selected, article)
	}
	return selected
}

// sortRows orders by the admin-managed rank (unranked codes last), with
// lexicographic code order as tie-break so output is deterministic.
func sortRows(rows []exportRow, ranks map[string]int) {
	rankOf := func(code string) int {
		if rank, ok := ranks[code]; ok {
			return rank
		}
		return groups.UnrankedOrder
	}

	sort.Slice(rows, func(i, j int) bool {
		ri, rj := rankOf(rows[i].article.Codigo), rankOf(rows[j].article.Codigo)
		if ri != rj {
			return ri < rj
		}
		return rows[i].article.Codigo < rows[j].article.Codigo
	})
}

func buildFilename(grupo, idioma string, sinImagenes bool) string {
	name := fmt.Sprintf("listado_%s_%s", grupo, idioma)
	if sinImagenes {
		name += "_sinImagenes"
	}
	return name + ".xlsx"
}
