package groups

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atosab2b/catalog-export/internal/database"
	"github.com/atosab2b/catalog-export/pkg/rest"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// UnrankedOrder sorts articles without an explicit order entry after every
// ranked one.
const UnrankedOrder = 999999

type Service interface {
	ListGroups(ctx context.Context) ([]string, *rest.ApiErr)
	Resolve(ctx context.Context, group string) ([]string, error)
	OrderRanks(ctx context.Context) (map[string]int, error)
	ReplaceGroupsFromSpreadsheet(ctx context.Context, file io.Reader) (int, *rest.ApiErr)
	ReplaceOrderFromSpreadsheet(ctx context.Context, file io.Reader) (int, *rest.ApiErr)
	BackupTables(ctx context.Context, dir string) ([]string, error)
}

type svc struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger *zap.Logger) *svc {
	return &svc{repo: repo, logger: logger}
}

// LoadFromFiles seeds an in-memory repository from the fallback spreadsheets.
// Used when postgres is unreachable at startup; admin uploads then only live
// until the next restart.
func LoadFromFiles(gruposPath, ordenPath string, logger *zap.Logger) (Repository, error) {
	gruposFile, err := os.Open(gruposPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", gruposPath, err)
	}
	defer gruposFile.Close()

	groupRows, err := parseGruposSpreadsheet(gruposFile)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", gruposPath, err)
	}

	var orderRows []OrderRow
	ordenFile, err := os.Open(ordenPath)
	if err == nil {
		defer ordenFile.Close()
		orderRows, err = parseOrdenSpreadsheet(ordenFile)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", ordenPath, err)
		}
	} else {
		logger.Warn("order spreadsheet not available, articles will keep catalog order",
			zap.String("path", ordenPath),
			zap.Error(err),
		)
	}

	logger.Info("reference tables loaded from spreadsheet fallback",
		zap.Int("group_rows", len(groupRows)),
		zap.Int("order_rows", len(orderRows)),
	)

	return NewMemoryRepository(groupRows, orderRows), nil
}

func (s *svc) ListGroups(ctx context.Context) ([]string, *rest.ApiErr) {
	names, err := s.repo.ListGroupNames(ctx)
	if err != nil {
		s.logger.Error("failed to list groups", zap.Error(err))
		return nil, rest.NewInternalServerError("error al consultar grupos")
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// Resolve returns the trimmed article codes belonging to a group. An empty
// result is not an error here; the export job treats it as fatal.
func (s *svc) Resolve(ctx context.Context, group string) ([]string, error) {
	codes, err := s.repo.FindCodesByGroup(ctx, group)
	if err != nil {
		return nil, err
	}

	result := make([]string, 0, len(codes))
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code != "" {
			result = append(result, code)
		}
	}
	return result, nil
}

// OrderRanks returns a fresh copy of the order table. Callers snapshot it
// once per job so an admin replace mid-job never shifts rows around.
func (s *svc) OrderRanks(ctx context.Context) (map[string]int, error) {
	rows, err := s.repo.ListOrder(ctx)
	if err != nil {
		return nil, err
	}

	ranks := make(map[string]int, len(rows))
	for _, row := range rows {
		ranks[strings.TrimSpace(row.Codigo)] = row.Orden
	}
	return ranks, nil
}

func (s *svc) ReplaceGroupsFromSpreadsheet(ctx context.Context, file io.Reader) (int, *rest.ApiErr) {
	rows, err := parseGruposSpreadsheet(file)
	if err != nil {
		return 0, rest.NewBadRequestError("error al leer el archivo de grupos: " + err.Error())
	}
	if len(rows) == 0 {
		return 0, rest.NewBadRequestError("el archivo de grupos no contiene filas")
	}

	if err := s.repo.ReplaceGroups(ctx, rows); err != nil {
		s.logger.Error("failed to replace groups table", zap.Error(err))
		return 0, replaceError(err, "error al guardar grupos")
	}

	s.logger.Info("groups table replaced", zap.Int("rows", len(rows)))
	return len(rows), nil
}

func (s *svc) ReplaceOrderFromSpreadsheet(ctx context.Context, file io.Reader) (int, *rest.ApiErr) {
	rows, err := parseOrdenSpreadsheet(file)
	if err != nil {
		return 0, rest.NewBadRequestError("error al leer el archivo de orden: " + err.Error())
	}
	if len(rows) == 0 {
		return 0, rest.NewBadRequestError("el archivo de orden no contiene filas")
	}

	if err := s.repo.ReplaceOrder(ctx, rows); err != nil {
		s.logger.Error("failed to replace order table", zap.Error(err))
		return 0, replaceError(err, "error al guardar orden")
	}

	s.logger.Info("order table replaced", zap.Int("rows", len(rows)))
	return len(rows), nil
}

// replaceError turns constraint violations into a field-level validation
// error; anything else stays a generic 500.
func replaceError(err error, fallback string) *rest.ApiErr {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return database.GetError(pgErr, pgErr.ConstraintName)
	}
	return rest.NewInternalServerError(fallback)
}

// BackupTables dumps both reference tables to timestamped spreadsheets under
// dir and returns the written paths.
func (s *svc) BackupTables(ctx context.Context, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup dir: %w", err)
	}

	stamp := time.Now().Format("20060102_150405")

	groupRows, err := s.repo.ListGroups(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read groups table: %w", err)
	}
	gruposPath := filepath.Join(dir, fmt.Sprintf("backup_grupos_%s.xlsx", stamp))
	if err := writeGruposSpreadsheet(gruposPath, groupRows); err != nil {
		return nil, fmt.Errorf("failed to write groups backup: %w", err)
	}

	orderRows, err := s.repo.ListOrder(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read order table: %w", err)
	}
	ordenPath := filepath.Join(dir, fmt.Sprintf("backup_orden_%s.xlsx", stamp))
	if err := writeOrdenSpreadsheet(ordenPath, orderRows); err != nil {
		return nil, fmt.Errorf("failed to write order backup: %w", err)
	}

	s.logger.Info("reference tables backed up",
		zap.String("grupos", gruposPath),
		zap.String("orden", ordenPath),
	)

	return []string{gruposPath, ordenPath}, nil
}
