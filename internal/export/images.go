package export

import (
	"bytes"
	"context"
	"image/color"
	"strings"
	"sync"

	"github.com/atosab2b/catalog-export/internal/catalog"
	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

const (
	// Pixel size of the square image embedded per row; the 82pt row height
	// in the sheet is sized to fit it.
	imagePixels  = 110
	imageQuality = 60

	// In-flight photo requests. The upstream throttles aggressively above
	// single digits.
	imageWorkers = 6
)

// Size-class suffixes keep children's (numeric sizes) and adults' (letter
// sizes) lines on distinct photos even when the base name matches.
const (
	suffixNumericSize = "#num"
	suffixLetterSize  = "#talla"
)

var letterSizes = map[string]bool{
	"XS": true, "S": true, "M": true, "L": true,
	"XL": true, "XXL": true, "XXXL": true,
}

// dedupKey groups visual variants of one product under a single photo fetch.
// The description is normalized (case, whitespace) and a trailing size token
// is folded into a size-class suffix; descriptions without one are used as-is.
func dedupKey(description string) string {
	norm := strings.ToUpper(strings.Join(strings.Fields(description), " "))

	idx := strings.LastIndexByte(norm, ' ')
	if idx < 0 {
		return norm
	}

	switch classifySizeToken(norm[idx+1:]) {
	case sizeNumeric:
		return norm[:idx] + suffixNumericSize
	case sizeLetter:
		return norm[:idx] + suffixLetterSize
	}
	return norm
}

type sizeClass int

const (
	sizeNone sizeClass = iota
	sizeNumeric
	sizeLetter
)

// classifySizeToken recognizes purely numeric sizes or ranges ("42",
// "35-40") and letter sizes or hyphenated runs of them ("XL", "S-M-L").
// Mixed tokens are not sizes.
func classifySizeToken(token string) sizeClass {
	if token == "" {
		return sizeNone
	}

	parts := strings.Split(token, "-")

	numeric := true
	for _, part := range parts {
		if !isDigits(part) {
			numeric = false
			break
		}
	}
	if numeric {
		return sizeNumeric
	}

	for _, part := range parts {
		if !letterSizes[part] {
			return sizeNone
		}
	}
	return sizeLetter
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

type photoFetcher interface {
	FetchPhoto(ctx context.Context, code string, cred catalog.Credential) ([]byte, error)
}

// ImageResolver fetches one representative photo per dedup key under a
// bounded worker pool and fans the bytes out to every article sharing the key.
type ImageResolver struct {
	fetcher photoFetcher
	workers int
	logger  *zap.Logger
}

func NewImageResolver(fetcher photoFetcher, workers int, logger *zap.Logger) *ImageResolver {
	if workers <= 0 {
		workers = imageWorkers
	}
	return &ImageResolver{
		fetcher: fetcher,
		workers: workers,
		logger:  logger,
	}
}

// Resolve returns normalized image bytes per article code; absent entries
// mean no image. onKeyDone is called once per dedup key with the number of
// rows that key covers, so progress advances in row terms.
func (r *ImageResolver) Resolve(ctx context.Context, articles []catalog.Article, cred catalog.Credential, onKeyDone func(rows int)) map[string][]byte {
	type keyGroup struct {
		representative string // first article code bearing the key
		members        []string
	}

	groups := make(map[string]*keyGroup)
	var keys []string
	for _, article := range articles {
		key := dedupKey(article.Descripcion)
		group, ok := groups[key]
		if !ok {
			group = &keyGroup{representative: article.Codigo}
			groups[key] = group
			keys = append(keys, key)
		}
		group.members = append(group.members, article.Codigo)
	}

	jobs := make(chan string)
	resolved := make(map[string][]byte, len(groups))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for key := range jobs {
				group := groups[key]
				data := r.fetchAndNormalize(ctx, group.representative, cred)

				mu.Lock()
				if data != nil {
					resolved[key] = data
				}
				mu.Unlock()

				if onKeyDone != nil {
					onKeyDone(len(group.members))
				}
			}
		}()
	}

	for _, key := range keys {
		jobs <- key
	}
	close(jobs)
	wg.Wait()

	result := make(map[string][]byte)
	for key, group := range groups {
		data, ok := resolved[key]
		if !ok {
			continue
		}
		for _, code := range group.members {
			result[code] = data
		}
	}
	return result
}

func (r *ImageResolver) fetchAndNormalize(ctx context.Context, code string, cred catalog.Credential) []byte {
	raw, err := r.fetcher.FetchPhoto(ctx, code, cred)
	if err != nil {
		r.logger.Warn("photo fetch failed, row keeps empty image cell",
			zap.String("code", code),
			zap.Error(err),
		)
		return nil
	}
	if raw == nil {
		return nil
	}

	normalized, err := normalizeImage(raw)
	if err != nil {
		r.logger.Warn("photo failed to decode, row keeps empty image cell",
			zap.String("code", code),
			zap.Error(err),
		)
		return nil
	}
	return normalized
}

// normalizeImage re-encodes a photo as a fixed-size JPEG square on a white
// canvas, bounding memory and output file size regardless of the original.
func normalizeImage(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	thumb := imaging.Fit(img, imagePixels, imagePixels, imaging.Lanczos)
	canvas := imaging.New(imagePixels, imagePixels, color.White)
	canvas = imaging.PasteCenter(canvas, thumb)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.JPEG, imaging.JPEGQuality(imageQuality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
