package export

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/atosab2b/catalog-export/internal/catalog"
	"go.uber.org/zap"
)

func TestDedupKey(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		same bool
	}{
		{"numeric sizes share key", "SHOE 42", "SHOE 38", true},
		{"numeric ranges share key", "SOCK 35-40", "SOCK 41-46", true},
		{"letter sizes share key", "SHIRT XL", "SHIRT S", true},
		{"hyphenated letter run", "SHIRT S-M-L", "SHIRT XS-XL", true},
		{"numeric vs letter differ", "SHOE 42", "SHOE XL", false},
		{"different products differ", "SHOE 42", "BOOT 42", false},
		{"no size token keeps full name", "RED HAT", "RED HAT DELUXE", false},
		{"case and whitespace normalize", "  shoe   42 ", "SHOE 38", true},
		{"mixed token is not a size", "GLOVE S-40", "GLOVE M", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ka, kb := dedupKey(tt.a), dedupKey(tt.b)
			if (ka == kb) != tt.same {
				t.Errorf("dedupKey(%q)=%q, dedupKey(%q)=%q, same=%v want %v",
					tt.a, ka, tt.b, kb, ka == kb, tt.same)
			}
		})
	}
}

func TestDedupKey_NoSizeTokenUsesNormalizedForm(t *testing.T) {
	if got := dedupKey("  Red   Hat "); got != "RED HAT" {
		t.Errorf("dedupKey = %q, want %q", got, "RED HAT")
	}
}

// mockPhotoFetcher counts fetches per code and serves a valid PNG.
type mockPhotoFetcher struct {
	mu       sync.Mutex
	calls    map[string]int
	failFor  map[string]bool
	garbage  map[string]bool
	photopng []byte
}

func newMockPhotoFetcher(t *testing.T) *mockPhotoFetcher {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.RGBA{R: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return &mockPhotoFetcher{
		calls:    make(map[string]int),
		failFor:  make(map[string]bool),
		garbage:  make(map[string]bool),
		photopng: buf.Bytes(),
	}
}

func (m *mockPhotoFetcher) FetchPhoto(ctx context.Context, code string, cred catalog.Credential) ([]byte, error) {
	m.mu.Lock()
	m.calls[code]++
	m.mu.Unlock()

	if m.failFor[code] {
		return nil, errors.New("upstream error")
	}
	if m.garbage[code] {
		return []byte("not an image"), nil
	}
	return m.photopng, nil
}

func (m *mockPhotoFetcher) totalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

func TestImageResolver_OneFetchPerUniqueKey(t *testing.T) {
	fetcher := newMockPhotoFetcher(t)
	resolver := NewImageResolver(fetcher, 3, zap.NewNop())

	articles := []catalog.Article{
		{Codigo: "A1", Descripcion: "SHOE 42"},
		{Codigo: "A2", Descripcion: "SHOE 38"},
		{Codigo: "A3", Descripcion: "SHOE 40"},
		{Codigo: "B1", Descripcion: "SHIRT XL"},
		{Codigo: "B2", Descripcion: "SHIRT M"},
		{Codigo: "C1", Descripcion: "RED HAT"},
	}

	var progressMu sync.Mutex
	progressRows := 0
	result := resolver.Resolve(context.Background(), articles, catalog.Credential{}, func(rows int) {
		progressMu.Lock()
		progressRows += rows
		progressMu.Unlock()
	})

	// 3 unique keys: SHOE#num, SHIRT#talla, RED HAT
	if got := fetcher.totalCalls(); got != 3 {
		t.Errorf("expected exactly 3 fetches for 3 unique keys, got %d", got)
	}
	if progressRows != len(articles) {
		t.Errorf("progress credited %d rows, want %d", progressRows, len(articles))
	}

	for _, article := range articles {
		if result[article.Codigo] == nil {
			t.Errorf("article %s missing image bytes", article.Codigo)
		}
	}

	// Variants of the same product share the representative's bytes
	if !bytes.Equal(result["A1"], result["A3"]) {
		t.Error("articles sharing a dedup key must share image bytes")
	}
}

func TestImageResolver_RepresentativeIsFirstInOrder(t *testing.T) {
	fetcher := newMockPhotoFetcher(t)
	resolver := NewImageResolver(fetcher, 2, zap.NewNop())

	articles := []catalog.Article{
		{Codigo: "Z9", Descripcion: "SHOE 44"},
		{Codigo: "A1", Descripcion: "SHOE 38"},
	}

	resolver.Resolve(context.Background(), articles, catalog.Credential{}, nil)

	fetcher.mu.Lock()
	defer fetcher.mu.Unlock()
	if fetcher.calls["Z9"] != 1 || fetcher.calls["A1"] != 0 {
		t.Errorf("expected one fetch for first article Z9, got calls=%v", fetcher.calls)
	}
}

func TestImageResolver_FailuresLeaveRowsWithoutImage(t *testing.T) {
	fetcher := newMockPhotoFetcher(t)
	fetcher.failFor["A1"] = true
	fetcher.garbage["B1"] = true
	resolver := NewImageResolver(fetcher, 2, zap.NewNop())

	articles := []catalog.Article{
		{Codigo: "A1", Descripcion: "SHOE 42"},
		{Codigo: "A2", Descripcion: "SHOE 38"}, // shares A1's failed fetch
		{Codigo: "B1", Descripcion: "RED HAT"},
		{Codigo: "C1", Descripcion: "BLUE HAT"},
	}

	progressRows := 0
	var mu sync.Mutex
	result := resolver.Resolve(context.Background(), articles, catalog.Credential{}, func(rows int) {
		mu.Lock()
		progressRows += rows
		mu.Unlock()
	})

	if result["A1"] != nil || result["A2"] != nil {
		t.Error("failed fetch must leave every sharing row without image")
	}
	if result["B1"] != nil {
		t.Error("undecodable photo must leave the row without image")
	}
	if result["C1"] == nil {
		t.Error("healthy row must still get its image")
	}
	if progressRows != len(articles) {
		t.Errorf("failures must still credit progress: got %d rows, want %d", progressRows, len(articles))
	}
}

func TestNormalizeImage_ProducesFixedSquare(t *testing.T) {
	fetcher := newMockPhotoFetcher(t)

	normalized, err := normalizeImage(fetcher.photopng)
	if err != nil {
		t.Fatalf("normalizeImage failed: %v", err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(normalized))
	if err != nil {
		t.Fatalf("normalized bytes do not decode: %v", err)
	}
	if format != "jpeg" {
		t.Errorf("normalized format = %q, want jpeg", format)
	}
	if cfg.Width != imagePixels || cfg.Height != imagePixels {
		t.Errorf("normalized size = %dx%d, want %dx%d", cfg.Width, cfg.Height, imagePixels, imagePixels)
	}
}
