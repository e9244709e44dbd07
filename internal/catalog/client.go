package catalog

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	articlesTimeout = 45 * time.Second
	photoTimeout    = 5 * time.Second

	photoAttempts   = 3
	photoRetryDelay = 400 * time.Millisecond
)

// Credential authenticates one catalog account. Each language has its own
// account; the reseller tier used for price comparison is just another one.
type Credential struct {
	User string
	Pass string
}

type Client struct {
	baseURL     string
	httpClient  *http.Client // bulk article payloads
	photoClient *http.Client // per-item photo calls
	logger      *zap.Logger
}

// NewClient builds a catalog client. skipTLSVerify disables certificate
// validation against the upstream host and must stay off unless its chain
// is actually broken.
func NewClient(baseURL string, skipTLSVerify bool, logger *zap.Logger) *Client {
	transport := http.DefaultTransport
	if skipTLSVerify {
		logger.Warn("catalog client running with TLS certificate validation disabled")
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	return &Client{
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: articlesTimeout, Transport: transport},
		photoClient: &http.Client{Timeout: photoTimeout, Transport: transport},
		logger:      logger,
	}
}

// FetchArticles returns the full article list visible to the credential's
// account. The description language and pricing tier follow the account.
func (c *Client) FetchArticles(ctx context.Context, cred Credential) ([]Article, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/articulos", nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(cred.User, cred.Pass)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch articles: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("articles request returned status %d", resp.StatusCode)
	}

	var articles []Article
	if err := json.NewDecoder(resp.Body).Decode(&articles); err != nil {
		return nil, fmt.Errorf("failed to decode articles payload: %w", err)
	}

	return articles, nil
}

// FetchPhoto returns the raw image bytes for one article code, or nil when
// the article has no photo. Transient failures are retried a couple of times
// with a short fixed delay; after that the photo is treated as absent.
func (c *Client) FetchPhoto(ctx context.Context, code string, cred Credential) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= photoAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-time.After(photoRetryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		data, retryable, err := c.fetchPhotoOnce(ctx, code, cred)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !retryable {
			break
		}

		c.logger.Debug("photo fetch retry",
			zap.String("code", code),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}

	return nil, lastErr
}

func (c *Client) fetchPhotoOnce(ctx context.Context, code string, cred Credential) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/articulo/foto/"+code, nil)
	if err != nil {
		return nil, false, err
	}
	req.SetBasicAuth(cred.User, cred.Pass)

	resp, err := c.photoClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("failed to fetch photo: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// No photo for this article.
		return nil, false, nil
	case resp.StatusCode != http.StatusOK:
		return nil, true, fmt.Errorf("photo request returned status %d", resp.StatusCode)
	}

	var payload photoPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, true, fmt.Errorf("failed to decode photo payload: %w", err)
	}

	if payload.Foto == "" {
		return nil, false, nil
	}

	data, err := base64.StdEncoding.DecodeString(payload.Foto)
	if err != nil {
		return nil, false, fmt.Errorf("photo payload is not valid base64: %w", err)
	}

	return data, false, nil
}

type photoPayload struct {
	Foto string `json:"foto"`
}
