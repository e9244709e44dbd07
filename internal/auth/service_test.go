package auth

import (
	"context"
	"testing"
	"time"

	pkgauth "github.com/atosab2b/catalog-export/pkg/auth"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// memoryTokenRepository keeps refresh tokens in a map for tests.
type memoryTokenRepository struct {
	tokens map[string]*TokenData
}

func newMemoryTokenRepository() *memoryTokenRepository {
	return &memoryTokenRepository{tokens: make(map[string]*TokenData)}
}

func (m *memoryTokenRepository) StoreToken(ctx context.Context, tokenHash, role string, ttl time.Duration) error {
	m.tokens[tokenHash] = &TokenData{Role: role, CreatedAt: time.Now()}
	return nil
}

func (m *memoryTokenRepository) GetToken(ctx context.Context, tokenHash string) (*TokenData, error) {
	return m.tokens[tokenHash], nil
}

func (m *memoryTokenRepository) RevokeToken(ctx context.Context, tokenHash string) error {
	delete(m.tokens, tokenHash)
	return nil
}

func newTestService(t *testing.T, repo TokenRepository) Service {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash test password: %v", err)
	}
	return NewService(repo, string(hash), "test-secret", 900, 86400)
}

func TestLogin(t *testing.T) {
	repo := newMemoryTokenRepository()
	service := newTestService(t, repo)

	tokens, apiErr := service.Login(context.Background(), "hunter2")
	if apiErr != nil {
		t.Fatalf("login failed: %v", apiErr)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatal("login must return both tokens")
	}

	// The access token carries the admin role and verifies with the secret.
	claims := &pkgauth.JWTCustomClaims{}
	parsed, err := jwt.ParseWithClaims(tokens.AccessToken, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("access token does not verify: %v", err)
	}
	if claims.Role != "admin" {
		t.Errorf("token role = %q, want admin", claims.Role)
	}

	// The refresh token is stored hashed, never verbatim.
	if _, ok := repo.tokens[tokens.RefreshToken]; ok {
		t.Error("refresh token must not be stored in plain text")
	}
	if repo.tokens[pkgauth.HashToken(tokens.RefreshToken)] == nil {
		t.Error("hashed refresh token must be stored")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	service := newTestService(t, newMemoryTokenRepository())

	if _, apiErr := service.Login(context.Background(), "wrong"); apiErr == nil {
		t.Error("wrong password must be rejected")
	}
}

func TestRefreshTokens_RotatesToken(t *testing.T) {
	repo := newMemoryTokenRepository()
	service := newTestService(t, repo)

	tokens, apiErr := service.Login(context.Background(), "hunter2")
	if apiErr != nil {
		t.Fatalf("login failed: %v", apiErr)
	}

	rotated, apiErr := service.RefreshTokens(context.Background(), tokens.RefreshToken)
	if apiErr != nil {
		t.Fatalf("refresh failed: %v", apiErr)
	}
	if rotated.RefreshToken == tokens.RefreshToken {
		t.Error("refresh must issue a new refresh token")
	}

	// The consumed token is revoked: replaying it must fail.
	if _, apiErr := service.RefreshTokens(context.Background(), tokens.RefreshToken); apiErr == nil {
		t.Error("a consumed refresh token must be rejected")
	}
}

func TestRefreshTokens_UnknownToken(t *testing.T) {
	service := newTestService(t, newMemoryTokenRepository())

	if _, apiErr := service.RefreshTokens(context.Background(), "never-issued"); apiErr == nil {
		t.Error("unknown refresh token must be rejected")
	}
}

func TestLogout_RevokesToken(t *testing.T) {
	repo := newMemoryTokenRepository()
	service := newTestService(t, repo)

	tokens, apiErr := service.Login(context.Background(), "hunter2")
	if apiErr != nil {
		t.Fatalf("login failed: %v", apiErr)
	}

	if err := service.Logout(context.Background(), tokens.RefreshToken); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if _, apiErr := service.RefreshTokens(context.Background(), tokens.RefreshToken); apiErr == nil {
		t.Error("a logged-out refresh token must be rejected")
	}
}
