package auth

import (
	"context"
	"time"

	"github.com/atosab2b/catalog-export/pkg/auth"
	"github.com/atosab2b/catalog-export/pkg/rest"
	"golang.org/x/crypto/bcrypt"
)

const adminRole = "admin"

type Service interface {
	Login(ctx context.Context, password string) (*TokenPair, *rest.ApiErr)
	RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, *rest.ApiErr)
	Logout(ctx context.Context, refreshToken string) error
}

type service struct {
	tokenRepo         TokenRepository
	adminPasswordHash string
	jwtSecret         string
	accessTokenExp    int
	refreshTokenExp   int
}

func NewService(tokenRepo TokenRepository, adminPasswordHash, jwtSecret string, accessExp, refreshExp int) Service {
	return &service{
		tokenRepo:         tokenRepo,
		adminPasswordHash: adminPasswordHash,
		jwtSecret:         jwtSecret,
		accessTokenExp:    accessExp,
		refreshTokenExp:   refreshExp,
	}
}

// Login checks the shared admin password against the configured bcrypt hash.
// There is a single admin principal; tokens only carry the role.
func (s *service) Login(ctx context.Context, password string) (*TokenPair, *rest.ApiErr) {
	if err := bcrypt.CompareHashAndPassword([]byte(s.adminPasswordHash), []byte(password)); err != nil {
		return nil, rest.NewUnauthorizedRequestError("contraseña incorrecta")
	}

	tokens, err := s.generateTokenPair(ctx)
	if err != nil {
		return nil, rest.NewInternalServerError("error al generar tokens")
	}
	return tokens, nil
}

func (s *service) RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, *rest.ApiErr) {
	tokenHash := auth.HashToken(refreshToken)

	tokenData, err := s.tokenRepo.GetToken(ctx, tokenHash)
	if err != nil {
		return nil, rest.NewInternalServerError("error al validar token")
	}
	if tokenData == nil {
		return nil, rest.NewUnauthorizedRequestError("refresh token inválido o expirado")
	}

	if err := s.tokenRepo.RevokeToken(ctx, tokenHash); err != nil {
		return nil, rest.NewInternalServerError("error al revocar el token anterior")
	}

	tokens, err := s.generateTokenPair(ctx)
	if err != nil {
		return nil, rest.NewInternalServerError("error al generar tokens")
	}
	return tokens, nil
}

func (s *service) Logout(ctx context.Context, refreshToken string) error {
	return s.tokenRepo.RevokeToken(ctx, auth.HashToken(refreshToken))
}

func (s *service) generateTokenPair(ctx context.Context) (*TokenPair, error) {
	jwtClaims := auth.NewClaims(adminRole, s.accessTokenExp)
	accessToken, err := auth.GenerateJWT(jwtClaims, s.jwtSecret)
	if err != nil {
		return nil, err
	}

	refreshToken, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	ttl := time.Duration(s.refreshTokenExp) * time.Second
	if err := s.tokenRepo.StoreToken(ctx, auth.HashToken(refreshToken), adminRole, ttl); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
