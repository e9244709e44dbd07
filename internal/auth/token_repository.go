package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const refreshTokenPrefix = "refresh_token:"

type TokenData struct {
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type TokenRepository interface {
	StoreToken(ctx context.Context, tokenHash, role string, ttl time.Duration) error
	GetToken(ctx context.Context, tokenHash string) (*TokenData, error)
	RevokeToken(ctx context.Context, tokenHash string) error
}

type tokenRepository struct {
	client *redis.Client
}

func NewTokenRepository(client *redis.Client) TokenRepository {
	return &tokenRepository{client: client}
}

func (r *tokenRepository) StoreToken(ctx context.Context, tokenHash, role string, ttl time.Duration) error {
	data := TokenData{
		Role:      role,
		CreatedAt: time.Now(),
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal token data: %w", err)
	}

	if err := r.client.Set(ctx, refreshTokenPrefix+tokenHash, jsonData, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}
	return nil
}

func (r *tokenRepository) GetToken(ctx context.Context, tokenHash string) (*TokenData, error) {
	data, err := r.client.Get(ctx, refreshTokenPrefix+tokenHash).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	var tokenData TokenData
	if err := json.Unmarshal([]byte(data), &tokenData); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token data: %w", err)
	}
	return &tokenData, nil
}

func (r *tokenRepository) RevokeToken(ctx context.Context, tokenHash string) error {
	return r.client.Del(ctx, refreshTokenPrefix+tokenHash).Err()
}
