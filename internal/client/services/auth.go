// Package services contains the CLI's application services. They combine
// the remote API client with the local SQLite cache.
package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophchat/internal/client/client"
	"github.com/dmitrijs2005/gophchat/internal/client/models"
	"github.com/dmitrijs2005/gophchat/internal/client/repositories/cache"
)

type AuthService interface {
	Register(ctx context.Context, email string, password []byte, name string) (*models.User, error)
	Login(ctx context.Context, email string, password []byte) (*models.User, error)
	// Restore reuses the token saved by the last login. It returns the saved
	// email, or "" when there is nothing to restore.
	Restore(ctx context.Context) (string, error)
	Logout(ctx context.Context) error
	Ping(ctx context.Context) error
}

type authService struct {
	client client.Client
	cache  cache.Repository
}

func NewAuthService(c client.Client, r cache.Repository) AuthService {
	return &authService{client: c, cache: r}
}

func (a *authService) Register(ctx context.Context, email string, password []byte, name string) (*models.User, error) {
	token, user, err := a.client.Register(ctx, email, string(password), name)
	if err != nil {
		return nil, err
	}
	if err := a.remember(ctx, user.Email, token); err != nil {
		return nil, err
	}
	return user, nil
}

// Login authenticates and drops the cache of any previous account.
func (a *authService) Login(ctx context.Context, email string, password []byte) (*models.User, error) {
	token, user, err := a.client.Login(ctx, email, string(password))
	if err != nil {
		return nil, err
	}
	if err := a.remember(ctx, user.Email, token); err != nil {
		return nil, err
	}
	return user, nil
}

func (a *authService) remember(ctx context.Context, email, token string) error {
	previous, err := a.cache.Value(ctx, cache.KeyEmail)
	if err != nil {
		return err
	}
	if previous != email {
		if err := a.cache.Clear(ctx); err != nil {
			return fmt.Errorf("clear cache: %w", err)
		}
	}

	if err := a.cache.SetValue(ctx, cache.KeyEmail, email); err != nil {
		return err
	}
	if err := a.cache.SetValue(ctx, cache.KeyToken, token); err != nil {
		return err
	}

	a.client.SetToken(token)
	return nil
}

func (a *authService) Restore(ctx context.Context) (string, error) {
	token, err := a.cache.Value(ctx, cache.KeyToken)
	if err != nil || token == "" {
		return "", err
	}
	email, err := a.cache.Value(ctx, cache.KeyEmail)
	if err != nil {
		return "", err
	}
	a.client.SetToken(token)
	return email, nil
}

func (a *authService) Logout(ctx context.Context) error {
	a.client.SetToken("")
	return a.cache.Clear(ctx)
}

func (a *authService) Ping(ctx context.Context) error {
	return a.client.Ping(ctx)
}
