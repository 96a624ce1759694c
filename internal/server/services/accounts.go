// Package services contains server-side business logic: accounts,
// sessions and the chat turn orchestration.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophchat/internal/common"
	"github.com/dmitrijs2005/gophchat/internal/logging"
	"github.com/dmitrijs2005/gophchat/internal/server/auth"
	"github.com/dmitrijs2005/gophchat/internal/server/models"
	"github.com/dmitrijs2005/gophchat/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when the email is unknown so that both
// failure paths cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("gophchat-dummy-password"), bcrypt.MinCost)

// bcryptCost can be lowered by tests.
var bcryptCost = bcrypt.DefaultCost

// AccountService registers accounts and exchanges credentials for tokens.
type AccountService struct {
	repomanager repomanager.RepositoryManager
	tokens      *auth.TokenManager
	log         logging.Logger
	now         func() time.Time
}

func NewAccountService(m repomanager.RepositoryManager, tokens *auth.TokenManager, log logging.Logger) *AccountService {
	return &AccountService{
		repomanager: m,
		tokens:      tokens,
		log:         log.With("module", "accounts"),
		now:         time.Now,
	}
}

// Register creates an account and returns it together with a fresh token.
func (s *AccountService) Register(ctx context.Context, email, password, name string) (*models.Account, string, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)

	if email == "" || password == "" || name == "" {
		return nil, "", fmt.Errorf("%w: email, password and name are required", common.ErrorValidation)
	}
	if len(password) < common.MinPasswordLength {
		return nil, "", fmt.Errorf("%w: password must be at least %d characters", common.ErrorValidation, common.MinPasswordLength)
	}

	repo := s.repomanager.Accounts()

	_, err := repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, "", common.ErrorAlreadyExists
	case !errors.Is(err, common.ErrorNotFound):
		return nil, "", fmt.Errorf("%w: lookup account: %w", common.ErrorInternal, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, "", fmt.Errorf("%w: password is too long", common.ErrorValidation)
		}
		return nil, "", fmt.Errorf("%w: hash password: %w", common.ErrorInternal, err)
	}

	now := s.now().UTC()
	account := &models.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  name,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	account, err = repo.Create(ctx, account)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, "", common.ErrorAlreadyExists
		}
		return nil, "", fmt.Errorf("%w: create account: %w", common.ErrorInternal, err)
	}

	token, err := s.tokens.Issue(account.ID, account.Email)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	s.log.Info(ctx, "account registered", "account_id", account.ID)
	return account, token, nil
}

// Authenticate verifies credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*models.Account, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", common.ErrorValidation)
	}

	account, err := s.repomanager.Accounts().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("%w: lookup account: %w", common.ErrorInternal, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, common.ErrorUnauthorized
	}

	return account, nil
}

// Login authenticates and issues a token.
func (s *AccountService) Login(ctx context.Context, email, password string) (*models.Account, string, error) {
	account, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(account.ID, account.Email)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	return account, token, nil
}

// Account returns the account a token was issued to. An account that no
// longer exists is reported as unauthorized.
func (s *AccountService) Account(ctx context.Context, id string) (*models.Account, error) {
	account, err := s.repomanager.Accounts().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("%w: lookup account: %w", common.ErrorInternal, err)
	}
	return account, nil
}
