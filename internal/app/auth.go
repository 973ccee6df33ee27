package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/shrimpsizemoose/trekker/logger"
	"golang.org/x/crypto/bcrypt"

	"github.com/shrimpsizemoose/registrar/internal/metrics"
	"github.com/shrimpsizemoose/registrar/internal/models"
	"github.com/shrimpsizemoose/registrar/internal/store"
	"github.com/shrimpsizemoose/registrar/internal/throttle"
)

type Auth struct {
	store    store.Store
	throttle *throttle.Throttle
	tokens   *TokenManager
}

func NewAuth(s store.Store, th *throttle.Throttle, tokens *TokenManager) *Auth {
	return &Auth{store: s, throttle: th, tokens: tokens}
}

// Login refuses locked usernames before looking at the password at all.
func (a *Auth) Login(ctx context.Context, req models.LoginRequest) (*models.TokenPair, error) {
	if err := models.Validate(req); err != nil {
		return nil, err
	}

	if a.throttle.IsBlocked(ctx, req.Username) {
		metrics.LoginAttemptsTotal.WithLabelValues("locked").Inc()
		logger.Info.Printf("Login for %s refused: locked", req.Username)
		return nil, models.ErrLoginLocked
	}

	user, err := a.store.GetUserByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, a.failed(ctx, req.Username)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			logger.Error.Printf("Stored hash of %s is unusable: %v", user.Username, err)
		}
		return nil, a.failed(ctx, req.Username)
	}

	a.throttle.LoginSucceeded(ctx, req.Username)
	if err := a.store.TouchLastLogin(ctx, user.ID); err != nil {
		logger.Error.Printf("Failed to record last login of %s: %v", user.Username, err)
	}

	pair, err := a.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	metrics.LoginAttemptsTotal.WithLabelValues("ok").Inc()
	logger.Info.Printf("User %s logged in", user.Username)
	return pair, nil
}

func (a *Auth) failed(ctx context.Context, username string) error {
	metrics.LoginAttemptsTotal.WithLabelValues("bad_credentials").Inc()
	a.throttle.LoginFailed(ctx, username)
	return models.ErrBadCredentials
}

// Register creates a student account and logs it straight in.
func (a *Auth) Register(ctx context.Context, req models.RegisterRequest) (*models.TokenPair, error) {
	if err := models.Validate(req); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		Email:        req.Email,
		Phone:        req.Phone,
		Role:         models.RoleStudent,
	}
	if err := a.createAccount(ctx, user); err != nil {
		return nil, err
	}

	logger.Info.Printf("New user registered: %s", user.Username)
	return a.tokens.Issue(user)
}

// CreateUser is the admin path for provisioning teacher and admin accounts.
func (a *Auth) CreateUser(ctx context.Context, req models.RegisterRequest, role string) (*models.User, error) {
	if err := models.Validate(req); err != nil {
		return nil, err
	}
	switch role {
	case models.RoleAdmin, models.RoleTeacher, models.RoleStudent:
	default:
		return nil, models.NewError(models.KindInvalidArgument, fmt.Sprintf("unknown role %q", role))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &models.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		Email:        req.Email,
		Phone:        req.Phone,
		Role:         role,
	}
	if err := a.createAccount(ctx, user); err != nil {
		return nil, err
	}
	logger.Info.Printf("Provisioned %s account %s", role, user.Username)
	return user, nil
}

// createAccount stores a new user. Usernames are unique by constraint, emails by this check.
func (a *Auth) createAccount(ctx context.Context, user *models.User) error {
	return a.store.InTx(ctx, func(q store.Queries) error {
		if user.Email != "" {
			existing, err := q.GetUserByEmail(ctx, user.Email)
			if err != nil {
				return err
			}
			if existing != nil {
				return models.ErrEmailTaken
			}
		}
		return q.CreateUser(ctx, user)
	})
}

func (a *Auth) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	claims, err := a.tokens.Parse(refreshToken, tokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	// role changes since the last login are picked up here
	user, err := a.store.GetUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.ErrInvalidToken
	}

	pair, err := a.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	pair.User = nil
	return pair, nil
}

func (a *Auth) Authenticate(accessToken string) (*Claims, error) {
	return a.tokens.Parse(accessToken, tokenTypeAccess)
}

func (a *Auth) Me(ctx context.Context, userID int64) (*models.User, error) {
	user, err := a.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.ErrUserNotFound
	}
	return user, nil
}

func (a *Auth) Unlock(ctx context.Context, username string) {
	a.throttle.LoginSucceeded(ctx, username)
	logger.Info.Printf("Login lock cleared for %s", username)
}

func (a *Auth) RemainingAttempts(ctx context.Context, username string) int {
	return a.throttle.RemainingAttempts(ctx, username)
}
