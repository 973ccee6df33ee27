package app

import (
	"context"
	"fmt"
	"math"

	"github.com/redis/go-redis/v9"

	"github.com/shrimpsizemoose/registrar/internal/enrollment"
	"github.com/shrimpsizemoose/registrar/internal/models"
	"github.com/shrimpsizemoose/registrar/internal/store"
	"github.com/shrimpsizemoose/registrar/internal/throttle"
)

type Service struct {
	Config    *Config
	Store     store.Store
	Throttle  *throttle.Throttle
	Auth      *Auth
	Lifecycle *enrollment.Lifecycle
	Directory *Directory
	Messages  *Messages
	Search    *Search

	redis *redis.Client
}

func NewService(configPath string) (*Service, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	store, err := NewStore(config.Database.DSN, config.Database.MigrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to init store: %w", err)
	}

	client, err := throttle.DialRedis(context.Background(), config.Redis.URL)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to init login throttle: %w", err)
	}

	s := NewServiceWith(config, store, throttle.NewRedisKV(client))
	s.redis = client
	return s, nil
}

// NewServiceWith assembles the service around an already opened store and KV.
func NewServiceWith(config *Config, s store.Store, kv throttle.KV) *Service {
	th := throttle.New(kv, throttle.Config{
		MaxAttempts:  config.Throttle.MaxAttempts,
		LockDuration: config.Throttle.LockDuration.Duration,
		FailOpen:     config.ThrottleFailOpen(),
	})
	tokens := NewTokenManager(config.Auth.JWTSecret, config.Auth.AccessTTL.Duration, config.Auth.RefreshTTL.Duration)
	lifecycle := enrollment.NewLifecycle(s)

	return &Service{
		Config:    config,
		Store:     s,
		Throttle:  th,
		Auth:      NewAuth(s, th, tokens),
		Lifecycle: lifecycle,
		Directory: NewDirectory(s, lifecycle),
		Messages:  NewMessages(s),
		Search:    NewSearch(s),
	}
}

// PageRequest clamps client paging input to the configured bounds.
func (s *Service) PageRequest(page, size int) models.PageRequest {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = s.Config.Paging.DefaultPageSize
	}
	if size > s.Config.Paging.MaxPageSize {
		size = s.Config.Paging.MaxPageSize
	}
	if size > 0 && page > math.MaxInt32/size {
		page = math.MaxInt32 / size
	}
	return models.PageRequest{Page: page, Size: size}
}

func (s *Service) Close() error {
	var errs []error

	if err := s.Store.Close(); err != nil {
		errs = append(errs, fmt.Errorf("store: %w", err))
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors while closing: %v", errs)
	}
	return nil
}
