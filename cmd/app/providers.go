package main

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/atmosai/atmosai/internal/domain/advisor"
	"github.com/atmosai/atmosai/internal/domain/auth"
	"github.com/atmosai/atmosai/internal/domain/chat"
	"github.com/atmosai/atmosai/internal/domain/profile"
	"github.com/atmosai/atmosai/internal/infra/config"
	"github.com/atmosai/atmosai/internal/infra/llm/gemini"
	"github.com/atmosai/atmosai/internal/infra/nominatim"
	"github.com/atmosai/atmosai/internal/infra/openmeteo"
	"github.com/atmosai/atmosai/internal/infra/profilerepo"
	"github.com/atmosai/atmosai/internal/infra/sessionstore"
	"github.com/atmosai/atmosai/internal/infra/userrepo"
)

func provideGeminiClient(cfg *config.Config) *gemini.Client {
	return gemini.NewClient(cfg.Gemini.APIKey, cfg.Gemini.BaseURL)
}

func provideOpenMeteoClient(cfg *config.Config) *openmeteo.Client {
	return openmeteo.NewClient(cfg.OpenMeteo.GeocodingBaseURL, cfg.OpenMeteo.WeatherBaseURL, cfg.OpenMeteo.AirQualityBaseURL)
}

func provideNominatimClient(cfg *config.Config) *nominatim.Client {
	return nominatim.NewClient(cfg.Nominatim.BaseURL, cfg.Nominatim.UserAgent)
}

func provideAdvisorConfig(cfg *config.Config) advisor.Config {
	return advisor.Config{Model: cfg.Gemini.Model}
}

func provideChatConfig(cfg *config.Config) chat.Config {
	return chat.Config{Model: cfg.Gemini.ChatModel}
}

func provideAuthConfig(cfg *config.Config) auth.Config {
	return auth.Config{
		Secret:     cfg.Auth.Secret,
		SessionTTL: cfg.Auth.SessionTTL,
		Google: auth.GoogleConfig{
			ClientID:             cfg.Auth.GoogleClientID,
			ClientSecret:         cfg.Auth.GoogleClientSecret,
			RedirectURL:          cfg.Auth.GoogleRedirectURL,
			TokenEncryptionKey:   cfg.Auth.TokenEncryptionKey,
			PostLoginRedirectURL: cfg.Auth.PostLoginRedirectURL,
		},
	}
}

func provideHTTPAuthConfig(cfg *config.Config) config.AuthConfig {
	return cfg.Auth
}

// providePostgresPool returns nil when Postgres is not configured or not
// reachable; repository providers fall back to memory in that case.
func providePostgresPool(cfg *config.Config, logger *slog.Logger) *pgxpool.Pool {
	dsn := strings.TrimSpace(cfg.Store.Postgres.DSN)
	if dsn == "" {
		logger.Info("postgres dsn not set, using memory repositories")
		return nil
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		logger.Error("invalid postgres dsn, using memory repositories", "error", err)
		return nil
	}
	if cfg.Store.Postgres.MaxConns > 0 {
		poolConfig.MaxConns = cfg.Store.Postgres.MaxConns
	}
	if cfg.Store.Postgres.MinConns > 0 {
		poolConfig.MinConns = cfg.Store.Postgres.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		logger.Error("failed to initialize postgres pool, using memory repositories", "error", err)
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		logger.Error("postgres ping failed, using memory repositories", "error", err)
		pool.Close()
		return nil
	}
	logger.Info("postgres repositories enabled")
	return pool
}

func provideUserRepository(pool *pgxpool.Pool) auth.Repository {
	if pool == nil {
		return userrepo.NewMemoryRepository()
	}
	return userrepo.NewPostgresRepository(pool)
}

func provideProfileRepository(pool *pgxpool.Pool) profile.Repository {
	if pool == nil {
		return profilerepo.NewMemoryRepository()
	}
	return profilerepo.NewPostgresRepository(pool)
}

func provideSessionStore(cfg *config.Config, logger *slog.Logger) auth.SessionStore {
	if cfg.Store.Valkey.Enabled {
		opt, err := buildValkeyOptions(cfg)
		if err != nil {
			logger.Error("invalid valkey configuration, falling back to memory session store", "error", err)
			return sessionstore.NewMemoryStore()
		}
		client, err := valkey.NewClient(opt)
		if err != nil {
			logger.Error("failed to create valkey client, falling back to memory session store", "error", err)
			return sessionstore.NewMemoryStore()
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			logger.Error("valkey ping failed, falling back to memory session store", "error", err)
		} else {
			logger.Info("valkey session store enabled", "addr", cfg.Store.Valkey.Addr)
			return sessionstore.NewValkeyStore(client, "session")
		}
	}
	return sessionstore.NewMemoryStore()
}

func buildValkeyOptions(cfg *config.Config) (valkey.ClientOption, error) {
	var (
		opt valkey.ClientOption
		err error
	)
	if strings.Contains(cfg.Store.Valkey.Addr, "://") {
		opt, err = valkey.ParseURL(cfg.Store.Valkey.Addr)
	} else {
		opt = valkey.ClientOption{InitAddress: []string{cfg.Store.Valkey.Addr}}
	}
	if err != nil {
		return valkey.ClientOption{}, err
	}
	return opt, nil
}
