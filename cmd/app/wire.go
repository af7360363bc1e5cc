//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/atmosai/atmosai/internal/bootstrap"
	"github.com/atmosai/atmosai/internal/domain/advisor"
	"github.com/atmosai/atmosai/internal/domain/auth"
	"github.com/atmosai/atmosai/internal/domain/chat"
	"github.com/atmosai/atmosai/internal/domain/env"
	"github.com/atmosai/atmosai/internal/domain/location"
	"github.com/atmosai/atmosai/internal/domain/profile"
	"github.com/atmosai/atmosai/internal/infra/config"
	"github.com/atmosai/atmosai/internal/infra/llm/gemini"
	"github.com/atmosai/atmosai/internal/infra/nominatim"
	"github.com/atmosai/atmosai/internal/infra/openmeteo"
	httpiface "github.com/atmosai/atmosai/internal/interface/http"
	"github.com/atmosai/atmosai/pkg/logger"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		provideGeminiClient,
		provideOpenMeteoClient,
		provideNominatimClient,
		provideAdvisorConfig,
		provideChatConfig,
		provideAuthConfig,
		provideHTTPAuthConfig,
		providePostgresPool,
		provideUserRepository,
		provideProfileRepository,
		provideSessionStore,
		env.NewService,
		location.NewResolver,
		advisor.NewService,
		chat.NewService,
		profile.NewService,
		auth.NewService,
		wire.Bind(new(env.Provider), new(*openmeteo.Client)),
		wire.Bind(new(location.Geocoder), new(*openmeteo.Client)),
		wire.Bind(new(location.ReverseGeocoder), new(*nominatim.Client)),
		wire.Bind(new(advisor.Generator), new(*gemini.Client)),
		wire.Bind(new(chat.Generator), new(*gemini.Client)),
		httpiface.NewHandler,
		httpiface.NewAuthHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
