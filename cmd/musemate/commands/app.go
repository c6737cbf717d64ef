// Package commands holds the musemate subcommands. Each one builds the
// services in-process over the catalog file.
package commands

import (
	"time"

	"github.com/spf13/viper"

	"github.com/musemate/backend/internal/adapters/memory"
	"github.com/musemate/backend/internal/adapters/providers/geolocation"
	"github.com/musemate/backend/internal/adapters/providers/video"
	"github.com/musemate/backend/internal/adapters/providers/websearch"
	"github.com/musemate/backend/internal/adapters/session"
	"github.com/musemate/backend/internal/application/services"
	"github.com/musemate/backend/internal/domain/providers"
	"github.com/musemate/backend/internal/infrastructure/clients/proxyapi"
)

// DefaultTimeout bounds each proxy call
const DefaultTimeout = 10 * time.Second

type app struct {
	chat    *services.ChatService
	museums *services.MuseumService
	trips   *services.TripPlannerService
	videos  *services.VideoLookupService
}

type appConfig struct {
	DataFile string
	Server   string
	Offline  bool
	Timeout  time.Duration
}

func configFromViper() appConfig {
	return appConfig{
		DataFile: viper.GetString("data"),
		Server:   viper.GetString("server"),
		Offline:  viper.GetBool("offline"),
		Timeout:  viper.GetDuration("timeout"),
	}
}

func newApp(cfg appConfig) (*app, error) {
	repo, err := memory.LoadMuseumFile(cfg.DataFile)
	if err != nil {
		return nil, err
	}

	var videos providers.VideoSearcher
	var web providers.WebSearchProvider
	if cfg.Offline || cfg.Server == "" {
		videos = video.NewSearchChain(nil)
		web = websearch.DeflectionProvider{}
	} else {
		client := proxyapi.NewClient(cfg.Server, cfg.Timeout, nil)
		videos = client
		web = client
	}

	trips := services.NewTripPlannerService(repo, geolocation.NewDirectoryProvider(nil))
	chat := services.NewChatService(
		services.NewChatbotFlowService(repo, trips),
		services.NewFallbackResolver(repo, nil),
		web,
		session.NewMemoryStore(24*time.Hour),
		services.ChatServiceConfig{
			Analytics:  memory.NewChatAnalyticsRepository(),
			WebTimeout: cfg.Timeout,
		},
	)

	return &app{
		chat:    chat,
		museums: services.NewMuseumService(repo, nil, memory.NewVisitRepository()).WithTermExpansion(services.NewTermExpansionService(nil)),
		trips:   trips,
		videos:  services.NewVideoLookupService(videos, cfg.Timeout, nil),
	}, nil
}
