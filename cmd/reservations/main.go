package main

import (
	"context"

	"marketplace/internal/reservations/handler"
	"marketplace/internal/reservations/projection"
	"marketplace/internal/reservations/service"
	"marketplace/pkg/app"
	"marketplace/pkg/client"
	"marketplace/pkg/config"
	"marketplace/pkg/session"
)

const ServiceName = "reservations"

func main() {
	cfg := config.Load(ServiceName)

	cfg.Log.Info("Starting Reservations service")
	serverApp := app.NewApplication(cfg)

	manager := initServices(cfg, serverApp)
	serverApp.SetApp(handler.NewReservationHandler(manager, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config, serverApp *app.Application) *service.Manager {
	cfg.SetRedis()

	deps := service.AggregatorDeps{
		Gateway:   client.NewMarketplaceClient(cfg.MarketplaceAPIURL, cfg.MarketplaceAPITimeout),
		Projector: projection.New(cfg.PlaceholderImageURL),
		Log:       cfg.Log,
		Metrics:   service.NewMetrics(serverApp.Registry()),
		Timeout:   cfg.MarketplaceAPITimeout,
	}
	manager := service.NewManager(deps, session.NewRegistry[*service.Workspace](cfg.SessionTTL))

	interval := cfg.SessionTTL / 4
	serverApp.Go(func(ctx context.Context) {
		manager.RunSweeper(ctx, interval)
	})

	cfg.Log.Info("Reservation aggregator initialized",
		"marketplace_api_url", cfg.MarketplaceAPIURL,
		"session_ttl", cfg.SessionTTL,
	)
	return manager
}
