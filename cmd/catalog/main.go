package main

import (
	"marketplace/internal/catalog/handler"
	"marketplace/internal/catalog/repository"
	"marketplace/internal/catalog/service"
	"marketplace/internal/catalog/validator"
	"marketplace/pkg/app"
	"marketplace/pkg/config"
)

const ServiceName = "catalog"

func main() {
	cfg := config.Load(ServiceName)

	cfg.Log.Info("Starting Catalog service")
	catalogService := initServices(cfg)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewCatalogHandler(catalogService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.CatalogService {
	var catalogRepo repository.CatalogRepository
	if cfg.UsesMongo() {
		cfg.SetMongo()
		catalogRepo = repository.NewMongoCatalogRepository(cfg)
	} else {
		catalogRepo = repository.NewMemoryCatalogRepository()
	}
	cfg.SetRedis()

	catalogService := service.NewCatalogService(catalogRepo, validator.NewCatalogValidator(cfg.Log), cfg)

	cfg.Log.Info("Catalog service initialized", "storage_backend", cfg.StorageBackend)
	return catalogService
}
