package config

import "time"

const (
	StorageMemory = "memory"
	StorageMongo  = "mongo"
)

const (
	DefaultStorageBackend = StorageMemory

	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "marketplace"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultRedisAddr     = ""
	DefaultRedisDB       = 0
	DefaultRedisPassword = ""

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultPaginationLimit = 100

	DefaultCommissionRate = 0.10

	DefaultMarketplaceAPIURL     = "http://localhost:5000/api"
	DefaultMarketplaceAPITimeout = 10 * time.Second
	DefaultPlaceholderImageURL   = "https://placehold.co/600x400?text=Reservation"

	DefaultSessionTTL = 12 * time.Hour
)
