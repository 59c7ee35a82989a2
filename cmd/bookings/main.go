package main

import (
	"context"
	"errors"
	"time"

	"marketplace/internal/bookings/events"
	"marketplace/internal/bookings/handler"
	"marketplace/internal/bookings/repository"
	"marketplace/internal/bookings/service"
	"marketplace/internal/bookings/validator"
	"marketplace/pkg/app"
	"marketplace/pkg/config"
	"marketplace/pkg/kafka"
	kafka_config "marketplace/pkg/kafka/config"
	kafka_middleware "marketplace/pkg/kafka/middleware"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)

	kafkaCfg := kafka_config.Load()
	if err := kafkaCfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	cfg.Log.Info("Starting Bookings service")
	serverApp := app.NewApplication(cfg)

	bookingService := initServices(cfg, kafkaCfg, serverApp)
	serverApp.SetApp(handler.NewBookingHandler(bookingService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config, kafkaCfg *kafka_config.Config, serverApp *app.Application) service.BookingService {
	var bookingRepo repository.BookingRepository
	if cfg.UsesMongo() {
		cfg.SetMongo()
		bookingRepo = repository.NewMongoBookingRepository(cfg)
	} else {
		bookingRepo = repository.NewMemoryBookingRepository()
	}
	cfg.SetRedis()

	var publisher service.EventPublisher = service.NoopPublisher{}
	var kafkaMetrics *kafka_middleware.Metrics
	if kafkaCfg.Enabled {
		kafkaMetrics = kafka_middleware.NewMetrics(serverApp.Registry())
		producer, err := kafka.NewProducer(kafkaCfg, kafkaCfg.BookingEventsTopic, cfg.Log)
		if err != nil {
			cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
		}
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
		producer.Use(kafkaMetrics.Producer())
		serverApp.OnShutdown(func() {
			if err := producer.Close(); err != nil {
				cfg.Log.Error("Failed to close Kafka producer", "error", err)
			}
		})
		publisher = events.NewKafkaPublisher(producer)
	}

	bookingService := service.NewBookingService(
		bookingRepo,
		validator.NewBookingValidator(cfg.Log),
		service.FlatRate(cfg.CommissionRate),
		publisher,
		service.NewMetrics(serverApp.Registry()),
		cfg,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := bookingService.SyncMetrics(ctx); err != nil {
		cfg.Log.Warn("Failed to seed booking metrics", "error", err)
	}

	if kafkaCfg.Enabled && kafkaCfg.BookingIntakeTopic != "" {
		consumer, err := kafka.NewConsumer(kafkaCfg, kafkaCfg.BookingIntakeTopic, events.IntakeHandler(bookingService, cfg.Log), cfg.Log)
		if err != nil {
			cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
		}
		consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
		consumer.Use(kafkaMetrics.Consumer())
		serverApp.Go(func(ctx context.Context) {
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				cfg.Log.Error("Booking intake consumer stopped", "error", err)
			}
		})
		serverApp.OnShutdown(func() {
			if err := consumer.Close(); err != nil {
				cfg.Log.Error("Failed to close Kafka consumer", "error", err)
			}
		})
	}

	cfg.Log.Info("Booking service initialized",
		"storage_backend", cfg.StorageBackend,
		"commission_rate", cfg.CommissionRate,
		"kafka_enabled", kafkaCfg.Enabled,
	)
	return bookingService
}
