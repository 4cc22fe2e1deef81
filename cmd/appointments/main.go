package main

import (
	appointmentshandler "masterbook/internal/appointments/handler"
	appointmentsrepository "masterbook/internal/appointments/repository"
	appointmentsservice "masterbook/internal/appointments/service"
	appointmentsvalidator "masterbook/internal/appointments/validator"
	automationsrepository "masterbook/internal/automations/repository"
	automationsservice "masterbook/internal/automations/service"
	availabilityhandler "masterbook/internal/availability/handler"
	availabilityservice "masterbook/internal/availability/service"
	availabilityvalidator "masterbook/internal/availability/validator"
	usersrepository "masterbook/internal/users/repository"
	"masterbook/pkg/app"
	"masterbook/pkg/config"
	"masterbook/pkg/kafka"
	kafka_config "masterbook/pkg/kafka/config"
	kafka_middleware "masterbook/pkg/kafka/middleware"
	"masterbook/pkg/lock"
	"masterbook/pkg/notification"
)

const ServiceName = "appointments"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	if cfg.LockBackend == config.LockBackendRedis {
		cfg.SetRedis()
	}

	cfg.Log.Info("Starting Appointments service")
	serverApp := app.NewApplication(cfg)

	publisher, closePublisher := initPublisher(cfg)
	availabilityService, appointmentService := initServices(cfg, publisher)

	serverApp.SetApp(
		availabilityhandler.NewAvailabilityHandler(availabilityService, cfg.Log),
		appointmentshandler.NewAppointmentHandler(appointmentService, cfg.Log),
	)
	serverApp.OnShutdown(func() {
		cfg.Log.Info("Waiting for pending side effects")
		appointmentService.Wait()
	})
	serverApp.OnShutdown(closePublisher)
	serverApp.Run()
}

func initServices(cfg *config.Config, publisher notification.Publisher) (availabilityservice.AvailabilityService, appointmentsservice.AppointmentService) {
	userRepo := usersrepository.NewMongoUserRepository(cfg)
	appointmentRepo := appointmentsrepository.NewMongoAppointmentRepository(cfg)
	automationRepo := automationsrepository.NewMongoAutomationRepository(cfg)

	availabilityService := availabilityservice.NewAvailabilityService(
		userRepo,
		appointmentRepo,
		availabilityvalidator.NewTemplateValidator(cfg.Log),
		cfg,
	)
	automationService := automationsservice.NewAutomationService(
		automationRepo,
		userRepo,
		publisher,
		cfg,
	)
	appointmentService := appointmentsservice.NewAppointmentService(
		appointmentRepo,
		userRepo,
		availabilityService,
		automationService,
		initLocker(cfg),
		publisher,
		appointmentsvalidator.NewAppointmentValidator(cfg.Log),
		cfg,
	)

	cfg.Log.Info("Appointment services initialized", "database", cfg.MongoDatabaseName)
	return availabilityService, appointmentService
}

func initLocker(cfg *config.Config) lock.Locker {
	switch cfg.LockBackend {
	case config.LockBackendMongo:
		cfg.Log.Info("Using MongoDB booking locks", "ttl", cfg.LockTTL, "wait", cfg.LockWait)
		store := lock.NewMongoLockStore(cfg.Client.Mongo.Database(cfg.MongoDatabaseName))
		return lock.NewMongoLocker(store, cfg.LockTTL, cfg.LockWait)
	case config.LockBackendRedis:
		cfg.Log.Info("Using Redis booking locks", "addr", cfg.RedisAddr, "ttl", cfg.LockTTL, "wait", cfg.LockWait)
		return lock.NewRedisLocker(cfg.Client.Redis, "masterbook:lock", cfg.LockTTL, cfg.LockWait)
	default:
		cfg.Log.Warn("Using in-process booking locks, only safe with a single replica", "wait", cfg.LockWait)
		return lock.NewMemoryLocker(cfg.LockWait)
	}
}

// initPublisher returns the notice publisher and the func that flushes it on shutdown.
func initPublisher(cfg *config.Config) (notification.Publisher, func()) {
	if cfg.NotificationsSink != config.SinkKafka {
		cfg.Log.Info("Notices are written to the service log")
		return notification.NewLogPublisher(cfg.Log), func() {}
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.NotificationsTopic, cfg.NotificationsDLQ, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
		producer.Use(kafka_middleware.MetricsProducerMiddleware())
	}

	return notification.NewKafkaPublisher(producer), func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
		kafka_middleware.GetMetrics().LogSummary(cfg.Log)
	}
}
