package main

import (
	"time"
	_ "time/tzdata"

	"medslot/internal/appointments/events"
	appointmenthandler "medslot/internal/appointments/handler"
	appointmentrepo "medslot/internal/appointments/repository"
	appointmentservice "medslot/internal/appointments/service"
	appointmentvalidator "medslot/internal/appointments/validator"
	hourshandler "medslot/internal/operatinghours/handler"
	hoursrepo "medslot/internal/operatinghours/repository"
	hoursservice "medslot/internal/operatinghours/service"
	hoursvalidator "medslot/internal/operatinghours/validator"
	"medslot/internal/ratelimit"
	"medslot/pkg/app"
	"medslot/pkg/config"
	"medslot/pkg/kafka"
	kafka_config "medslot/pkg/kafka/config"
	kafka_middleware "medslot/pkg/kafka/middleware"
	"medslot/pkg/middleware"
)

const ServiceName = "medslot-scheduler"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting scheduler service")

	serverApp := app.NewApplication(cfg)

	publisher := initPublisher(cfg)
	serverApp.OnShutdown(publisher)

	hoursRepo := hoursrepo.NewMongoOperatingHoursRepository(cfg)
	hoursHandler := hourshandler.NewOperatingHoursHandler(
		hoursservice.NewOperatingHoursService(hoursRepo, hoursvalidator.NewOperatingHoursValidator(cfg.Log), cfg),
		cfg.Log,
	)

	appointmentService := initAppointmentService(cfg, hoursRepo, publisher)
	appointmentHandler := appointmenthandler.NewAppointmentHandler(appointmentService, initRouteLimits(cfg), cfg.Log)

	serverApp.SetApp(hoursHandler, appointmentHandler)
	serverApp.Run()
}

func initAppointmentService(cfg *config.Config, hours hoursrepo.OperatingHoursRepository, publisher events.Publisher) appointmentservice.AppointmentService {
	defaultLoc, err := time.LoadLocation(cfg.DefaultTimeZone)
	if err != nil {
		cfg.Log.Fatal("Invalid default time zone", "time_zone", cfg.DefaultTimeZone, "error", err)
	}

	appointmentRepo := appointmentrepo.NewMongoAppointmentRepository(cfg)
	lockRepo := appointmentrepo.NewAppointmentLockRepository(cfg)
	conflicts := appointmentvalidator.NewConflictValidator(appointmentRepo, hours, cfg.Log, defaultLoc)

	svc := appointmentservice.NewAppointmentService(
		appointmentRepo,
		lockRepo,
		hours,
		conflicts,
		appointmentvalidator.NewRescheduleValidator(conflicts),
		appointmentvalidator.NewRequestValidator(cfg.Log),
		publisher,
		cfg,
	)

	cfg.Log.Info("Appointment service initialized", "database", cfg.MongoDatabaseName)
	return svc
}

func initPublisher(cfg *config.Config) events.Publisher {
	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	if !kafkaCfg.Enabled() {
		cfg.Log.Warn("No Kafka brokers configured, appointment events are discarded")
		return events.NoopPublisher{}
	}

	producer, err := kafka.NewProducer(kafkaCfg, cfg.AppointmentEventsTopic, kafkaCfg.DLQTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	}

	cfg.Log.Info("Appointment events publisher configured", "topic", cfg.AppointmentEventsTopic)
	return events.NewKafkaPublisher(producer)
}

// initRouteLimits binds the booking and reschedule profiles to the
// configured quota. Counters live in Redis so every replica shares them.
func initRouteLimits(cfg *config.Config) appointmenthandler.RouteLimits {
	limiter := ratelimit.NewLimiter(ratelimit.NewRedisStore(cfg.Client.Redis), cfg.Log, cfg.RateLimitFailOpen)

	resolver, err := middleware.NewClientIPResolver(cfg.TrustedProxies)
	if err != nil {
		cfg.Log.Fatal("Invalid trusted proxy list", "error", err)
	}

	booking := ratelimit.Booking
	booking.MaxRequests = int64(cfg.RateLimitRequests)
	booking.Window = cfg.RateLimitWindow

	reschedule := ratelimit.Reschedule
	reschedule.MaxRequests = int64(cfg.RateLimitRequests)
	reschedule.Window = cfg.RateLimitWindow

	return appointmenthandler.RouteLimits{
		Booking:    middleware.RateLimit(limiter, booking, resolver.Identifier, cfg.Log),
		Reschedule: middleware.RateLimit(limiter, reschedule, resolver.Identifier, cfg.Log),
	}
}
