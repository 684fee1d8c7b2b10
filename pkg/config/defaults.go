package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "medslot"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultRedisAddr        = "localhost:6379"
	DefaultRedisDB          = 0
	DefaultRedisConnTimeout = 2 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 10
	DefaultRateLimitWindow   = 1 * time.Minute
	DefaultRateLimitFailOpen = true

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultDefaultStartOfDay              = "09:00"
	DefaultDefaultEndOfDay                = "17:00"
	DefaultDefaultConsultationDurationMin = 30
	DefaultDefaultTimeZone                = "UTC"

	DefaultBookingLockTTL     = 10 * time.Second
	DefaultBookingLockRetries = 3
	DefaultBookingLockBackoff = 50 * time.Millisecond

	DefaultAppointmentEventsTopic = "appointments.events"

	DefaultPaginationLimit = 100
)
