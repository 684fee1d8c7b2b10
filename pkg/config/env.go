package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvRedisAddr        = "REDIS_ADDR"
	EnvRedisPassword    = "REDIS_PASSWORD"
	EnvRedisDB          = "REDIS_DB"
	EnvRedisConnTimeout = "REDIS_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"
	EnvRateLimitFailOpen = "RATE_LIMIT_FAIL_OPEN"
	EnvTrustedProxies    = "TRUSTED_PROXIES"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvDefaultStartOfDay              = "DEFAULT_START_OF_DAY"
	EnvDefaultEndOfDay                = "DEFAULT_END_OF_DAY"
	EnvDefaultConsultationDurationMin = "DEFAULT_CONSULTATION_DURATION_MIN"
	EnvDefaultTimeZone                = "DEFAULT_TIME_ZONE"

	EnvBookingLockTTL     = "BOOKING_LOCK_TTL"
	EnvBookingLockRetries = "BOOKING_LOCK_RETRIES"
	EnvBookingLockBackoff = "BOOKING_LOCK_BACKOFF"

	EnvAppointmentEventsTopic = "APPOINTMENT_EVENTS_TOPIC"
)
