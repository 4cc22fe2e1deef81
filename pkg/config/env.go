package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvProviderTimezone   = "PROVIDER_TIMEZONE"
	EnvDefaultStartOfDay  = "DEFAULT_START_OF_DAY"
	EnvDefaultEndOfDay    = "DEFAULT_END_OF_DAY"
	EnvTemplateCacheSize  = "TEMPLATE_CACHE_SIZE"
	EnvTemplateCacheTTL   = "TEMPLATE_CACHE_TTL"
	EnvSideEffectTimeout  = "SIDE_EFFECT_TIMEOUT"
	EnvMaxReplacements    = "MAX_REPLACEMENTS"
	EnvNotificationsTopic = "NOTIFICATIONS_TOPIC"
	EnvNotificationsSink  = "NOTIFICATIONS_SINK"
	EnvNotificationsDLQ   = "NOTIFICATIONS_DLQ_TOPIC"
	EnvNotifierGroupID    = "NOTIFIER_GROUP_ID"

	EnvLockBackend = "LOCK_BACKEND"
	EnvLockTTL     = "LOCK_TTL"
	EnvLockWait    = "LOCK_WAIT"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"

	EnvSMTPHost     = "SMTP_HOST"
	EnvSMTPPort     = "SMTP_PORT"
	EnvSMTPUsername = "SMTP_USERNAME"
	EnvSMTPPassword = "SMTP_PASSWORD"
	EnvSMTPFrom     = "SMTP_FROM"
)
