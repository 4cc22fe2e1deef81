package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "masterbook"
	DefaultMongoConnTimeout  = 10 * time.Second

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

	DefaultProviderTimezone   = "UTC"
	DefaultDefaultStartOfDay  = "09:00"
	DefaultDefaultEndOfDay    = "18:00"
	DefaultTemplateCacheSize  = 1024
	DefaultTemplateCacheTTL   = 1 * time.Minute
	DefaultSideEffectTimeout  = 5 * time.Second
	DefaultMaxReplacements    = 5
	DefaultNotificationsTopic = "appointment-notifications"
	DefaultNotificationsSink  = SinkLog
	DefaultNotificationsDLQ   = "dlq-appointment-notifications"
	DefaultNotifierGroupID    = "masterbook-notifier"

	DefaultLockBackend = LockBackendMemory
	DefaultLockTTL     = 45 * time.Second
	DefaultLockWait    = 5 * time.Second

	DefaultRedisAddr = "localhost:6379"
	DefaultRedisDB   = 0

	DefaultSMTPPort = 587
	DefaultSMTPFrom = "no-reply@masterbook.local"

	DefaultPaginationLimit = 100
)

const (
	LockBackendMemory = "memory"
	LockBackendMongo  = "mongo"
	LockBackendRedis  = "redis"

	SinkLog   = "log"
	SinkKafka = "kafka"
)
