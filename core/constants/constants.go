package constants

import "time"

// Database pool tuning
const (
	DatabaseMaxOpenConns    = 25
	DatabaseMaxIdleConns    = 5
	DatabaseConnMaxLifetime = 30 // minutes
	DatabaseSSLMode         = "disable"
)

// Timeouts
const (
	DefaultTimeout        = 10 * time.Second
	ServerShutdownTimeout = 15 * time.Second
	EffectDispatchTimeout = 8 * time.Second
)

// Side-effect retry policy (asynq)
const (
	EffectMaxRetry     = 5
	EffectRetryQueue   = "effects"
	EffectTaskTypeName = "effect:retry"
)

// Cache
const (
	SlotCacheTTL       = 30 * time.Second
	SlotCacheKeyPrefix = "slots:avail:"
)

// Booking status values
const (
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
)

// Service kind values
const (
	ServiceKindVirtual  = "virtual"
	ServiceKindInPerson = "in_person"
)
