// Package config exposes typed access to the service configuration.
//
// Values are read on every call, so keys watched by the file loader (for
// example maintenance toggles or terminal keys) take effect without restart.
package config

import (
	"io"
	"time"
)

// DurationConfig reads integer values scaled to a time unit.
// Missing or non-numeric keys yield zero.
type DurationConfig interface {
	GetMillisecond(key string) time.Duration
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration
	GetHour(key string) time.Duration
	GetDay(key string) time.Duration
}

// NumberConfig reads numeric values. Missing or invalid keys yield zero.
type NumberConfig interface {
	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
	GetUint(key string) uint
	GetFloat64(key string) float64
}

// Config defines the methods used to retrieve configuration values.
type Config interface {
	io.Closer
	DurationConfig
	NumberConfig

	GetBool(key string) bool
	GetString(key string) string

	// GetBinary decodes a base64 encoded value. Invalid input yields nil.
	GetBinary(key string) []byte

	// GetArray reads "<a>,<b>,..." and drops empty elements.
	GetArray(key string) []string

	// GetMap reads "<k1>:<v1>,<k2>:<v2>,..." and drops malformed pairs.
	GetMap(key string) map[string]string
}
