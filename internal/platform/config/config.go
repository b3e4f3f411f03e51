package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	strutil "legaldocs/pkg/platform/strings"
)

// Config captures process-level configuration. Everything is read once at
// startup so main stays lean and services receive plain values.
type Config struct {
	Addr        string
	PostgresURL string
	Redis       RedisConfig

	// ReminderDays is the threshold used for urgency and the reminder sweep.
	// Zero means no threshold is configured and the sweep is a documented no-op.
	ReminderDays int
	// RemindersEnabled gates the reminder sweep feature as a whole.
	RemindersEnabled bool
	// ValidationWorkflow distinguishes "manual review required" deployments
	// from "expiration-only" ones. It changes urgency derivation, not storage.
	ValidationWorkflow bool
	// DefaultNoneWhenEmpty makes owners with no documents report LegalState
	// None instead of Valid.
	DefaultNoneWhenEmpty bool
	// SweepConcurrency bounds how many owner groups the sweep processes in
	// parallel.
	SweepConcurrency int

	// AllowedExtensions lists upload extensions accepted by document
	// replacement, lowercase without dots.
	AllowedExtensions []string

	// OwnerKinds names the owner kinds registered at startup.
	OwnerKinds []string

	S3Bucket string

	KafkaBrokers []string
	KafkaTopic   string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	addr := os.Getenv("LEGALDOCS_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	days := envInt("REMINDER_DAYS", 0)
	concurrency := envInt("SWEEP_CONCURRENCY", 4)

	exts := strutil.DedupeAndTrimLower(strings.Split(envDefault("ALLOWED_EXTENSIONS", "pdf,jpg,png"), ","))

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = strutil.DedupeAndTrim(strings.Split(v, ","))
	}

	return Config{
		Addr:                 addr,
		PostgresURL:          os.Getenv("POSTGRES_URL"),
		Redis:                redisFromEnv(),
		ReminderDays:         days,
		RemindersEnabled:     os.Getenv("REMINDERS_ENABLED") != "false",
		ValidationWorkflow:   os.Getenv("VALIDATION_WORKFLOW") == "true",
		DefaultNoneWhenEmpty: os.Getenv("DEFAULT_NONE_WHEN_EMPTY") != "false",
		SweepConcurrency:     concurrency,
		AllowedExtensions:    exts,
		OwnerKinds:           strutil.DedupeAndTrim(strings.Split(envDefault("OWNER_KINDS", "member,company"), ",")),
		S3Bucket:             os.Getenv("S3_BUCKET"),
		KafkaBrokers:         brokers,
		KafkaTopic:           envDefault("KAFKA_AUDIT_TOPIC", "legaldocs.audit"),
	}
}

func redisFromEnv() RedisConfig {
	return RedisConfig{
		URL:          os.Getenv("REDIS_URL"),
		PoolSize:     envInt("REDIS_POOL_SIZE", 10),
		MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
