package config

import (
	"os"
	"strconv"
)

// Config holds all server settings, loaded once from the environment and
// injected into constructors. The teacher passphrase in particular must
// come through here; it is not a package constant anywhere in the codebase.
type Config struct {
	Port string

	// Storage backend: "sqlite" (default) or "postgres".
	DBDriver string
	DBDSN    string

	// Shared passphrase granting the teacher role. Student access is open.
	TeacherPassphrase string
	JWTSecret         string

	// Completion collaborator settings.
	AnthropicModel string
	MockCompletion bool

	// Hard ceiling on questions requested per completion round-trip.
	MaxBatchSize int
}

func Load() Config {
	return Config{
		Port:              getEnv("PORT", "8080"),
		DBDriver:          getEnv("DB_DRIVER", "sqlite"),
		DBDSN:             getEnv("DB_DSN", "file:qcm.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"),
		TeacherPassphrase: getEnv("TEACHER_PASSPHRASE", "prof1234"),
		JWTSecret:         getEnv("JWT_SECRET", "qcm-trainer-staging-signing-key-2026"),
		AnthropicModel:    getEnv("ANTHROPIC_MODEL", "claude-opus-4-5-20251101"),
		MockCompletion:    os.Getenv("MOCK_COMPLETION") == "true",
		MaxBatchSize:      getEnvInt("MAX_BATCH_SIZE", 20),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
