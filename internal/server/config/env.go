package config

import (
	"os"
	"strconv"
	"time"
)

// parseEnv overlays configuration from environment variables. Only variables
// that are set override the current values. Duration variables are integers:
// SESSION_TTL in minutes, QUERY_TIMEOUT and AUDIT_FLUSH_INTERVAL in seconds.
func parseEnv(config *Config) {
	setString := func(name string, dst *string) {
		if v, ok := os.LookupEnv(name); ok {
			*dst = v
		}
	}
	setDuration := func(name string, unit time.Duration, dst *time.Duration) {
		if v, ok := os.LookupEnv(name); ok {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = time.Duration(n) * unit
			}
		}
	}

	setString("ADDRESS", &config.EndpointAddr)
	setString("DATABASE_DSN", &config.DatabaseDSN)
	setString("SESSION_SECRET", &config.SessionSecret)
	setString("ENCRYPTION_KEY", &config.EncryptionKey)
	setString("ENVIRONMENT", &config.Environment)
	setString("S3_BUCKET", &config.S3Bucket)
	setString("S3_REGION", &config.S3Region)
	setString("S3_ACCESS_KEY", &config.S3AccessKey)
	setString("S3_SECRET_KEY", &config.S3SecretKey)
	setString("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)

	setDuration("SESSION_TTL", time.Minute, &config.SessionTTL)
	setDuration("QUERY_TIMEOUT", time.Second, &config.QueryTimeout)
	setDuration("AUDIT_FLUSH_INTERVAL", time.Second, &config.AuditFlushInterval)
}
