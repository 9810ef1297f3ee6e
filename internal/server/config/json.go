package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/tokenvault/internal/flagx"
	"github.com/dmitrijs2005/tokenvault/internal/timex"
)

// JsonConfig mirrors Config for JSON unmarshalling. Interval fields use
// timex.Duration so a file can express them as "24h" or integer nanoseconds.
// After unmarshalling, the values are copied into the runtime Config.
type JsonConfig struct {
	EndpointAddr       string         `json:"endpoint_addr"`
	DatabaseDSN        string         `json:"database_dsn"`
	SessionSecret      string         `json:"session_secret"`
	SessionTTL         timex.Duration `json:"session_ttl"`
	EncryptionKey      string         `json:"encryption_key"`
	QueryTimeout       timex.Duration `json:"query_timeout"`
	Environment        string         `json:"environment"`
	S3Bucket           string         `json:"s3_bucket"`
	S3Region           string         `json:"s3_region"`
	S3AccessKey        string         `json:"s3_access_key"`
	S3SecretKey        string         `json:"s3_secret_key"`
	S3BaseEndpoint     string         `json:"s3_base_endpoint"`
	AuditFlushInterval timex.Duration `json:"audit_flush_interval"`
}

// parseJson loads configuration values from the JSON file named by the
// -c/-config flags into the provided Config. When neither flag is given,
// nothing is loaded. A file that cannot be read or parsed is a startup
// failure, so the function panics.
//
// Only fields present in the file override the current values; absent keys
// keep whatever defaults (or earlier overlays) set.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	if c.EndpointAddr != "" {
		config.EndpointAddr = c.EndpointAddr
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SessionSecret != "" {
		config.SessionSecret = c.SessionSecret
	}
	if c.SessionTTL.Duration != 0 {
		config.SessionTTL = c.SessionTTL.Duration
	}
	if c.EncryptionKey != "" {
		config.EncryptionKey = c.EncryptionKey
	}
	if c.QueryTimeout.Duration != 0 {
		config.QueryTimeout = c.QueryTimeout.Duration
	}
	if c.Environment != "" {
		config.Environment = c.Environment
	}
	if c.S3Bucket != "" {
		config.S3Bucket = c.S3Bucket
	}
	if c.S3Region != "" {
		config.S3Region = c.S3Region
	}
	if c.S3AccessKey != "" {
		config.S3AccessKey = c.S3AccessKey
	}
	if c.S3SecretKey != "" {
		config.S3SecretKey = c.S3SecretKey
	}
	if c.S3BaseEndpoint != "" {
		config.S3BaseEndpoint = c.S3BaseEndpoint
	}
	if c.AuditFlushInterval.Duration != 0 {
		config.AuditFlushInterval = c.AuditFlushInterval.Duration
	}
}
