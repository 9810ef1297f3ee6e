package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/tokenvault/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   session signing secret
//	-t int      session TTL, minutes
//	-k string   envelope encryption key, base64
//	-q int      store query timeout, seconds
//	-e string   environment: development | production
//	-b string   S3 bucket for the audit archiver (empty disables it)
//	-g string   S3 region
//	-u string   S3 access key
//	-p string   S3 secret key
//	-n string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-f int      audit flush interval, seconds
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components. Duration
// flags are accepted as integers and converted to time.Duration values.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:],
		[]string{"-a", "-d", "-s", "-t", "-k", "-q", "-e", "-b", "-g", "-u", "-p", "-n", "-f"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SessionSecret, "s", config.SessionSecret, "session signing secret")
	fs.StringVar(&config.EncryptionKey, "k", config.EncryptionKey, "envelope encryption key (base64)")
	fs.StringVar(&config.Environment, "e", config.Environment, "environment (development|production)")

	sessionTTL := fs.Int("t", int(config.SessionTTL.Minutes()), "session TTL (in minutes)")
	queryTimeout := fs.Int("q", int(config.QueryTimeout.Seconds()), "query timeout (in seconds)")
	flushInterval := fs.Int("f", int(config.AuditFlushInterval.Seconds()), "audit flush interval (in seconds)")

	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket for audit archive")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3AccessKey, "u", config.S3AccessKey, "S3 access key")
	fs.StringVar(&config.S3SecretKey, "p", config.S3SecretKey, "S3 secret key")
	fs.StringVar(&config.S3BaseEndpoint, "n", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionTTL = time.Duration(*sessionTTL) * time.Minute
	config.QueryTimeout = time.Duration(*queryTimeout) * time.Second
	config.AuditFlushInterval = time.Duration(*flushInterval) * time.Second
}
