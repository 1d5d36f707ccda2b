// Package config handles configuration for the accounts server, including
// defaults, an optional JSON overlay, and environment variables.
package config

import "time"

// Config holds runtime settings for the accounts server.
//
// Fields:
//   - HTTPAddr: bind address for the public HTTP endpoint.
//   - DatabaseDSN: SQL DSN handed to the sqlite shim driver.
//   - SecretKey: HMAC secret for signing confirmation tokens. Do not use
//     the test default in prod.
//   - ConfirmationTTL: confirmation link lifetime.
//   - BaseURL: public origin used to build confirmation links.
//   - EmailFrom / OpsEmail: transactional sender and questionnaire inbox.
//   - MailDriver: "smtp" or "log".
//   - AvatarDriver: "local" or "s3".
type Config struct {
	HTTPAddr        string
	DatabaseDSN     string
	SecretKey       string
	ConfirmationTTL time.Duration
	BaseURL         string

	EmailFrom  string
	OpsEmail   string
	MailDriver string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string

	AvatarDriver    string
	AvatarDir       string
	AvatarURLPrefix string

	S3Bucket       string
	S3Region       string
	S3AccessKey    string
	S3SecretKey    string
	S3BaseEndpoint string
	S3KeyPrefix    string
}

// LoadDefaults populates Config with sensible development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":8080"
	c.DatabaseDSN = "file:accounts.db?cache=shared&mode=rwc"
	c.SecretKey = "secretKey"
	c.ConfirmationTTL = 72 * time.Hour
	c.BaseURL = "http://localhost:8080"
	c.EmailFrom = "no-reply@localhost"
	c.OpsEmail = "ops@localhost"
	c.MailDriver = "log"
	c.SMTPHost = "localhost"
	c.SMTPPort = 1025
	c.AvatarDriver = "local"
	c.AvatarDir = "./data/avatars"
	c.AvatarURLPrefix = "/avatars"
	c.S3Bucket = "avatars"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
}

// Load builds a Config by applying defaults, then overlaying values from an
// optional JSON file and finally from environment variables.
func Load() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJSON(cfg)
	parseEnv(cfg)
	return cfg
}
