package config

import (
	"encoding/json"
	"os"
	"time"
)

// jsonConfig is the DTO for the JSON overlay file. Durations are strings in
// time.ParseDuration syntax ("72h"). Pointer fields distinguish "absent"
// from "set to zero value" so the overlay never clobbers defaults it does
// not mention.
type jsonConfig struct {
	HTTPAddr        *string `json:"http_addr"`
	DatabaseDSN     *string `json:"database_dsn"`
	SecretKey       *string `json:"secret_key"`
	ConfirmationTTL *string `json:"confirmation_ttl"`
	BaseURL         *string `json:"base_url"`

	EmailFrom  *string `json:"email_from"`
	OpsEmail   *string `json:"ops_email"`
	MailDriver *string `json:"mail_driver"`

	SMTPHost     *string `json:"smtp_host"`
	SMTPPort     *int    `json:"smtp_port"`
	SMTPUsername *string `json:"smtp_username"`
	SMTPPassword *string `json:"smtp_password"`

	AvatarDriver    *string `json:"avatar_driver"`
	AvatarDir       *string `json:"avatar_dir"`
	AvatarURLPrefix *string `json:"avatar_url_prefix"`

	S3Bucket       *string `json:"s3_bucket"`
	S3Region       *string `json:"s3_region"`
	S3AccessKey    *string `json:"s3_access_key"`
	S3SecretKey    *string `json:"s3_secret_key"`
	S3BaseEndpoint *string `json:"s3_base_endpoint"`
	S3KeyPrefix    *string `json:"s3_key_prefix"`
}

// parseJSON overlays values from the file named by ACCOUNTS_CONFIG, when
// set. A missing variable means no overlay; an unreadable or invalid file
// is a hard error because the operator asked for it explicitly.
func parseJSON(config *Config) {
	path := os.Getenv("ACCOUNTS_CONFIG")
	if path == "" {
		return
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &jsonConfig{}
	if err := json.Unmarshal(raw, c); err != nil {
		panic(err)
	}

	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setDuration(&config.ConfirmationTTL, c.ConfirmationTTL)
	setString(&config.BaseURL, c.BaseURL)

	setString(&config.EmailFrom, c.EmailFrom)
	setString(&config.OpsEmail, c.OpsEmail)
	setString(&config.MailDriver, c.MailDriver)

	setString(&config.SMTPHost, c.SMTPHost)
	setInt(&config.SMTPPort, c.SMTPPort)
	setString(&config.SMTPUsername, c.SMTPUsername)
	setString(&config.SMTPPassword, c.SMTPPassword)

	setString(&config.AvatarDriver, c.AvatarDriver)
	setString(&config.AvatarDir, c.AvatarDir)
	setString(&config.AvatarURLPrefix, c.AvatarURLPrefix)

	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3KeyPrefix, c.S3KeyPrefix)
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setDuration(dst *time.Duration, src *string) {
	if src == nil {
		return
	}
	d, err := time.ParseDuration(*src)
	if err != nil {
		panic(err)
	}
	*dst = d
}
