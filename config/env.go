package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays values from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win
// over it, which is godotenv's default behavior.
func parseEnv(config *Config) {
	_ = godotenv.Load()

	envString(&config.HTTPAddr, "ACCOUNTS_HTTP_ADDR")
	envString(&config.DatabaseDSN, "ACCOUNTS_DATABASE_DSN")
	envString(&config.SecretKey, "ACCOUNTS_SECRET_KEY")
	envDuration(&config.ConfirmationTTL, "ACCOUNTS_CONFIRMATION_TTL")
	envString(&config.BaseURL, "ACCOUNTS_BASE_URL")

	envString(&config.EmailFrom, "ACCOUNTS_EMAIL_FROM")
	envString(&config.OpsEmail, "ACCOUNTS_OPS_EMAIL")
	envString(&config.MailDriver, "ACCOUNTS_MAIL_DRIVER")

	envString(&config.SMTPHost, "ACCOUNTS_SMTP_HOST")
	envInt(&config.SMTPPort, "ACCOUNTS_SMTP_PORT")
	envString(&config.SMTPUsername, "ACCOUNTS_SMTP_USERNAME")
	envString(&config.SMTPPassword, "ACCOUNTS_SMTP_PASSWORD")

	envString(&config.AvatarDriver, "ACCOUNTS_AVATAR_DRIVER")
	envString(&config.AvatarDir, "ACCOUNTS_AVATAR_DIR")
	envString(&config.AvatarURLPrefix, "ACCOUNTS_AVATAR_URL_PREFIX")

	envString(&config.S3Bucket, "ACCOUNTS_S3_BUCKET")
	envString(&config.S3Region, "ACCOUNTS_S3_REGION")
	envString(&config.S3AccessKey, "ACCOUNTS_S3_ACCESS_KEY")
	envString(&config.S3SecretKey, "ACCOUNTS_S3_SECRET_KEY")
	envString(&config.S3BaseEndpoint, "ACCOUNTS_S3_BASE_ENDPOINT")
	envString(&config.S3KeyPrefix, "ACCOUNTS_S3_KEY_PREFIX")
}

func envString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(err)
	}
	*dst = n
}

func envDuration(dst *time.Duration, key string) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	*dst = d
}
