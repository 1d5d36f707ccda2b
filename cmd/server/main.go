package main

import (
	"context"
	"database/sql"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	accounts "github.com/revenuehive/accounts"
	"github.com/revenuehive/accounts/config"
)

type App struct {
	config *config.Config
	bunDB  *bun.DB
	repo   accounts.RepositoryManager
	auther *accounts.Authenticator
	codec  *accounts.ConfirmationCodec
	fiber  *fiber.App
	logger *glog.BaseLogger
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

// persistenceConfig adapts the flat app config to the persistence client.
type persistenceConfig struct {
	dsn string
}

func (p persistenceConfig) GetDebug() bool                { return false }
func (p persistenceConfig) GetDSN() string                { return p.dsn }
func (p persistenceConfig) GetPingTimeout() time.Duration { return 5 * time.Second }

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Info),
		glog.WithName("accounts"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(goerrors.ToSlogAttributes),
	)

	cfg := config.Load()

	app := &App{
		config: cfg,
		logger: lgr,
	}

	ctx := context.Background()

	if err := WithPersistence(ctx, app); err != nil {
		lgr.Error("persistence setup failed", "error", err)
		os.Exit(1)
	}

	if err := WithHTTPServer(ctx, app); err != nil {
		lgr.Error("http setup failed", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := app.fiber.Listen(cfg.HTTPAddr); err != nil {
			lgr.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}()

	WaitExitSignal()

	if err := app.fiber.Shutdown(); err != nil {
		lgr.Error("shutdown error", "error", err)
	}
}

func WithPersistence(ctx context.Context, app *App) error {
	db, err := sql.Open(sqliteshim.ShimName, app.config.DatabaseDSN)
	if err != nil {
		return err
	}

	persistence.RegisterModel((*accounts.Account)(nil))
	persistence.RegisterModel((*accounts.Profile)(nil))
	persistence.RegisterModel((*accounts.AuthToken)(nil))

	dialect := sqlitedialect.New()
	client, err := persistence.New(persistenceConfig{dsn: app.config.DatabaseDSN}, db, dialect)
	if err != nil {
		return err
	}

	client.SetLogger(app.GetLogger("persistence"))

	migrationsFS, err := fs.Sub(accounts.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return err
	}
	client.RegisterDialectMigrations(
		migrationsFS,
		persistence.WithDialectSourceLabel("data/sql/migrations"),
		persistence.WithValidationTargets("postgres", "sqlite"),
	)
	if err := client.ValidateDialects(ctx); err != nil {
		return err
	}

	if err := client.Migrate(ctx); err != nil {
		return err
	}

	app.bunDB = client.DB()
	app.repo = accounts.NewRepositoryManager(client.DB())

	return nil
}

func WithHTTPServer(ctx context.Context, app *App) error {
	cfg := app.config

	app.auther = accounts.NewAuthenticator(app.repo).
		WithLogger(app.GetLogger("auth"))

	app.codec = accounts.NewConfirmationCodec(
		[]byte(cfg.SecretKey),
		accounts.WithConfirmationTTL(cfg.ConfirmationTTL),
		accounts.WithConfirmationLogger(app.GetLogger("confirm")),
	)

	notifier := makeNotifier(app)
	avatars := makeAvatarStore(app)

	controller := accounts.NewAPIController(
		accounts.WithRepository(app.repo),
		accounts.WithAuthenticator(app.auther),
		accounts.WithConfirmationCodec(app.codec),
		accounts.WithNotifier(notifier),
		accounts.WithAvatarStore(avatars),
		accounts.WithControllerLogger(app.GetLogger("http")),
		accounts.WithMailSettings(cfg.BaseURL, cfg.EmailFrom, cfg.OpsEmail),
	)

	srv := fiber.New(fiber.Config{
		AppName:      "accounts",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})

	controller.RegisterRoutes(srv)

	if cfg.AvatarDriver == "local" {
		srv.Static(cfg.AvatarURLPrefix, cfg.AvatarDir)
	}

	app.fiber = srv

	return nil
}

func makeNotifier(app *App) accounts.Notifier {
	cfg := app.config

	if cfg.MailDriver == "smtp" {
		return accounts.NewSMTPNotifier(accounts.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
		}, app.GetLogger("mail"))
	}

	return accounts.NewLogNotifier(app.GetLogger("mail"))
}

func makeAvatarStore(app *App) accounts.AvatarStore {
	cfg := app.config

	if cfg.AvatarDriver == "s3" {
		return accounts.NewS3AvatarStore(accounts.S3AvatarStoreConfig{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			BaseEndpoint: cfg.S3BaseEndpoint,
			KeyPrefix:    cfg.S3KeyPrefix,
		})
	}

	return accounts.NewLocalAvatarStore(cfg.AvatarDir, cfg.AvatarURLPrefix)
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
