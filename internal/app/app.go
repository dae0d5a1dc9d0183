package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/clinic-api/internal/channel"
	"github.com/jwalitptl/clinic-api/internal/config"
	authhandler "github.com/jwalitptl/clinic-api/internal/handler/auth"
	recordshandler "github.com/jwalitptl/clinic-api/internal/handler/records"
	reporthandler "github.com/jwalitptl/clinic-api/internal/handler/report"
	settingshandler "github.com/jwalitptl/clinic-api/internal/handler/settings"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/repository/file"
	"github.com/jwalitptl/clinic-api/internal/repository/postgres"
	redisstore "github.com/jwalitptl/clinic-api/internal/repository/redis"
	"github.com/jwalitptl/clinic-api/internal/router"
	"github.com/jwalitptl/clinic-api/internal/service/auth"
	"github.com/jwalitptl/clinic-api/internal/service/notification"
	"github.com/jwalitptl/clinic-api/internal/service/records"
	"github.com/jwalitptl/clinic-api/internal/service/report"
	"github.com/jwalitptl/clinic-api/internal/service/session"
	"github.com/jwalitptl/clinic-api/internal/service/settings"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/messaging"
	redisbroker "github.com/jwalitptl/clinic-api/pkg/messaging/redis"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
	"github.com/jwalitptl/clinic-api/pkg/security"
	"github.com/jwalitptl/clinic-api/pkg/validator"
)

// App holds the wired services shared by the api and worker binaries.
type App struct {
	Config  *config.Config
	Log     *logger.Logger
	Metrics *metrics.Metrics
	Store   *repository.Store

	Sessions   *session.Service
	Auth       *auth.Service
	Records    *records.Service
	Settings   *settings.Service
	Reports    *report.Service
	Dispatcher *notification.Dispatcher

	publisher messaging.Publisher
}

// OpenBackend connects the configured storage driver.
func OpenBackend(ctx context.Context, cfg config.StorageConfig) (repository.Backend, error) {
	switch cfg.Driver {
	case "file", "":
		return file.New(cfg.Dir)
	case "redis":
		return redisstore.Open(ctx, cfg.RedisURL, cfg.RedisPrefix)
	case "postgres":
		return postgres.Open(ctx, cfg.PostgresDSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// NewChannel builds the configured delivery channel.
func NewChannel(cfg *config.Config) channel.Channel {
	if cfg.Notifications.Channel == "email" {
		return channel.NewEmail(channel.EmailConfig{
			Host:     cfg.Email.Host,
			Port:     cfg.Email.Port,
			Username: cfg.Email.Username,
			Password: cfg.Email.Password,
			From:     cfg.Email.From,
		})
	}
	return channel.NewWhatsApp(channel.WhatsAppConfig{
		URL:     cfg.Notifications.ProviderURL,
		Timeout: cfg.Notifications.Timeout,
	})
}

// New opens storage, seeds it on first run and wires every service.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	backend, err := OpenBackend(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	a, err := NewWithBackend(ctx, cfg, backend, NewChannel(cfg), log)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return a, nil
}

// NewWithBackend wires the services on an already opened backend.
func NewWithBackend(ctx context.Context, cfg *config.Config, backend repository.Backend, ch channel.Channel, log *logger.Logger) (*App, error) {
	if log == nil {
		log = logger.Nop()
	}
	m := metrics.New("hms")
	store := repository.NewStore(backend, log, m)
	hasher := security.NewBcryptHasher(cfg.Auth.BcryptCost)

	if err := repository.Seed(ctx, store, repository.SeedOptions{
		AdminUsername: cfg.Seed.AdminUsername,
		AdminPassword: cfg.Seed.AdminPassword,
		Hasher:        hasher,
	}, log); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	publisher := messaging.Nop()
	if cfg.Notifications.EventsRedisURL != "" {
		p, err := redisbroker.NewRedisBroker(ctx, redisbroker.Config{URL: cfg.Notifications.EventsRedisURL})
		if err != nil {
			return nil, err
		}
		publisher = p
	}

	sessions := session.NewService(store, session.WithTTL(cfg.Session.TTL))
	settingsSvc := settings.NewService(store)
	recordsSvc := records.NewService(store, validator.New(), hasher, log)
	dispatcher := notification.NewDispatcher(store, settingsSvc, ch, notification.Config{
		Interval: cfg.Notifications.Interval,
		Timeout:  cfg.Notifications.Timeout,
		Retry: notification.RetryPolicy{
			MaxAttempts: cfg.Notifications.Retry.MaxAttempts,
			Delay:       cfg.Notifications.Retry.Delay,
		},
	}, log, notification.WithPublisher(publisher), notification.WithMetrics(m))
	recordsSvc.OnCreate(model.CollectionAppointments, dispatcher.AppointmentCreated)

	return &App{
		Config:     cfg,
		Log:        log,
		Metrics:    m,
		Store:      store,
		Sessions:   sessions,
		Auth:       auth.NewService(store, sessions, hasher, log),
		Records:    recordsSvc,
		Settings:   settingsSvc,
		Reports:    report.NewService(store, time.Now),
		Dispatcher: dispatcher,
		publisher:  publisher,
	}, nil
}

// Router builds the HTTP surface.
func (a *App) Router() *router.Router {
	cfg := a.Config
	rc := router.RouterConfig{
		MaxBodySize: cfg.Server.MaxBodyBytes,
		CORSConfig: middleware.CORSConfig{
			AllowOrigins: cfg.Server.AllowedOrigins,
			MaxAge:       12 * time.Hour,
		},
		LoginRateLimit: middleware.RateLimiterConfig{
			RPS:   cfg.Auth.LoginRPS,
			Burst: cfg.Auth.LoginBurst,
		},
		MetricsPath: cfg.Metrics.Path,
	}
	if cfg.Metrics.Enabled {
		rc.Metrics = a.Metrics
	}
	v := validator.New()
	return router.NewRouter(
		middleware.NewAuthMiddleware(a.Auth),
		authhandler.NewHandler(a.Auth, v),
		recordshandler.NewHandler(a.Records),
		settingshandler.NewHandler(a.Settings),
		reporthandler.NewHandler(a.Reports),
		rc,
	)
}

func (a *App) Close() error {
	if err := a.publisher.Close(); err != nil {
		a.Log.Error(err, "failed to close event publisher")
	}
	return a.Store.Close()
}
