package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/market-muscles-llc/pulse-kronos/internal/api"
	"github.com/market-muscles-llc/pulse-kronos/internal/build"
	"github.com/market-muscles-llc/pulse-kronos/internal/config"
	"github.com/market-muscles-llc/pulse-kronos/internal/eventbus"
	"github.com/market-muscles-llc/pulse-kronos/internal/logger"
	"github.com/market-muscles-llc/pulse-kronos/internal/notification"
	"github.com/market-muscles-llc/pulse-kronos/internal/scheduler"
	"github.com/market-muscles-llc/pulse-kronos/internal/server"
	"github.com/market-muscles-llc/pulse-kronos/internal/service"
	"github.com/market-muscles-llc/pulse-kronos/internal/storage"
	"github.com/market-muscles-llc/pulse-kronos/internal/telemetry"
	"github.com/market-muscles-llc/pulse-kronos/internal/web"
	"github.com/market-muscles-llc/pulse-kronos/internal/webhook"
)

// maxParallelDeliveries caps concurrent webhook requests for one event.
const maxParallelDeliveries = 16

// NewServeCmd returns the "serve" subcommand that starts the HTTP server.
func NewServeCmd(cfg *config.AppConfig) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the Pulse Kronos HTTP server which serves the control API,
the booking API and the booking confirmation pages.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// CLI flags override env config.
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			logFile := filepath.Join(cfg.LogDir(), "system.log")
			printBanner(cmd.OutOrStdout(), build.Version, fmt.Sprintf("http://localhost:%d", cfg.Port), logFile)

			if err := runServe(cmd.Context(), cfg); err != nil {
				return fmt.Errorf("%w (see logs at %s)", err, logFile)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", cfg.Port, "HTTP server port (overrides PORT env var)")
	return cmd
}

func runServe(parent context.Context, cfg *config.AppConfig) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	tel, err := telemetry.Setup(ctx, telemetry.Options{Version: build.Version, OTLPEndpoint: cfg.OTLPEndpoint})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer shutdownTelemetry(tel)

	var extra []slog.Handler
	if h := tel.LogHandler(); h != nil {
		extra = append(extra, h)
	}
	sysLogger, logCloser, err := logger.NewSystemLogger(cfg.LogDir(), cfg.SlogLevel(), extra...)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = logCloser.Close() }()

	sysLogger.Info("pulse-kronos starting",
		slog.Int("port", cfg.Port),
		slog.String("data_dir", cfg.DataDir),
		slog.String("version", build.Version),
		slog.String("commit", build.CommitSHA),
		slog.String("build_date", build.BuildDate),
	)
	if cfg.ControlAPIKey == "" {
		sysLogger.Warn("CONTROL_API_KEY is not set; every control request will be rejected")
	}

	db, fresh, err := storage.NewSQLiteDB(cfg.DatabasePath())
	if err != nil {
		sysLogger.Error("failed to open database", "error", err)
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()
	if fresh {
		sysLogger.Info("created new database", "path", cfg.DatabasePath())
	}

	users := storage.NewSQLiteUserStore(db)
	bookings := storage.NewSQLiteBookingStore(db)
	webhooks := storage.NewSQLiteWebhookStore(db)

	staticSubs, err := config.LoadWebhooks(cfg.WebhooksFile)
	if err != nil {
		sysLogger.Error("failed to load webhooks file", "path", cfg.WebhooksFile, "error", err)
		return fmt.Errorf("loading webhooks file: %w", err)
	}

	bus := eventbus.New(0, sysLogger)
	defer bus.Close()
	if cfg.SMTP.Enabled() {
		alerts := notification.NewAlertHandler(notification.NewSMTPProvider(cfg.SMTP), sysLogger)
		bus.Subscribe(alerts.Handle, alerts.EventTypes()...)
		sysLogger.Info("delivery failure alerts enabled", "recipients", cfg.SMTP.AlertRecipients)
	}

	metrics, err := telemetry.NewDeliveryMetrics(tel.Meter(telemetry.ServiceName))
	if err != nil {
		return fmt.Errorf("creating delivery metrics: %w", err)
	}

	if cfg.ControlWebhookEndpoint == "" {
		sysLogger.Warn("CONTROL_WEBHOOK_ENDPOINT is not set; control deliveries will be reported as failed")
	}
	control, resolver := newResolver(cfg, staticSubs, webhooks)
	notifier := newNotifier(cfg, resolver,
		webhook.WithHook(service.NewDeliveryRecorder(webhooks, bus, sysLogger)),
		webhook.WithHook(metrics.Observe),
	)

	controlSvc := service.NewControlService(users, users, service.ControlConfig{
		AuthSecret:   cfg.AuthSecret,
		WebsiteURL:   cfg.WebsiteURL,
		MagicLinkTTL: cfg.MagicLinkTTL,
	}, bus, sysLogger)
	webhookSvc := service.NewWebhookService(webhooks, webhooks, control, notifier, bus, sysLogger)
	bookingSvc := service.NewBookingService(users, bookings, bookings, notifier, bus, sysLogger)

	sched, err := scheduler.New(scheduler.Config{
		Tokens:     users,
		Deliveries: webhooks,
		Retention:  cfg.DeliveryRetention,
		Logger:     sysLogger,
	})
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("starting scheduler: %w", err)
	}
	defer func() {
		if err := sched.Stop(); err != nil {
			sysLogger.Warn("scheduler shutdown failed", "error", err)
		}
	}()

	apiSrv := api.New(controlSvc, webhookSvc, bookingSvc, cfg.ControlAPIKey, sysLogger)
	srv := server.New(apiSrv, web.New(bookingSvc, sysLogger), server.Options{
		Port:           cfg.Port,
		AllowedOrigins: cfg.AllowedOrigins(),
		Metrics:        tel.MetricsHandler(),
	}, sysLogger)

	sysLogger.Info("server ready", "url", fmt.Sprintf("http://localhost:%d", cfg.Port))
	if err := srv.Run(ctx); err != nil {
		sysLogger.Error("server stopped with error", "error", err)
		return err
	}
	return nil
}

// newResolver returns the control resolver and the chain used for booking
// events: the control subscriber first, then the static file, then the
// registry. The control subscriber is always present; with no endpoint its
// deliveries fail and are reported like any other failure.
func newResolver(cfg *config.AppConfig, static []webhook.Subscriber, store webhook.SubscriberLister) (*webhook.ControlResolver, webhook.ChainResolver) {
	control := webhook.NewControlResolver(cfg.ControlWebhookEndpoint, cfg.ControlWebhookSecret)
	return control, webhook.ChainResolver{
		control,
		webhook.NewStaticResolver(static),
		webhook.NewStoreResolver(store),
	}
}

// newNotifier builds the webhook notifier with an instrumented HTTP client
// bounded by WEBHOOK_TIMEOUT.
func newNotifier(cfg *config.AppConfig, resolver webhook.Resolver, opts ...webhook.Option) *webhook.Notifier {
	client := &http.Client{
		Timeout:   cfg.WebhookTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	opts = append([]webhook.Option{webhook.WithConcurrency(maxParallelDeliveries)}, opts...)
	return webhook.NewNotifier(resolver, webhook.NewHTTPDispatcher(client), opts...)
}

func shutdownTelemetry(tel *telemetry.Telemetry) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tel.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "telemetry shutdown: %v\n", err)
	}
}
