package cli

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aaronromeo/mailtrim/internal/announcer"
	"github.com/aaronromeo/mailtrim/internal/cleanup"
	"github.com/aaronromeo/mailtrim/internal/config"
	"github.com/aaronromeo/mailtrim/internal/credential"
	"github.com/aaronromeo/mailtrim/internal/imap"
	"github.com/aaronromeo/mailtrim/internal/imap/sessionmanager"
	"github.com/aaronromeo/mailtrim/internal/logging"
	"github.com/aaronromeo/mailtrim/internal/telemetry"
	"github.com/spf13/cobra"
)

const retryInterval = time.Second

// openCredentialStore is replaced in tests.
var openCredentialStore = credential.Open

// runtime holds everything a command needs to run a workflow.
type runtime struct {
	cfg       config.Config
	logger    *slog.Logger
	providers *telemetry.Providers
	service   *cleanup.Service
}

func newRuntime(cmd *cobra.Command, requireIMAP bool) (*runtime, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if requireIMAP {
		if err := config.ValidateIMAP(cfg); err != nil {
			return nil, err
		}
	}

	providers, err := telemetry.Setup(commandContext(cmd), cfg.Telemetry)
	if err != nil {
		return nil, err
	}
	var bridge = providers.LoggerProvider
	if !providers.Enabled() {
		bridge = nil
	}
	logger, err := logging.New(cfg.Logging, cmd.ErrOrStderr(), bridge)
	if err != nil {
		return nil, errors.Join(err, providers.Shutdown(commandContext(cmd)))
	}

	service, err := cleanup.New(newDialer(cfg),
		cleanup.WithLogger(logger),
		cleanup.WithFolders(cleanup.Folders{
			Inbox:      cfg.Folders.Inbox,
			Quarantine: cfg.Folders.Quarantine,
			Trash:      cfg.Folders.Trash,
		}),
		cleanup.WithAnnouncer(announcer.New(announcer.WithWebhookURL(cfg.WebhookURL))),
		cleanup.WithTracerProvider(providers.TracerProvider),
		cleanup.WithMeterProvider(providers.MeterProvider),
	)
	if err != nil {
		return nil, errors.Join(err, providers.Shutdown(commandContext(cmd)))
	}

	return &runtime{cfg: cfg, logger: logger, providers: providers, service: service}, nil
}

func (r *runtime) Close(ctx context.Context) {
	if err := r.providers.Shutdown(ctx); err != nil {
		r.logger.Warn("telemetry shutdown failed", slog.Any("error", err))
	}
}

// credentials resolves the account from config and the password from the
// environment, falling back to the OS keyring.
func (r *runtime) credentials() (cleanup.Credentials, error) {
	user := strings.TrimSpace(r.cfg.IMAP.User)
	if user == "" {
		return cleanup.Credentials{}, &cleanup.Error{
			Kind: cleanup.KindAuth,
			Op:   "resolve credentials",
			Err:  errors.New("IMAP user is required via imap.user or MAILTRIM_IMAP_USER"),
		}
	}
	if r.cfg.IMAP.Pass != "" {
		return cleanup.Credentials{User: user, Password: r.cfg.IMAP.Pass}, nil
	}
	store, err := openCredentialStore()
	if err != nil {
		return cleanup.Credentials{}, &cleanup.Error{Kind: cleanup.KindAuth, Op: "open keyring", Err: err}
	}
	pass, err := store.Get(user)
	if err != nil {
		return cleanup.Credentials{}, &cleanup.Error{
			Kind: cleanup.KindAuth,
			Op:   "resolve credentials",
			Err:  fmt.Errorf("%w; run `mailtrim login` or set MAILTRIM_IMAP_PASS", err),
		}
	}
	return cleanup.Credentials{User: user, Password: pass}, nil
}

func newDialer(cfg config.Config) cleanup.Dialer {
	return imap.NewDialer(
		sessionmanager.WithAddr(cfg.IMAP.Addr()),
		sessionmanager.WithTLSConfig(&tls.Config{
			ServerName:         cfg.IMAP.Host,
			InsecureSkipVerify: cfg.IMAP.InsecureSkipVerify, //nolint:gosec
		}),
		sessionmanager.WithRetries(cfg.IMAP.ConnectRetries, retryInterval),
	)
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	if err := config.LoadEnvFile(config.DefaultEnvFile); err != nil {
		return config.Config{}, err
	}
	cfgPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, err
	}
	if strings.TrimSpace(cfgPath) == "" {
		cfgPath = os.Getenv(config.EnvConfigPath)
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, err
	}
	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
