package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aaronromeo/mailtrim/internal/matchers"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath   = "MAILTRIM_CONFIG"
	envIMAPHost     = "MAILTRIM_IMAP_HOST"
	envIMAPPort     = "MAILTRIM_IMAP_PORT"
	envIMAPUser     = "MAILTRIM_IMAP_USER"
	envIMAPPass     = "MAILTRIM_IMAP_PASS"
	envWebhookURL   = "MAILTRIM_WEBHOOK_URL"
	envOTLPEndpoint = "MAILTRIM_OTLP_ENDPOINT"
	envOTLPHeaders  = "MAILTRIM_OTLP_HEADERS"
	envListen       = "MAILTRIM_LISTEN"

	DefaultEnvFile = ".env"
	defaultPort    = 993
	defaultListen  = ":8080"
	defaultRetries = 2
)

// Config holds the settings for every command. Secrets come from the
// environment or the keyring, never from the YAML file.
type Config struct {
	IMAP      IMAP      `yaml:"imap"`
	Folders   Folders   `yaml:"folders"`
	Rules     []Rule    `yaml:"rules"`
	Server    Server    `yaml:"server"`
	Logging   Logging   `yaml:"logging"`
	Telemetry Telemetry `yaml:"telemetry"`

	WebhookURL string `yaml:"-"`
}

type IMAP struct {
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	User               string `yaml:"user"`
	Pass               string `yaml:"-"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
	ConnectRetries     int    `yaml:"connect_retries"`
}

// Addr returns host:port.
func (i IMAP) Addr() string {
	return fmt.Sprintf("%s:%d", i.Host, i.Port)
}

type Folders struct {
	Inbox      string `yaml:"inbox"`
	Quarantine string `yaml:"quarantine"`
	Trash      string `yaml:"trash"`
}

// Rule describes a single cleanup rule.
type Rule struct {
	Name      string   `yaml:"name"`
	Domains   []string `yaml:"domains"`
	Keywords  []string `yaml:"keywords"`
	OlderThan string   `yaml:"older_than"`
	Action    string   `yaml:"action"`
	Folder    string   `yaml:"folder"`
}

// Matcher converts the rule into its normalised classifier form. An empty
// older_than leaves the age clause off; "0d" matches anything dated before now.
func (r Rule) Matcher() (matchers.Rule, error) {
	rule := matchers.NewRule(r.Domains, r.Keywords)
	if strings.TrimSpace(r.OlderThan) == "" {
		return rule, nil
	}
	age, err := ParseRelativeDuration(r.OlderThan)
	if err != nil {
		return matchers.Rule{}, fmt.Errorf("invalid older_than: %w", err)
	}
	return rule.WithAge(age), nil
}

type Server struct {
	Listen string `yaml:"listen"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Telemetry struct {
	// Exporter is one of "none", "stdout" or "otlp".
	Exporter    string            `yaml:"exporter"`
	Endpoint    string            `yaml:"endpoint"`
	Headers     map[string]string `yaml:"headers"`
	ServiceName string            `yaml:"service_name"`
}

// ParseRelativeDuration accepts day counts such as "30d" as well as Go durations.
func ParseRelativeDuration(value string) (time.Duration, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, nil
	}
	if strings.HasSuffix(trimmed, "d") {
		daysValue := strings.TrimSuffix(trimmed, "d")
		days, err := strconv.ParseFloat(strings.TrimSpace(daysValue), 64)
		if err != nil {
			return 0, err
		}
		if days < 0 {
			return 0, errors.New("duration must be positive")
		}
		return time.Duration(days * float64(24*time.Hour)), nil
	}
	dur, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0, err
	}
	if dur < 0 {
		return 0, errors.New("duration must be positive")
	}
	return dur, nil
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		IMAP: IMAP{
			Port:           defaultPort,
			ConnectRetries: defaultRetries,
		},
		Server:    Server{Listen: defaultListen},
		Logging:   Logging{Level: "info", Format: "json"},
		Telemetry: Telemetry{Exporter: "none", ServiceName: "mailtrim"},
	}
}

// Load reads configuration from a YAML file on top of the defaults and applies
// environment overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadEnvFile loads variables from path when the file exists.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

func applyEnv(cfg *Config) error {
	if host := strings.TrimSpace(os.Getenv(envIMAPHost)); host != "" {
		cfg.IMAP.Host = host
	}
	if portRaw := strings.TrimSpace(os.Getenv(envIMAPPort)); portRaw != "" {
		port, err := strconv.Atoi(portRaw)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", envIMAPPort, err)
		}
		cfg.IMAP.Port = port
	}
	if user := strings.TrimSpace(os.Getenv(envIMAPUser)); user != "" {
		cfg.IMAP.User = user
	}
	if pass := os.Getenv(envIMAPPass); pass != "" {
		cfg.IMAP.Pass = pass
	}
	if listen := strings.TrimSpace(os.Getenv(envListen)); listen != "" {
		cfg.Server.Listen = listen
	}
	cfg.WebhookURL = strings.TrimSpace(os.Getenv(envWebhookURL))
	if endpoint := strings.TrimSpace(os.Getenv(envOTLPEndpoint)); endpoint != "" {
		cfg.Telemetry.Endpoint = endpoint
		if cfg.Telemetry.Exporter == "" || cfg.Telemetry.Exporter == "none" {
			cfg.Telemetry.Exporter = "otlp"
		}
	}
	if raw := strings.TrimSpace(os.Getenv(envOTLPHeaders)); raw != "" {
		headers, err := parseHeaders(raw)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", envOTLPHeaders, err)
		}
		cfg.Telemetry.Headers = headers
	}
	return nil
}

// parseHeaders reads the OTLP "k1=v1,k2=v2" header format.
func parseHeaders(raw string) (map[string]string, error) {
	headers := map[string]string{}
	for _, pair := range strings.Split(raw, ",") {
		if strings.TrimSpace(pair) == "" {
			continue
		}
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("malformed header %q", pair)
		}
		headers[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return headers, nil
}

// ValidateIMAP ensures the connection settings needed to dial are present.
func ValidateIMAP(cfg Config) error {
	missing := []string{}
	if strings.TrimSpace(cfg.IMAP.Host) == "" {
		missing = append(missing, envIMAPHost)
	}
	if cfg.IMAP.Port <= 0 {
		missing = append(missing, envIMAPPort)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required IMAP settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Validate performs basic validation on non-secret config.
func Validate(cfg Config) error {
	if cfg.IMAP.ConnectRetries < 0 {
		return errors.New("imap.connect_retries must not be negative")
	}
	switch cfg.Logging.Format {
	case "", "json", "text":
	default:
		return fmt.Errorf("unsupported logging.format %q", cfg.Logging.Format)
	}
	switch cfg.Telemetry.Exporter {
	case "", "none", "stdout":
	case "otlp":
		if strings.TrimSpace(cfg.Telemetry.Endpoint) == "" {
			return errors.New("telemetry.endpoint is required for the otlp exporter")
		}
	default:
		return fmt.Errorf("unsupported telemetry.exporter %q", cfg.Telemetry.Exporter)
	}
	for i, rule := range cfg.Rules {
		matcher, err := rule.Matcher()
		if err != nil {
			return fmt.Errorf("rule %d: %w", i+1, err)
		}
		if matcher.IsEmpty() {
			return fmt.Errorf("rule %d must define domains, keywords or older_than", i+1)
		}
	}
	return nil
}

// Summary returns a concise config summary for validation runs.
func Summary(cfg Config) string {
	reportingStatus := "disabled"
	if cfg.WebhookURL != "" {
		reportingStatus = "enabled"
	}
	return fmt.Sprintf(
		"Config summary\n"+
			"- imap: %s\n"+
			"- rules: %d\n"+
			"- quarantine folder: %s\n"+
			"- reporting webhook: %s\n"+
			"- telemetry: %s",
		defaultIfEmpty(cfg.IMAP.Host, "(not set)"),
		len(cfg.Rules),
		defaultIfEmpty(cfg.Folders.Quarantine, "(default)"),
		reportingStatus,
		defaultIfEmpty(cfg.Telemetry.Exporter, "none"),
	)
}

func defaultIfEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
