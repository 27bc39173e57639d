package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/hashicorp-forge/notion-relay/pkg/tasks/adapters/notion"
)

// Environment variables that override configuration file values.
const (
	EnvAPIKey     = "API_KEY"
	EnvToken      = "NOTION_TOKEN"
	EnvDatabaseID = "NOTION_DATABASE_ID"
	EnvBaseURL    = "NOTION_BASE_URL"
	EnvPort       = "PORT"
	EnvLogLevel   = "LOG_LEVEL"
)

// Config contains the notion-relay configuration. It is loaded once at
// startup and passed to every component that needs it.
//
// Example configuration (HCL):
//
//	api_key     = env("API_KEY")
//	listen_addr = ":5000"
//
//	notion {
//	  token       = env("NOTION_TOKEN")
//	  database_id = "0123456789abcdef0123456789abcdef"
//	  timeout     = "30s"
//	}
type Config struct {
	// APIKey is the shared secret every request must present in the
	// X-API-Key header.
	APIKey string `hcl:"api_key,optional"`

	// ListenAddr is the address the HTTP server listens on.
	// Default: ":5000"
	ListenAddr string `hcl:"listen_addr,optional"`

	// LogLevel is one of trace, debug, info, warn, error.
	LogLevel string `hcl:"log_level,optional"`

	// LogJSON enables JSON log output.
	LogJSON bool `hcl:"log_json,optional"`

	// TimeZone is the IANA time zone used for the daily summary.
	TimeZone string `hcl:"time_zone,optional"`

	// MaxBodyBytes caps JSON request bodies.
	MaxBodyBytes int64 `hcl:"max_body_bytes,optional"`

	// MaxUploadBytes caps CSV uploads.
	MaxUploadBytes int64 `hcl:"max_upload_bytes,optional"`

	// ShutdownTimeout bounds graceful shutdown, e.g. "10s".
	ShutdownTimeout string `hcl:"shutdown_timeout,optional"`

	// ValidateSchema checks the task database's properties on startup.
	ValidateSchema *bool `hcl:"validate_schema,optional"`

	// DevMode serves from an in-memory task store instead of Notion.
	DevMode bool `hcl:"dev_mode,optional"`

	Notion  *Notion  `hcl:"notion,block"`
	Datadog *Datadog `hcl:"datadog,block"`
}

// Notion configures the Notion task provider.
type Notion struct {
	Token      string `hcl:"token,optional"`
	DatabaseID string `hcl:"database_id,optional"`
	BaseURL    string `hcl:"base_url,optional"`
	Version    string `hcl:"version,optional"`
	Timeout    string `hcl:"timeout,optional"`
	MaxRetries *int   `hcl:"max_retries,optional"`
	RetryDelay string `hcl:"retry_delay,optional"`
	TLSVerify  *bool  `hcl:"tls_verify,optional"`
}

// Datadog configures tracing.
type Datadog struct {
	Enabled bool   `hcl:"enabled,optional"`
	Service string `hcl:"service,optional"`
	Env     string `hcl:"env,optional"`
}

// Loader reads configuration from a filesystem and the environment.
type Loader struct {
	Fs     afero.Fs
	Getenv func(string) string

	// DevMode forces dev_mode on before validation.
	DevMode bool
}

// NewLoader creates a loader backed by the OS filesystem and environment.
func NewLoader() *Loader {
	return &Loader{
		Fs:     afero.NewOsFs(),
		Getenv: os.Getenv,
	}
}

// Load builds the configuration. Values come from, in increasing priority:
// defaults, the HCL file at configPath, the dotenv file at envPath, and the
// process environment. Empty paths are skipped and a missing dotenv file is
// not an error. The result is validated.
func (l *Loader) Load(configPath, envPath string) (*Config, error) {
	dotenv, err := l.readDotEnv(envPath)
	if err != nil {
		return nil, err
	}

	lookup := func(key string) string {
		if v := l.Getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	}

	cfg := &Config{}
	if configPath != "" {
		src, err := afero.ReadFile(l.Fs, configPath)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := hclsimple.Decode(configPath, src, evalContext(lookup), cfg); err != nil {
			return nil, fmt.Errorf("error decoding config file: %w", err)
		}
	}

	cfg.applyEnv(lookup)
	if l.DevMode {
		cfg.DevMode = true
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (l *Loader) readDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return map[string]string{}, nil
	}

	f, err := l.Fs.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error opening env file: %w", err)
	}
	defer f.Close()

	values, err := godotenv.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("error parsing env file: %w", err)
	}
	return values, nil
}

// evalContext exposes env("NAME") to configuration files.
func evalContext(lookup func(string) string) *hcl.EvalContext {
	return &hcl.EvalContext{
		Functions: map[string]function.Function{
			"env": function.New(&function.Spec{
				Params: []function.Parameter{
					{Name: "name", Type: cty.String},
				},
				Type: function.StaticReturnType(cty.String),
				Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
					return cty.StringVal(lookup(args[0].AsString())), nil
				},
			}),
		},
	}
}

func (c *Config) applyEnv(lookup func(string) string) {
	if c.Notion == nil {
		c.Notion = &Notion{}
	}

	if v := lookup(EnvAPIKey); v != "" {
		c.APIKey = v
	}
	if v := lookup(EnvToken); v != "" {
		c.Notion.Token = v
	}
	if v := lookup(EnvDatabaseID); v != "" {
		c.Notion.DatabaseID = v
	}
	if v := lookup(EnvBaseURL); v != "" {
		c.Notion.BaseURL = v
	}
	if v := lookup(EnvPort); v != "" {
		c.ListenAddr = ":" + v
	}
	if v := lookup(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = ":5000"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.TimeZone == "" {
		c.TimeZone = "UTC"
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = 1 << 20
	}
	if c.MaxUploadBytes == 0 {
		c.MaxUploadBytes = 10 << 20
	}
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "10s"
	}
	if c.ValidateSchema == nil {
		v := true
		c.ValidateSchema = &v
	}

	if c.Notion == nil {
		c.Notion = &Notion{}
	}
	if c.DevMode && c.Notion.DatabaseID == "" {
		c.Notion.DatabaseID = "dev"
	}
	if c.Notion.BaseURL == "" {
		c.Notion.BaseURL = notion.DefaultBaseURL
	}
	if c.Notion.Version == "" {
		c.Notion.Version = notion.DefaultVersion
	}
	if c.Notion.Timeout == "" {
		c.Notion.Timeout = "30s"
	}
	if c.Notion.MaxRetries == nil {
		v := 3
		c.Notion.MaxRetries = &v
	}
	if c.Notion.RetryDelay == "" {
		c.Notion.RetryDelay = "500ms"
	}

	if c.Datadog == nil {
		c.Datadog = &Datadog{}
	}
	if c.Datadog.Service == "" {
		c.Datadog.Service = "notion-relay"
	}
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.APIKey == "" {
		result = multierror.Append(result,
			fmt.Errorf("api_key is required (or set %s)", EnvAPIKey))
	}
	if c.ListenAddr == "" {
		result = multierror.Append(result, fmt.Errorf("listen_addr is required"))
	}
	if hclog.LevelFromString(c.LogLevel) == hclog.NoLevel {
		result = multierror.Append(result,
			fmt.Errorf("invalid log_level %q", c.LogLevel))
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		result = multierror.Append(result,
			fmt.Errorf("invalid time_zone %q: %w", c.TimeZone, err))
	}
	if c.MaxBodyBytes <= 0 {
		result = multierror.Append(result,
			fmt.Errorf("max_body_bytes must be positive, got: %d", c.MaxBodyBytes))
	}
	if c.MaxUploadBytes <= 0 {
		result = multierror.Append(result,
			fmt.Errorf("max_upload_bytes must be positive, got: %d", c.MaxUploadBytes))
	}
	if err := validateDuration("shutdown_timeout", c.ShutdownTimeout); err != nil {
		result = multierror.Append(result, err)
	}

	if c.Notion == nil {
		result = multierror.Append(result, fmt.Errorf("notion block is required"))
		return result.ErrorOrNil()
	}

	if !c.DevMode {
		if c.Notion.Token == "" {
			result = multierror.Append(result,
				fmt.Errorf("notion.token is required (or set %s)", EnvToken))
		}
		if c.Notion.DatabaseID == "" {
			result = multierror.Append(result,
				fmt.Errorf("notion.database_id is required (or set %s)", EnvDatabaseID))
		}
	}
	if u, err := url.Parse(c.Notion.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		result = multierror.Append(result,
			fmt.Errorf("notion.base_url must be an http or https URL, got: %q", c.Notion.BaseURL))
	}
	if err := validateDuration("notion.timeout", c.Notion.Timeout); err != nil {
		result = multierror.Append(result, err)
	}
	if err := validateDuration("notion.retry_delay", c.Notion.RetryDelay); err != nil {
		result = multierror.Append(result, err)
	}
	if c.Notion.MaxRetries != nil && *c.Notion.MaxRetries < 0 {
		result = multierror.Append(result,
			fmt.Errorf("notion.max_retries must be non-negative, got: %d", *c.Notion.MaxRetries))
	}

	return result.ErrorOrNil()
}

func validateDuration(name, v string) error {
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	if d <= 0 {
		return fmt.Errorf("%s must be positive, got: %s", name, v)
	}
	return nil
}

// Location returns the configured time zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ShutdownTimeoutDuration returns the graceful shutdown timeout.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// SchemaValidationEnabled reports whether the database schema is checked on
// startup.
func (c *Config) SchemaValidationEnabled() bool {
	return !c.DevMode && (c.ValidateSchema == nil || *c.ValidateSchema)
}

// LoggerOptions returns hclog options for the configured log settings.
func (c *Config) LoggerOptions(name string) *hclog.LoggerOptions {
	return &hclog.LoggerOptions{
		Name:       name,
		Level:      hclog.LevelFromString(c.LogLevel),
		JSONFormat: c.LogJSON,
	}
}

// ProviderConfig converts the notion block into a provider configuration.
// The configuration must have been validated.
func (c *Config) ProviderConfig() *notion.Config {
	n := c.Notion
	timeout, _ := time.ParseDuration(n.Timeout)
	retryDelay, _ := time.ParseDuration(n.RetryDelay)

	maxRetries := 3
	if n.MaxRetries != nil {
		maxRetries = *n.MaxRetries
	}

	return &notion.Config{
		BaseURL:    n.BaseURL,
		Token:      n.Token,
		Version:    n.Version,
		TLSVerify:  n.TLSVerify,
		Timeout:    timeout,
		MaxRetries: maxRetries,
		RetryDelay: retryDelay,
		Trace:      c.Datadog != nil && c.Datadog.Enabled,
	}
}
