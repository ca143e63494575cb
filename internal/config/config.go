package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

const (
	DefaultAPIURL     = "http://127.0.0.1:7433"
	DefaultDBFileName = ".taskcollab.db"
	DefaultLogLevel   = "debug"

	StoreSQLite = "sqlite"
	StoreMemory = "memory"

	DefaultTokenTTL              = 24 * time.Hour
	DefaultPollInterval          = 30 * time.Second
	DefaultInvitationTTL         = 7 * 24 * time.Hour
	DefaultInvitationSweepPeriod = time.Hour

	configFileName           = ".taskcollab.toml"
	configDirEnvKey          = "TASKCOLLAB_CONFIG_DIR"
	trustProjectConfigEnvKey = "TASKCOLLAB_TRUST_PROJECT_CONFIG"
)

// Duration is a time.Duration that reads and writes as a Go duration string in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		d.Duration = 0
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// AuthConfig holds bearer token settings.
type AuthConfig struct {
	JWTSecret string   `toml:"jwt_secret"`
	TokenTTL  Duration `toml:"token_ttl"`
}

// NotificationsConfig holds client polling settings.
type NotificationsConfig struct {
	PollInterval Duration `toml:"poll_interval"`
}

// InvitationsConfig holds invitation lifetime settings.
type InvitationsConfig struct {
	TTL           Duration `toml:"ttl"`
	SweepInterval Duration `toml:"sweep_interval"`
}

// CORSConfig lists origins allowed to call the API from a browser.
type CORSConfig struct {
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Config defines runtime configuration for taskcollab.
type Config struct {
	APIURL                   string              `toml:"api_url"`
	DBPath                   string              `toml:"db_path"`
	Store                    string              `toml:"store"`
	LogLevel                 string              `toml:"log_level"`
	Auth                     AuthConfig          `toml:"auth"`
	Notifications            NotificationsConfig `toml:"notifications"`
	Invitations              InvitationsConfig   `toml:"invitations"`
	CORS                     CORSConfig          `toml:"cors"`
	TrustedProjectConfigPath string              `toml:"-"`
}

// envOverrides lists the environment variables that win over config files.
// Empty values leave the file value in place.
type envOverrides struct {
	APIURL             string        `env:"TASKCOLLAB_API_URL"`
	DBPath             string        `env:"TASKCOLLAB_DB"`
	Store              string        `env:"TASKCOLLAB_STORE"`
	JWTSecret          string        `env:"TASKCOLLAB_JWT_SECRET"`
	TokenTTL           time.Duration `env:"TASKCOLLAB_TOKEN_TTL"`
	PollInterval       time.Duration `env:"TASKCOLLAB_POLL_INTERVAL"`
	InvitationTTL      time.Duration `env:"TASKCOLLAB_INVITATION_TTL"`
	InvitationSweep    time.Duration `env:"TASKCOLLAB_INVITATION_SWEEP_INTERVAL"`
	CORSAllowedOrigins []string      `env:"TASKCOLLAB_CORS_ALLOWED_ORIGINS" envSeparator:","`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		APIURL:        DefaultAPIURL,
		DBPath:        "",
		Store:         StoreSQLite,
		LogLevel:      DefaultLogLevel,
		Auth:          AuthConfig{TokenTTL: Duration{DefaultTokenTTL}},
		Notifications: NotificationsConfig{PollInterval: Duration{DefaultPollInterval}},
		Invitations: InvitationsConfig{
			TTL:           Duration{DefaultInvitationTTL},
			SweepInterval: Duration{DefaultInvitationSweepPeriod},
		},
	}
}

func loadFile(path string, cfg *Config) error {
	_, err := loadFileIfExists(path, cfg)
	return err
}

func loadFileIfExists(path string, cfg *Config) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return false, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return true, nil
}

func overrideConfigPath() (string, bool) {
	dir := strings.TrimSpace(os.Getenv(configDirEnvKey))
	if dir == "" {
		return "", false
	}
	return filepath.Join(dir, configFileName), true
}

func trustProjectConfig() bool {
	raw := strings.TrimSpace(os.Getenv(trustProjectConfigEnvKey))
	if raw == "" {
		return false
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false
	}
	return value
}

// keySpec describes one settable config key: how to read it from a Config
// and how to normalise a value before it is written to a file.
type keySpec struct {
	name  string
	get   func(*Config) string
	parse func(string) (any, error)
}

var keySpecs = []keySpec{
	{name: "api_url", get: func(c *Config) string { return c.APIURL }},
	{name: "db_path", get: func(c *Config) string { return c.DBPath }},
	{name: "store", get: func(c *Config) string { return c.Store }, parse: parseStore},
	{name: "log_level", get: func(c *Config) string { return c.LogLevel }},
	{name: "auth.jwt_secret", get: func(c *Config) string { return c.Auth.JWTSecret }},
	{name: "auth.token_ttl", get: func(c *Config) string { return c.Auth.TokenTTL.String() }, parse: parsePositiveDuration},
	{name: "notifications.poll_interval", get: func(c *Config) string { return c.Notifications.PollInterval.String() }, parse: parsePositiveDuration},
	{name: "invitations.ttl", get: func(c *Config) string { return c.Invitations.TTL.String() }, parse: parsePositiveDuration},
	{name: "invitations.sweep_interval", get: func(c *Config) string { return c.Invitations.SweepInterval.String() }, parse: parsePositiveDuration},
	{name: "cors.allowed_origins", get: func(c *Config) string { return strings.Join(c.CORS.AllowedOrigins, ",") }, parse: func(v string) (any, error) { return splitCSV(v), nil }},
}

func lookupKey(name string) (keySpec, bool) {
	for _, spec := range keySpecs {
		if spec.name == name {
			return spec, true
		}
	}
	return keySpec{}, false
}

// AllowedKeys returns the settable config keys in documentation order.
func AllowedKeys() []string {
	names := make([]string, len(keySpecs))
	for i, spec := range keySpecs {
		names[i] = spec.name
	}
	return names
}

// IsAllowedKey reports whether key can be read or set.
func IsAllowedKey(key string) bool {
	_, ok := lookupKey(key)
	return ok
}

// Get returns the effective value of a config key.
func (c *Config) Get(key string) (string, error) {
	spec, ok := lookupKey(key)
	if !ok {
		return "", fmt.Errorf("unknown key: %s", key)
	}
	return spec.get(c), nil
}

// GlobalPath returns the path to the global config file.
func GlobalPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configFileName), nil
}

// ProjectPath returns the path to the project config file.
func ProjectPath() (string, error) {
	if path, ok := overrideConfigPath(); ok {
		return path, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, configFileName), nil
}

// SetKey reads the TOML file at path, sets key=value, and writes it back.
func SetKey(path, key, value string) error {
	spec, ok := lookupKey(key)
	if !ok {
		return fmt.Errorf("unknown key: %s", key)
	}

	data := make(map[string]any)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &data); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}

	var parsed any = strings.TrimSpace(value)
	if spec.parse != nil {
		p, err := spec.parse(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		parsed = p
	}
	if err := setNestedKey(data, strings.Split(key, "."), parsed); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(data)
}

// Load reads config from trusted files and applies env overrides.
func Load() (*Config, error) {
	cfg := Default()

	if overridePath, ok := overrideConfigPath(); ok {
		if err := loadFile(overridePath, &cfg); err != nil {
			return nil, err
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			if err := loadFile(filepath.Join(home, configFileName), &cfg); err != nil {
				return nil, err
			}
		}

		if trustProjectConfig() {
			if cwd, err := os.Getwd(); err == nil {
				projectPath := filepath.Join(cwd, configFileName)
				info, statErr := os.Stat(projectPath)
				switch {
				case statErr == nil && !info.IsDir():
					if err := loadFile(projectPath, &cfg); err != nil {
						return nil, err
					}
					cfg.TrustedProjectConfigPath = projectPath
				case statErr != nil && !os.IsNotExist(statErr):
					return nil, statErr
				}
			}
		}
	}

	if cfg.DBPath == "" {
		if cwd, err := os.Getwd(); err == nil {
			cfg.DBPath = filepath.Join(cwd, DefaultDBFileName)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	var overrides envOverrides
	if err := env.Parse(&overrides); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if overrides.APIURL != "" {
		c.APIURL = overrides.APIURL
	}
	if overrides.DBPath != "" {
		c.DBPath = overrides.DBPath
	}
	if overrides.Store != "" {
		c.Store = overrides.Store
	}
	if overrides.JWTSecret != "" {
		c.Auth.JWTSecret = overrides.JWTSecret
	}
	if overrides.TokenTTL > 0 {
		c.Auth.TokenTTL.Duration = overrides.TokenTTL
	}
	if overrides.PollInterval > 0 {
		c.Notifications.PollInterval.Duration = overrides.PollInterval
	}
	if overrides.InvitationTTL > 0 {
		c.Invitations.TTL.Duration = overrides.InvitationTTL
	}
	if overrides.InvitationSweep > 0 {
		c.Invitations.SweepInterval.Duration = overrides.InvitationSweep
	}
	if len(overrides.CORSAllowedOrigins) > 0 {
		c.CORS.AllowedOrigins = splitCSV(strings.Join(overrides.CORSAllowedOrigins, ","))
	}
	return nil
}

func (c *Config) normalize() {
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = DefaultLogLevel
	}
	c.Store = strings.ToLower(strings.TrimSpace(c.Store))
	if c.Store == "" {
		c.Store = StoreSQLite
	}
	if c.Auth.TokenTTL.Duration <= 0 {
		c.Auth.TokenTTL.Duration = DefaultTokenTTL
	}
	if c.Notifications.PollInterval.Duration <= 0 {
		c.Notifications.PollInterval.Duration = DefaultPollInterval
	}
	if c.Invitations.TTL.Duration <= 0 {
		c.Invitations.TTL.Duration = DefaultInvitationTTL
	}
	if c.Invitations.SweepInterval.Duration <= 0 {
		c.Invitations.SweepInterval.Duration = DefaultInvitationSweepPeriod
	}
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreSQLite, StoreMemory:
	default:
		return fmt.Errorf("invalid store %q (expected %s or %s)", c.Store, StoreSQLite, StoreMemory)
	}
	return nil
}

func parsePositiveDuration(value string) (any, error) {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return nil, fmt.Errorf("must be a positive duration")
	}
	return d.String(), nil
}

func parseStore(value string) (any, error) {
	value = strings.ToLower(value)
	if value != StoreSQLite && value != StoreMemory {
		return nil, fmt.Errorf("must be %s or %s", StoreSQLite, StoreMemory)
	}
	return value, nil
}

func setNestedKey(data map[string]any, parts []string, value any) error {
	if len(parts) == 0 {
		return fmt.Errorf("invalid config key")
	}
	if len(parts) == 1 {
		data[parts[0]] = value
		return nil
	}
	childRaw, ok := data[parts[0]]
	if !ok {
		child := map[string]any{}
		data[parts[0]] = child
		return setNestedKey(child, parts[1:], value)
	}
	child, ok := childRaw.(map[string]any)
	if !ok {
		return fmt.Errorf("cannot set nested key %q", strings.Join(parts, "."))
	}
	return setNestedKey(child, parts[1:], value)
}

func splitCSV(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
