// Package config loads the service configuration.
//
// Sources, lowest precedence first: flag defaults, an optional YAML file,
// ACCOUNT_* environment variables, explicitly set flags.
package config

import (
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// EnvPrefix prefixes every environment override, e.g. ACCOUNT_HTTP_PORT.
const EnvPrefix = "ACCOUNT_"

type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Database Database `koanf:"database"`
	Redis    Redis    `koanf:"redis"`
	Auth     Auth     `koanf:"auth"`
	Log      Log      `koanf:"log"`
	Metrics  Metrics  `koanf:"metrics"`
}

type HTTP struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type Database struct {
	// Driver is "sqlite" or "postgres".
	Driver         string        `koanf:"driver"`
	Path           string        `koanf:"path"`
	DSN            string        `koanf:"dsn"`
	AutoMigrate    bool          `koanf:"auto_migrate"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
	Debug          bool          `koanf:"debug"`
}

// Redis enables the account lookup cache when Addr is set.
type Redis struct {
	Addr      string        `koanf:"addr"`
	Password  string        `koanf:"password"`
	DB        int           `koanf:"db"`
	TTL       time.Duration `koanf:"ttl"`
	Namespace string        `koanf:"namespace"`
}

type Auth struct {
	BcryptCost        int `koanf:"bcrypt_cost"`
	MinPasswordLength int `koanf:"min_password_length"`
}

type Log struct {
	Level  string `koanf:"level"`
	Pretty bool   `koanf:"pretty"`
}

type Metrics struct {
	Enabled bool `koanf:"enabled"`
}

// RegisterFlags adds the configuration flags to fs. Flag defaults are the
// configuration defaults; keys use the koanf path as the flag name.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a YAML config file")
	fs.Int("http.port", 3000, "HTTP listen port")
	fs.String("database.driver", "sqlite", "database driver: sqlite or postgres")
	fs.String("database.path", "userData.db", "sqlite database file")
	fs.String("database.dsn", "", "postgres connection string")
	fs.Bool("database.auto_migrate", true, "create the user table on startup")
	fs.String("redis.addr", "", "Redis address for the lookup cache; empty disables it")
	fs.Int("auth.bcrypt_cost", 10, "bcrypt work factor")
	fs.String("log.level", "info", "log level: debug, info, warn, error")
	fs.Bool("log.pretty", false, "text logs instead of JSON")
	fs.Bool("metrics.enabled", true, "expose /metrics")
}

// Load builds the configuration from fs (flags registered by RegisterFlags),
// the file named by the --config flag, and the environment.
func Load(fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path, err := fs.GetString("config"); err == nil && path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", path)
		}
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: envKey,
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	// Changed flags override everything; unchanged ones only fill missing keys.
	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return nil, errors.Wrap(err, "load flags failed")
	}
	k.Delete("config")

	cfg := &Config{}
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
		},
	}); err != nil {
		return nil, errors.Wrap(err, "unmarshal config failed")
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKey maps ACCOUNT_HTTP_PORT to http.port and ACCOUNT_AUTH_BCRYPT_COST to
// auth.bcrypt_cost: the first segment names the section, the rest the field.
func envKey(k, v string) (string, any) {
	k = strings.ToLower(strings.TrimPrefix(k, EnvPrefix))
	section, field, ok := strings.Cut(k, "_")
	if !ok {
		return k, v
	}
	return section + "." + field, v
}

func (c *Config) applyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 3000
	}
	if c.HTTP.ReadTimeout == 0 {
		c.HTTP.ReadTimeout = 10 * time.Second
	}
	if c.HTTP.WriteTimeout == 0 {
		c.HTTP.WriteTimeout = 10 * time.Second
	}
	if c.HTTP.IdleTimeout == 0 {
		c.HTTP.IdleTimeout = 60 * time.Second
	}
	if c.HTTP.ShutdownTimeout == 0 {
		c.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Path == "" {
		c.Database.Path = "userData.db"
	}
	if c.Database.ConnectTimeout == 0 {
		c.Database.ConnectTimeout = 30 * time.Second
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = 5 * time.Minute
	}
	if c.Redis.Namespace == "" {
		c.Redis.Namespace = "account"
	}
	if c.Auth.BcryptCost == 0 {
		c.Auth.BcryptCost = 10
	}
	if c.Auth.MinPasswordLength == 0 {
		c.Auth.MinPasswordLength = 5
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return errors.Errorf("invalid http.port %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case "sqlite":
	case "postgres":
		if c.Database.DSN == "" {
			return errors.New("database.dsn is required for the postgres driver")
		}
	default:
		return errors.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	if c.Auth.MinPasswordLength < 0 {
		return errors.Errorf("invalid auth.min_password_length %d", c.Auth.MinPasswordLength)
	}
	return nil
}
