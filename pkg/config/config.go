// Package config loads configs/config.yml and the secrets kept in the
// environment (or a .env file).
package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	Port      string    `mapstructure:"port"`
	HTTP      HTTP      `mapstructure:"http"`
	DB        DB        `mapstructure:"db"`
	CoinGecko CoinGecko `mapstructure:"coingecko"`
	Wallet    Wallet    `mapstructure:"wallet"`
	Mail      Mail      `mapstructure:"mail"`
}

type HTTP struct {
	AllowOrigins    []string      `mapstructure:"allow_origins"`
	SessionToken    string        `mapstructure:"session_token"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DB struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type CoinGecko struct {
	Enabled  bool          `mapstructure:"enabled"`
	BaseURL  string        `mapstructure:"base_url"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type Wallet struct {
	PendingTimeout time.Duration     `mapstructure:"pending_timeout"`
	ExpiryInterval time.Duration     `mapstructure:"expiry_interval"`
	PINHash        string            `mapstructure:"pin_hash"`
	PIN            string            `mapstructure:"pin"`
	PrivateKey     string            `mapstructure:"private_key"`
	Fees           map[string]string `mapstructure:"fees"`
	Seed           map[string]string `mapstructure:"seed"`
}

type Mail struct {
	// Provider is "mailjet", "smtp" or empty to disable receipts.
	Provider string  `mapstructure:"provider"`
	To       string  `mapstructure:"to"`
	From     string  `mapstructure:"from"`
	FromName string  `mapstructure:"from_name"`
	Mailjet  Mailjet `mapstructure:"mailjet"`
	SMTP     SMTP    `mapstructure:"smtp"`
}

type Mailjet struct {
	APIKey    string `mapstructure:"api_key"`
	SecretKey string `mapstructure:"secret_key"`
}

type SMTP struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

var secrets = map[string]string{
	"port":                    "PORT",
	"db.password":             "DB_PASSWORD",
	"coingecko.api_key":       "COINGECKO_API_KEY",
	"wallet.pin_hash":         "WALLET_PIN_HASH",
	"wallet.pin":              "WALLET_PIN",
	"wallet.private_key":      "WALLET_PRIVATE_KEY",
	"http.session_token":      "WALLET_SESSION_TOKEN",
	"mail.mailjet.api_key":    "MAILJET_API_KEY",
	"mail.mailjet.secret_key": "MAILJET_SECRET_KEY",
	"mail.smtp.password":      "SMTP_PASSWORD",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8000")
	v.SetDefault("http.allow_origins", []string{"*"})
	v.SetDefault("http.shutdown_timeout", 10*time.Second)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.username", "postgres")
	v.SetDefault("db.dbname", "wallet")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("coingecko.base_url", "https://api.coingecko.com/api/v3")
	v.SetDefault("coingecko.timeout", 10*time.Second)
	v.SetDefault("coingecko.cache_ttl", 10*time.Minute)
	v.SetDefault("wallet.pending_timeout", 5*time.Minute)
	v.SetDefault("wallet.expiry_interval", 30*time.Second)
	v.SetDefault("mail.from_name", "Wallet")
	v.SetDefault("mail.smtp.port", 587)
}

// Load reads config.yml from dir. A missing file or .env is not an error;
// defaults and the environment still apply.
func Load(dir string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Infof("no .env file loaded: %s", err)
	}

	v := viper.New()
	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetConfigType("yml")
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range secrets {
		if err := v.BindEnv(key, env); err != nil {
			return nil, errors.Wrapf(err, "bind %s", env)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
		logrus.Warnf("no config file in %s, using defaults", dir)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Wallet.PINHash == "" && c.Wallet.PIN == "" {
		return errors.New("config: WALLET_PIN_HASH or WALLET_PIN is required")
	}
	if c.Wallet.PendingTimeout < 0 {
		return errors.New("config: wallet.pending_timeout must not be negative")
	}
	if c.Wallet.ExpiryInterval <= 0 {
		return errors.New("config: wallet.expiry_interval must be positive")
	}
	switch c.Mail.Provider {
	case "":
	case "mailjet":
		if c.Mail.Mailjet.APIKey == "" || c.Mail.Mailjet.SecretKey == "" {
			return errors.New("config: MAILJET_API_KEY and MAILJET_SECRET_KEY are required for mailjet")
		}
	case "smtp":
		if c.Mail.SMTP.Host == "" {
			return errors.New("config: mail.smtp.host is required for smtp")
		}
	default:
		return errors.Errorf("config: unknown mail provider %q", c.Mail.Provider)
	}
	if c.Mail.Provider != "" && (c.Mail.To == "" || c.Mail.From == "") {
		return errors.New("config: mail.to and mail.from are required to send receipts")
	}
	return nil
}
