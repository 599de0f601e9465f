package config

import (
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
)

// Configはアプリ全体の設定。ローカル開発はデフォルトで動く。
type Config struct {
	Port string `envconfig:"PORT" default:"8080"`

	// DATABASE_URL を指定すると個別のPOSTGRES_*より優先される
	DatabaseURL      string `envconfig:"DATABASE_URL"`
	PostgresHost     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	PostgresPort     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	PostgresUser     string `envconfig:"POSTGRES_USER" default:"postgres"`
	PostgresPassword string `envconfig:"POSTGRES_PASSWORD" default:"postgres"`
	PostgresDB       string `envconfig:"POSTGRES_DB" default:"sweetshop"`
	PostgresSSLMode  string `envconfig:"POSTGRES_SSLMODE" default:"disable"`

	JWTSecret   string `envconfig:"JWT_SECRET" default:"dev_secret_change_me"`
	AccessTTL   int    `envconfig:"ACCESS_TOKEN_TTL_MINUTES" default:"1440"`
	FrontendURL string `envconfig:"FE_URL" default:"http://localhost:5173"`
	GoEnv       string `envconfig:"GO_ENV" default:"development"`
}

// Loadは環境変数から設定を読む。
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, errors.Wrap(err, "process env config")
	}
	return cfg, nil
}
