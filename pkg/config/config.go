package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	BackendRelational = "relational"
	BackendDocument   = "document"

	BlobRedis  = "redis"
	BlobMemory = "memory"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Storage      StorageConfig
	Ledger       LedgerConfig
	Plan         PlanConfig
	Stock        StockConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Storage.validate(cfg.Redis); err != nil {
		return nil, err
	}
	if cfg.Storage.Backend == BackendRelational {
		if err := cfg.DB.ensureDSN(); err != nil {
			return nil, err
		}
	}
	if err := cfg.Stock.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SITESTOCK_APP_ENV" required:"true"`
	Port         string `envconfig:"SITESTOCK_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SITESTOCK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SITESTOCK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SITESTOCK_DB_DSN"`
	Driver string `envconfig:"SITESTOCK_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SITESTOCK_DB_HOST"`
	LegacyPort     int    `envconfig:"SITESTOCK_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SITESTOCK_DB_USER"`
	LegacyPassword string `envconfig:"SITESTOCK_DB_PASSWORD"`
	LegacyName     string `envconfig:"SITESTOCK_DB_NAME"`
	LegacySSLMode  string `envconfig:"SITESTOCK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SITESTOCK_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"SITESTOCK_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"SITESTOCK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SITESTOCK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the relational adapter should use the SQLite dialector.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"SITESTOCK_REDIS_URL"`
	Address      string        `envconfig:"SITESTOCK_REDIS_ADDR"`
	Password     string        `envconfig:"SITESTOCK_REDIS_PASSWORD"`
	DB           int           `envconfig:"SITESTOCK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SITESTOCK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SITESTOCK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SITESTOCK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SITESTOCK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SITESTOCK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any Redis endpoint is configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Address != ""
}

type StorageConfig struct {
	Backend      string `envconfig:"SITESTOCK_STORAGE_BACKEND" default:"relational"`
	DocumentBlob string `envconfig:"SITESTOCK_STORAGE_DOCUMENT_BLOB" default:"memory"`
	DocumentKey  string `envconfig:"SITESTOCK_STORAGE_DOCUMENT_KEY" default:"database_json"`
	// MaxUpdateRetries bounds optimistic retries when the Redis blob is contended.
	MaxUpdateRetries int `envconfig:"SITESTOCK_STORAGE_MAX_UPDATE_RETRIES" default:"5"`
}

func (s *StorageConfig) validate(redis RedisConfig) error {
	s.Backend = strings.ToLower(strings.TrimSpace(s.Backend))
	s.DocumentBlob = strings.ToLower(strings.TrimSpace(s.DocumentBlob))
	switch s.Backend {
	case BackendRelational:
		return nil
	case BackendDocument:
	default:
		return fmt.Errorf("%s must be %q or %q, got %q", EnvBackend, BackendRelational, BackendDocument, s.Backend)
	}
	switch s.DocumentBlob {
	case BlobMemory:
		return nil
	case BlobRedis:
		if !redis.Enabled() {
			return fmt.Errorf("%s=%s requires %s", EnvBlob, BlobRedis, EnvRedis)
		}
		return nil
	default:
		return fmt.Errorf("%s must be %q or %q, got %q", EnvBlob, BlobRedis, BlobMemory, s.DocumentBlob)
	}
}

type LedgerConfig struct {
	PlaceholderActors []string `envconfig:"SITESTOCK_LEDGER_PLACEHOLDER_ACTORS" default:"Выберите сотрудника..."`
	SystemActor       string   `envconfig:"SITESTOCK_LEDGER_SYSTEM_ACTOR" default:"system"`
	// AllowedActors restricts who may record receipts. Empty allows anyone.
	AllowedActors []string `envconfig:"SITESTOCK_LEDGER_ALLOWED_ACTORS"`
}

type PlanConfig struct {
	HeaderRows  int   `envconfig:"SITESTOCK_PLAN_HEADER_ROWS" default:"1"`
	MaxUploadMB int64 `envconfig:"SITESTOCK_PLAN_MAX_UPLOAD_MB" default:"10"`
}

type StockConfig struct {
	FetchTimeout time.Duration `envconfig:"SITESTOCK_STOCK_FETCH_TIMEOUT" default:"20s"`
	FetchRetries uint64        `envconfig:"SITESTOCK_STOCK_FETCH_RETRIES" default:"2"`
	RetryBackoff time.Duration `envconfig:"SITESTOCK_STOCK_RETRY_BACKOFF" default:"500ms"`
	MaxBytes     int64         `envconfig:"SITESTOCK_STOCK_MAX_BYTES" default:"33554432"`
	Threshold    int           `envconfig:"SITESTOCK_STOCK_MATCH_THRESHOLD" default:"80"`
	MinColumns   int           `envconfig:"SITESTOCK_STOCK_MIN_COLUMNS" default:"17"`
	NameColumn   int           `envconfig:"SITESTOCK_STOCK_NAME_COLUMN" default:"1"`
	StoreColumn  int           `envconfig:"SITESTOCK_STOCK_STORE_COLUMN" default:"12"`
	QtyColumn    int           `envconfig:"SITESTOCK_STOCK_QTY_COLUMN" default:"13"`
	ShelfColumn  int           `envconfig:"SITESTOCK_STOCK_SHELF_COLUMN" default:"16"`
}

func (s StockConfig) validate() error {
	if s.Threshold < 0 || s.Threshold > 100 {
		return fmt.Errorf("stock match threshold must be within 0..100, got %d", s.Threshold)
	}
	for name, col := range map[string]int{
		"name":  s.NameColumn,
		"store": s.StoreColumn,
		"qty":   s.QtyColumn,
		"shelf": s.ShelfColumn,
	} {
		if col < 0 {
			return fmt.Errorf("stock %s column must be non-negative, got %d", name, col)
		}
		if col >= s.MinColumns {
			return fmt.Errorf("stock %s column %d is outside %s=%d", name, col, EnvMinCols, s.MinColumns)
		}
	}
	return nil
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SITESTOCK_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required when %s=%s", EnvDBDSN, EnvDBDrv, DriverSQLite)
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
