package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

// EnvPrefix is passed to envconfig; all variables carry the LATS_ prefix.
const EnvPrefix = "lats"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "LATS_DB_DSN"
	EnvDBHost = "LATS_DB_HOST"
	EnvDBUser = "LATS_DB_USER"
	EnvDBName = "LATS_DB_NAME"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
	Purchasing   PurchasingConfig
	WhatsApp     WhatsAppConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	BigQuery     BigQueryConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Purchasing.validate(); err != nil {
		return nil, err
	}
	if err := cfg.JWT.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"LATS_APP_ENV" required:"true"`
	Port         string   `envconfig:"LATS_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"LATS_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"LATS_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"LATS_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"LATS_DB_DSN"`
	Driver string `envconfig:"LATS_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"LATS_DB_HOST"`
	Port     int    `envconfig:"LATS_DB_PORT" default:"5432"`
	User     string `envconfig:"LATS_DB_USER"`
	Password string `envconfig:"LATS_DB_PASSWORD"`
	Name     string `envconfig:"LATS_DB_NAME"`
	SSLMode  string `envconfig:"LATS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LATS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LATS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LATS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LATS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LATS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LATS_REDIS_ADDR"`
	Password     string        `envconfig:"LATS_REDIS_PASSWORD"`
	DB           int           `envconfig:"LATS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LATS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LATS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LATS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LATS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LATS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"LATS_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"LATS_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"LATS_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"LATS_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// validate catches empty-but-set values that envconfig's required tag
// accepts.
func (j JWTConfig) validate() error {
	if strings.TrimSpace(j.Secret) == "" {
		return fmt.Errorf("LATS_JWT_SECRET must not be empty")
	}
	if strings.TrimSpace(j.Issuer) == "" {
		return fmt.Errorf("LATS_JWT_ISSUER must not be empty")
	}
	return nil
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"LATS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"LATS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"LATS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"LATS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"LATS_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"LATS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"LATS_AUTO_MIGRATE" default:"false"`
}

// PurchasingConfig carries the business constants the purchase-order engine
// derives totals from. Both values intentionally live in configuration, not
// code: the tax rate varies by region and the default cost ratio is an
// estimation heuristic, not a contract.
type PurchasingConfig struct {
	TaxRate          string `envconfig:"LATS_PURCHASING_TAX_RATE" default:"0.18"`
	DefaultCostRatio string `envconfig:"LATS_PURCHASING_DEFAULT_COST_RATIO" default:"0.70"`

	taxRate          decimal.Decimal
	defaultCostRatio decimal.Decimal
}

func (p *PurchasingConfig) validate() error {
	rate, err := decimal.NewFromString(p.TaxRate)
	if err != nil {
		return fmt.Errorf("invalid purchasing tax rate %q: %w", p.TaxRate, err)
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("purchasing tax rate %q out of range [0,1]", p.TaxRate)
	}
	ratio, err := decimal.NewFromString(p.DefaultCostRatio)
	if err != nil {
		return fmt.Errorf("invalid default cost ratio %q: %w", p.DefaultCostRatio, err)
	}
	if ratio.IsNegative() || ratio.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("default cost ratio %q out of range [0,1]", p.DefaultCostRatio)
	}
	p.taxRate = rate
	p.defaultCostRatio = ratio
	return nil
}

// TaxRateDecimal returns the parsed tax rate.
func (p PurchasingConfig) TaxRateDecimal() decimal.Decimal {
	return p.taxRate
}

// DefaultCostRatioDecimal returns the parsed estimated-cost ratio.
func (p PurchasingConfig) DefaultCostRatioDecimal() decimal.Decimal {
	return p.defaultCostRatio
}

type WhatsAppConfig struct {
	MaxRetries   int           `envconfig:"LATS_WHATSAPP_MAX_RETRIES" default:"3"`
	RetryDelay   time.Duration `envconfig:"LATS_WHATSAPP_RETRY_DELAY" default:"2s"`
	BatchSize    int           `envconfig:"LATS_WHATSAPP_BATCH_SIZE" default:"20"`
	PollInterval time.Duration `envconfig:"LATS_WHATSAPP_POLL_INTERVAL" default:"3s"`
	SendTimeout  time.Duration `envconfig:"LATS_WHATSAPP_SEND_TIMEOUT" default:"15s"`
	LockTTL      time.Duration `envconfig:"LATS_WHATSAPP_LOCK_TTL" default:"1m"`
	MetricsPort  string        `envconfig:"LATS_WHATSAPP_METRICS_PORT" default:"9102"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"LATS_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"LATS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"LATS_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"LATS_PUBSUB_DOMAIN_TOPIC" default:"lats-domain-events"`
	DomainSubscription string `envconfig:"LATS_PUBSUB_DOMAIN_SUBSCRIPTION" default:"lats-analytics-worker"`
}

type BigQueryConfig struct {
	Dataset            string `envconfig:"LATS_BIGQUERY_DATASET" default:"lats"`
	SalesFactsTable    string `envconfig:"LATS_BIGQUERY_SALES_TABLE" default:"sales_facts"`
	PurchaseFactsTable string `envconfig:"LATS_BIGQUERY_PURCHASE_TABLE" default:"purchase_facts"`
	EventLogTable      string `envconfig:"LATS_BIGQUERY_EVENT_LOG_TABLE" default:"event_log"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"LATS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"LATS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"LATS_OUTBOX_MAX_ATTEMPTS" default:"10"`
	IdempotencyTTL time.Duration `envconfig:"LATS_OUTBOX_IDEMPOTENCY_TTL" default:"72h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	discreteValues := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if discreteValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
