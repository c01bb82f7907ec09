package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Bulk print delay bounds.
const (
	MinBulkDelay = 1500 * time.Millisecond
	MaxBulkDelay = 2 * time.Second
)

// Config holds all application configuration
type Config struct {
	App         AppConfig
	School      SchoolConfig
	Store       StoreConfig
	Database    DatabaseConfig
	Firestore   FirestoreConfig
	Mongo       MongoConfig
	Redis       RedisConfig
	Log         LogConfig
	HTTP        HTTPConfig
	Printing    PrintingConfig
	Export      ExportConfig
	Bulk        BulkConfig
	ReportCache ReportCacheConfig
	Telemetry   TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// SchoolConfig is the school profile printed on every document.
type SchoolConfig struct {
	Name     string
	Address  string
	Phone    string
	Email    string
	Currency string // symbol printed before amounts
}

// StoreConfig selects the document store backend.
type StoreConfig struct {
	Driver string // postgres, firestore, mongo
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// FirestoreConfig holds Firebase project settings
type FirestoreConfig struct {
	ProjectID       string
	CredentialsFile string
}

// MongoConfig holds MongoDB connection settings
type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// PrintingConfig holds document rendering and archive settings
type PrintingConfig struct {
	PDFRenderer     string // chromedp, fpdf, or empty to disable PDF
	ChromePath      string
	ChromeRemoteURL string
	RenderTimeout   time.Duration
	Storage         string // local, s3
	LocalPath       string
	BaseURL         string
	VerifyURL       string // QR code prefix; empty disables the code
	S3              S3Config
}

// S3Config holds S3-compatible object storage settings
type S3Config struct {
	Endpoint          string
	Region            string
	Bucket            string
	AccessKey         string
	SecretKey         string
	UseSSL            bool
	UsePathStyle      bool
	PresignExpiration time.Duration
}

// ExportConfig holds report export settings
type ExportConfig struct {
	XLSXEnabled bool
}

// BulkConfig holds bulk print settings
type BulkConfig struct {
	Delay time.Duration
	// Retention is how long finished jobs stay pollable
	Retention time.Duration
}

// TelemetryConfig holds OpenTelemetry and profiling settings. Nothing is
// exported unless Enabled is set.
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string  // OTLP gRPC endpoint, e.g. localhost:4317
	SamplingRatio     float64 // 0.0-1.0
	ServiceName       string
	Insecure          bool // plaintext gRPC, development only
	// Database tracing
	DBTraceEnabled    bool
	DBLogFullSQL      bool // include query variables in spans
	DBSlowQueryThresh time.Duration
	// Logs and metrics export over the same collector
	LogsEnabled     bool
	MetricsEnabled  bool
	MetricsInterval time.Duration
	// Pyroscope continuous profiling
	ProfilingEnabled bool
	ProfilingAddress string
}

// ReportCacheConfig holds derived report cache settings
type ReportCacheConfig struct {
	Driver    string // memory, redis, none
	TTL       time.Duration
	KeyPrefix string
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with SCHOOL_ prefix (e.g., SCHOOL_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("SCHOOL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := fromViper(v)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		School: SchoolConfig{
			Name:     v.GetString("school.name"),
			Address:  v.GetString("school.address"),
			Phone:    v.GetString("school.phone"),
			Email:    v.GetString("school.email"),
			Currency: v.GetString("school.currency"),
		},
		Store: StoreConfig{
			Driver: v.GetString("store.driver"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Firestore: FirestoreConfig{
			ProjectID:       v.GetString("firestore.project_id"),
			CredentialsFile: v.GetString("firestore.credentials_file"),
		},
		Mongo: MongoConfig{
			URI:            v.GetString("mongo.uri"),
			Database:       v.GetString("mongo.database"),
			ConnectTimeout: v.GetDuration("mongo.connect_timeout"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			MaxBodySize:      v.GetInt64("http.max_body_size"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Printing: PrintingConfig{
			PDFRenderer:     v.GetString("printing.pdf_renderer"),
			ChromePath:      v.GetString("printing.chrome_path"),
			ChromeRemoteURL: v.GetString("printing.chrome_remote_url"),
			RenderTimeout:   v.GetDuration("printing.render_timeout"),
			Storage:         v.GetString("printing.storage"),
			LocalPath:       v.GetString("printing.local_path"),
			BaseURL:         v.GetString("printing.base_url"),
			VerifyURL:       v.GetString("printing.verify_url"),
			S3: S3Config{
				Endpoint:          v.GetString("printing.s3.endpoint"),
				Region:            v.GetString("printing.s3.region"),
				Bucket:            v.GetString("printing.s3.bucket"),
				AccessKey:         v.GetString("printing.s3.access_key"),
				SecretKey:         v.GetString("printing.s3.secret_key"),
				UseSSL:            v.GetBool("printing.s3.use_ssl"),
				UsePathStyle:      v.GetBool("printing.s3.use_path_style"),
				PresignExpiration: v.GetDuration("printing.s3.presign_expiration"),
			},
		},
		Export: ExportConfig{
			XLSXEnabled: v.GetBool("export.xlsx_enabled"),
		},
		Bulk: BulkConfig{
			Delay:     v.GetDuration("bulk.delay"),
			Retention: v.GetDuration("bulk.retention"),
		},
		ReportCache: ReportCacheConfig{
			Driver:    v.GetString("report_cache.driver"),
			TTL:       v.GetDuration("report_cache.ttl"),
			KeyPrefix: v.GetString("report_cache.key_prefix"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
			LogsEnabled:       v.GetBool("telemetry.logs_enabled"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			MetricsInterval:   v.GetDuration("telemetry.metrics_interval"),
			ProfilingEnabled:  v.GetBool("telemetry.profiling_enabled"),
			ProfilingAddress:  v.GetString("telemetry.profiling_address"),
		},
	}
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "school-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.School.Name == "" {
		cfg.School.Name = "School"
	}
	if cfg.School.Currency == "" {
		cfg.School.Currency = "Rs."
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "postgres"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "school"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Mongo.Database == "" {
		cfg.Mongo.Database = "school"
	}
	if cfg.Mongo.ConnectTimeout == 0 {
		cfg.Mongo.ConnectTimeout = 10 * time.Second
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 60 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 10 << 20 // 10MB
	}
	// No CORS origin fallback: cross-origin requests stay closed until configured.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.Printing.RenderTimeout == 0 {
		cfg.Printing.RenderTimeout = 30 * time.Second
	}
	if cfg.Printing.Storage == "" {
		cfg.Printing.Storage = "local"
	}
	if cfg.Printing.LocalPath == "" {
		cfg.Printing.LocalPath = "./storage/documents"
	}
	if cfg.Printing.BaseURL == "" {
		cfg.Printing.BaseURL = "/documents"
	}
	if cfg.Printing.S3.Region == "" {
		cfg.Printing.S3.Region = "us-east-1"
	}
	if cfg.Printing.S3.PresignExpiration == 0 {
		cfg.Printing.S3.PresignExpiration = 15 * time.Minute
	}
	if cfg.Bulk.Delay == 0 {
		cfg.Bulk.Delay = MinBulkDelay
	}
	if cfg.Bulk.Retention == 0 {
		cfg.Bulk.Retention = time.Hour
	}
	if cfg.ReportCache.Driver == "" {
		cfg.ReportCache.Driver = "memory"
	}
	if cfg.ReportCache.TTL == 0 {
		cfg.ReportCache.TTL = 5 * time.Minute
	}
	if cfg.ReportCache.KeyPrefix == "" {
		cfg.ReportCache.KeyPrefix = "school:report:"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
	if cfg.Telemetry.MetricsInterval == 0 {
		cfg.Telemetry.MetricsInterval = 30 * time.Second
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	switch c.Store.Driver {
	case "postgres":
		if c.Database.MaxOpenConns <= 0 {
			return fmt.Errorf("database.max_open_conns must be positive")
		}
		if c.Database.MaxIdleConns < 0 {
			return fmt.Errorf("database.max_idle_conns cannot be negative")
		}
		if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
			return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
				c.Database.MaxIdleConns, c.Database.MaxOpenConns)
		}
	case "firestore":
		if c.Firestore.ProjectID == "" {
			return fmt.Errorf("firestore.project_id is required when store.driver=firestore")
		}
	case "mongo":
		if c.Mongo.URI == "" {
			return fmt.Errorf("mongo.uri is required when store.driver=mongo")
		}
	default:
		return fmt.Errorf("store.driver must be one of postgres, firestore, mongo; got %q", c.Store.Driver)
	}

	switch c.Printing.PDFRenderer {
	case "", "chromedp", "fpdf":
	default:
		return fmt.Errorf("printing.pdf_renderer must be chromedp, fpdf or empty; got %q", c.Printing.PDFRenderer)
	}
	switch c.Printing.Storage {
	case "local":
	case "s3":
		if c.Printing.S3.Bucket == "" {
			return fmt.Errorf("printing.s3.bucket is required when printing.storage=s3")
		}
	default:
		return fmt.Errorf("printing.storage must be local or s3; got %q", c.Printing.Storage)
	}

	if c.Bulk.Delay < MinBulkDelay || c.Bulk.Delay > MaxBulkDelay {
		return fmt.Errorf("bulk.delay must be between %s and %s, got %s", MinBulkDelay, MaxBulkDelay, c.Bulk.Delay)
	}

	switch c.ReportCache.Driver {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("report_cache.driver must be memory, redis or none; got %q", c.ReportCache.Driver)
	}

	if c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}
	if c.Telemetry.ProfilingEnabled && c.Telemetry.ProfilingAddress == "" {
		return fmt.Errorf("telemetry.profiling_address is required when telemetry.profiling_enabled=true")
	}

	if c.App.Env == "production" {
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production")
		}
		if c.Store.Driver == "postgres" {
			if c.Database.Password == "" {
				return fmt.Errorf("database.password is required in production")
			}
			if c.Database.SSLMode == "disable" {
				return fmt.Errorf("database.sslmode cannot be 'disable' in production")
			}
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}
	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
