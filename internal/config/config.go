package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the job portal service.
type Config struct {
	Environment string
	Server      ServerConfig
	Scylla      ScyllaConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Elastic     ElasticConfig
	ClickHouse  ClickHouseConfig
	SMTP        SMTPConfig
	KMS         KMSConfig
	OTP         OTPConfig
	Bucketing   BucketingConfig
	Logging     LoggingConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	EnableTLS    bool
	AutoCert     bool
	ACMEEmail    string
	CertFile     string
	KeyFile      string
	CertDir      string
	Domain       string
	CORSOrigin   string
	CookieMaxAge time.Duration
}

type ScyllaConfig struct {
	Nodes    []string
	Keyspace string
	Username string
	Password string
	Timeout  time.Duration
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
	PoolSize int
}

type KafkaConfig struct {
	Brokers       []string
	JobTopic      string
	ConsumerGroup string
}

type ElasticConfig struct {
	URL      string
	Username string
	Password string
	JobIndex string
}

type ClickHouseConfig struct {
	Addr     string
	Database string
	Username string
	Password string
}

type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	SendTimeout time.Duration
	PortalURL   string
}

type KMSConfig struct {
	Enabled bool
	Region  string
	KeyID   string
}

type OTPConfig struct {
	Length         int
	Expiry         time.Duration
	CooldownTTL    time.Duration
	MaxVerifyTries int
	AttemptWindow  time.Duration
}

type BucketingConfig struct {
	AccountBuckets int
}

type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig reads the environment (and an optional .env file) into a Config.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Environment: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			EnableTLS:    getEnvBool("SERVER_ENABLE_TLS", false),
			AutoCert:     getEnvBool("SERVER_AUTO_CERT", false),
			ACMEEmail:    getEnv("SERVER_ACME_EMAIL", ""),
			CertFile:     getEnv("SERVER_CERT_FILE", ""),
			KeyFile:      getEnv("SERVER_KEY_FILE", ""),
			CertDir:      getEnv("SERVER_CERT_DIR", "./certs"),
			Domain:       getEnv("SERVER_DOMAIN", "localhost"),
			CORSOrigin:   getEnv("CORS_ORIGIN", "http://localhost:3000"),
			CookieMaxAge: getEnvDuration("COOKIE_MAX_AGE", 7*24*time.Hour),
		},
		Scylla: ScyllaConfig{
			Nodes:    getEnvList("SCYLLA_NODES", []string{"127.0.0.1:9042"}),
			Keyspace: getEnv("SCYLLA_KEYSPACE", "jobportal"),
			Username: getEnv("SCYLLA_USERNAME", ""),
			Password: getEnv("SCYLLA_PASSWORD", ""),
			Timeout:  getEnvDuration("SCYLLA_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://127.0.0.1:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			PoolSize: getEnvInt("REDIS_POOL_SIZE", 50),
		},
		Kafka: KafkaConfig{
			Brokers:       getEnvList("KAFKA_BROKERS", []string{"127.0.0.1:9092"}),
			JobTopic:      getEnv("KAFKA_JOB_TOPIC", "job.posted"),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "jobportal-match-notifier"),
		},
		Elastic: ElasticConfig{
			URL:      getEnv("ELASTIC_URL", "http://127.0.0.1:9200"),
			Username: getEnv("ELASTIC_USERNAME", ""),
			Password: getEnv("ELASTIC_PASSWORD", ""),
			JobIndex: getEnv("ELASTIC_JOB_INDEX", "jobs"),
		},
		ClickHouse: ClickHouseConfig{
			Addr:     getEnv("CLICKHOUSE_ADDR", "127.0.0.1:9000"),
			Database: getEnv("CLICKHOUSE_DATABASE", "jobportal"),
			Username: getEnv("CLICKHOUSE_USERNAME", "default"),
			Password: getEnv("CLICKHOUSE_PASSWORD", ""),
		},
		SMTP: SMTPConfig{
			Host:        getEnv("SMTP_HOST", "smtp.zoho.in"),
			Port:        getEnvInt("SMTP_PORT", 465),
			Username:    getEnv("SMTP_USERNAME", ""),
			Password:    getEnv("SMTP_PASSWORD", ""),
			From:        getEnv("SMTP_FROM", "no-reply@jobportal.local"),
			SendTimeout: getEnvDuration("SMTP_SEND_TIMEOUT", 15*time.Second),
			PortalURL:   getEnv("PORTAL_URL", "http://localhost:3000"),
		},
		KMS: KMSConfig{
			Enabled: getEnvBool("KMS_ENABLED", false),
			Region:  getEnv("KMS_REGION", "ap-south-1"),
			KeyID:   getEnv("KMS_KEY_ID", ""),
		},
		OTP: OTPConfig{
			Length:         getEnvInt("OTP_LENGTH", 6),
			Expiry:         getEnvDuration("OTP_EXPIRY", 10*time.Minute),
			CooldownTTL:    getEnvDuration("OTP_COOLDOWN_TTL", 5*time.Minute),
			MaxVerifyTries: getEnvInt("OTP_MAX_VERIFY_TRIES", 5),
			AttemptWindow:  getEnvDuration("OTP_ATTEMPT_WINDOW", 10*time.Minute),
		},
		Bucketing: BucketingConfig{
			AccountBuckets: getEnvInt("ACCOUNT_BUCKETS", 64),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
	}
}

// Validate checks settings that cannot fall back to a sane default.
func (c *Config) Validate() error {
	if c.IsProduction() {
		if c.SMTP.Username == "" || c.SMTP.Password == "" {
			return fmt.Errorf("SMTP credentials are required in production")
		}
		if c.KMS.Enabled && c.KMS.KeyID == "" {
			return fmt.Errorf("KMS_KEY_ID is required when KMS is enabled")
		}
	}
	if c.OTP.Length < 4 || c.OTP.Length > 10 {
		return fmt.Errorf("OTP_LENGTH must be between 4 and 10, got %d", c.OTP.Length)
	}
	if c.Bucketing.AccountBuckets <= 0 {
		return fmt.Errorf("ACCOUNT_BUCKETS must be positive, got %d", c.Bucketing.AccountBuckets)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return !c.IsProduction()
}

func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return fallback
}
