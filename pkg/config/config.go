package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Model    ModelConfig
	Refresh  RefreshConfig
	Report   ReportConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
	LogLevel    string
}

type ServerConfig struct {
	Port           string
	RequestTimeout time.Duration
}

type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	SQLitePath string
}

type RedisConfig struct {
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	StatsTTL      time.Duration
}

// Enabled reports whether a redis host was configured.
func (r RedisConfig) Enabled() bool {
	return r.RedisHost != ""
}

type ModelConfig struct {
	ArtifactStore string
	ArtifactDir   string
	TestFraction  float64
	Seed          int64
}

type RefreshConfig struct {
	CronSpec string
	Timeout  time.Duration
}

type ReportConfig struct {
	PlotsDir string
	RFMCSV   string
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	ArtifactStoreFS       = "fs"
	ArtifactStorePostgres = "postgres"
)

func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	statsTTL, err := getEnvDuration("REDIS_STATS_TTL", 5*time.Minute)
	if err != nil {
		return nil, err
	}
	testFraction, err := getEnvFloat("MODEL_TEST_FRACTION", 0.2)
	if err != nil {
		return nil, err
	}
	seed, err := getEnvInt("MODEL_SEED", 42)
	if err != nil {
		return nil, err
	}
	refreshTimeout, err := getEnvDuration("REFRESH_TIMEOUT", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	requestTimeout, err := getEnvDuration("REQUEST_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Sales Insight API"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			RequestTimeout: requestTimeout,
		},
		Database: DatabaseConfig{
			Driver:     strings.ToLower(getEnv("DB_DRIVER", DriverPostgres)),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "5432"),
			User:       getEnv("DB_USER", "postgres"),
			Password:   getEnv("DB_PASSWORD", ""),
			Name:       getEnv("DB_NAME", "adventureworks"),
			SSLMode:    getEnv("DB_SSL_MODE", "disable"),
			SQLitePath: getEnv("DB_SQLITE_PATH", "data/adventureworks.db"),
		},
		Redis: RedisConfig{
			RedisHost:     getEnv("REDIS_HOST", ""),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       redisDB,
			StatsTTL:      statsTTL,
		},
		Model: ModelConfig{
			ArtifactStore: strings.ToLower(getEnv("ARTIFACT_STORE", ArtifactStoreFS)),
			ArtifactDir:   getEnv("ARTIFACT_DIR", "models"),
			TestFraction:  testFraction,
			Seed:          int64(seed),
		},
		Refresh: RefreshConfig{
			CronSpec: getEnv("REFRESH_CRON", ""),
			Timeout:  refreshTimeout,
		},
		Report: ReportConfig{
			PlotsDir: getEnv("PLOTS_DIR", "plots"),
			RFMCSV:   getEnv("RFM_CSV", "data/rfm_segments.csv"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Password == "" {
			return errors.New("missing database password")
		}
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			return errors.New("missing sqlite path")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	switch c.Model.ArtifactStore {
	case ArtifactStoreFS:
		if c.Model.ArtifactDir == "" {
			return errors.New("missing artifact dir")
		}
	case ArtifactStorePostgres:
	default:
		return fmt.Errorf("unknown artifact store %q", c.Model.ArtifactStore)
	}

	if c.Model.TestFraction <= 0 || c.Model.TestFraction >= 1 {
		return fmt.Errorf("MODEL_TEST_FRACTION must be in (0,1), got %v", c.Model.TestFraction)
	}

	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultVal, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getEnvFloat(key string, defaultVal float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultVal, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultVal, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
