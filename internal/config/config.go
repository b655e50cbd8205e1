package config

import (
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/andresuchdata/farmastock/internal/domain"
)

type Config struct {
	Server   ServerConfig
	Analysis AnalysisConfig
	Cache    CacheConfig
	Storage  StorageConfig
	Drive    DriveConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
	MaxUploadMB    int64
}

// AnalysisConfig holds the default parameters used when a request omits them.
type AnalysisConfig struct {
	Defaults          domain.AnalysisConfig
	FamilyMapFile     string
	MaxConcurrentRuns int64
	OutputDir         string
}

type CacheConfig struct {
	Enabled            bool
	RedisURL           string
	RedisHost          string
	RedisPort          string
	RedisPassword      string
	RedisDB            int
	AnalysisTTLSeconds int
}

// StorageConfig selects where published exports are written: "none", "local" or "s3".
type StorageConfig struct {
	Backend     string
	LocalDir    string
	Endpoint    string
	AccessKeyID string
	SecretKey   string
	Bucket      string
	UseSSL      bool
	Prefix      string
}

type DriveConfig struct {
	CredentialsJSON string
}

type LogConfig struct {
	Level  string
	Pretty bool
}

var (
	once     sync.Once
	instance *Config
)

// Load reads .env and the environment once and returns the shared configuration.
func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		setDefaults(viper.GetViper())

		// Read from environment variables
		viper.AutomaticEnv()

		instance = LoadFrom(viper.GetViper())
	})

	return instance
}

func setDefaults(v *viper.Viper) {
	defaults := domain.DefaultAnalysisConfig()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 30)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 60)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("SERVER_MAX_UPLOAD_MB", 32)
	v.SetDefault("DAYS_OPEN", defaults.DaysOpen)
	v.SetDefault("STOCK_MIN_DAYS", defaults.StockMinDays)
	v.SetDefault("STOCK_MAX_DAYS", defaults.StockMaxDays)
	v.SetDefault("COVERAGE_DAYS_IDEAL", defaults.CoverageDaysIdeal)
	v.SetDefault("SAFETY_MARGIN", defaults.SafetyMargin)
	v.SetDefault("FAMILY_MAP_FILE", "")
	v.SetDefault("MAX_CONCURRENT_RUNS", 4)
	v.SetDefault("APP_OUTPUT_DIR", "./data/output")
	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_ANALYSIS_TTL_SECONDS", 3600)
	v.SetDefault("STORAGE_BACKEND", "none")
	v.SetDefault("STORAGE_LOCAL_DIR", "./data/published")
	v.SetDefault("STORAGE_ENDPOINT", "")
	v.SetDefault("STORAGE_ACCESS_KEY_ID", "")
	v.SetDefault("STORAGE_SECRET_KEY", "")
	v.SetDefault("STORAGE_BUCKET", "")
	v.SetDefault("STORAGE_USE_SSL", true)
	v.SetDefault("STORAGE_PREFIX", "exports")
	v.SetDefault("GOOGLE_DRIVE_CREDENTIALS_JSON", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", true)
}

// LoadFrom builds a Config from an already populated viper instance.
func LoadFrom(v *viper.Viper) *Config {
	setDefaults(v)

	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			MaxUploadMB:    v.GetInt64("SERVER_MAX_UPLOAD_MB"),
		},
		Analysis: AnalysisConfig{
			Defaults: domain.AnalysisConfig{
				DaysOpen:          v.GetInt("DAYS_OPEN"),
				StockMinDays:      v.GetInt("STOCK_MIN_DAYS"),
				StockMaxDays:      v.GetInt("STOCK_MAX_DAYS"),
				CoverageDaysIdeal: v.GetInt("COVERAGE_DAYS_IDEAL"),
				SafetyMargin:      v.GetFloat64("SAFETY_MARGIN"),
			},
			FamilyMapFile:     v.GetString("FAMILY_MAP_FILE"),
			MaxConcurrentRuns: v.GetInt64("MAX_CONCURRENT_RUNS"),
			OutputDir:         v.GetString("APP_OUTPUT_DIR"),
		},
		Cache: CacheConfig{
			Enabled:            v.GetBool("CACHE_ENABLED"),
			RedisURL:           v.GetString("REDIS_URL"),
			RedisHost:          v.GetString("REDIS_HOST"),
			RedisPort:          v.GetString("REDIS_PORT"),
			RedisPassword:      v.GetString("REDIS_PASSWORD"),
			RedisDB:            v.GetInt("REDIS_DB"),
			AnalysisTTLSeconds: v.GetInt("CACHE_ANALYSIS_TTL_SECONDS"),
		},
		Storage: StorageConfig{
			Backend:     strings.ToLower(v.GetString("STORAGE_BACKEND")),
			LocalDir:    v.GetString("STORAGE_LOCAL_DIR"),
			Endpoint:    v.GetString("STORAGE_ENDPOINT"),
			AccessKeyID: v.GetString("STORAGE_ACCESS_KEY_ID"),
			SecretKey:   v.GetString("STORAGE_SECRET_KEY"),
			Bucket:      v.GetString("STORAGE_BUCKET"),
			UseSSL:      v.GetBool("STORAGE_USE_SSL"),
			Prefix:      v.GetString("STORAGE_PREFIX"),
		},
		Drive: DriveConfig{
			CredentialsJSON: v.GetString("GOOGLE_DRIVE_CREDENTIALS_JSON"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Pretty: v.GetBool("LOG_PRETTY"),
		},
	}
}
