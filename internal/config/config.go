package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"carbon-tracker-go/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"

	configPathEnvVar = "CONFIG_PATH"
)

type Config struct {
	Env       string          `koanf:"env"`
	HTTP      HTTPConfig      `koanf:"http"`
	Storage   StorageConfig   `koanf:"storage"`
	DB        DBConfig        `koanf:"db"`
	Supabase  SupabaseConfig  `koanf:"supabase"`
	Redis     RedisConfig     `koanf:"redis"`
	Query     QueryConfig     `koanf:"query"`
	Analytics AnalyticsConfig `koanf:"analytics"`
}

type HTTPConfig struct {
	Port            string        `koanf:"port"`
	CORSOrigins     string        `koanf:"cors_origins"`
	RateLimit       int           `koanf:"rate_limit"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`
}

type StorageConfig struct {
	Driver string `koanf:"driver"`
}

type DBConfig struct {
	DSN             string        `koanf:"dsn"`
	Host            string        `koanf:"host"`
	Port            string        `koanf:"port"`
	User            string        `koanf:"user"`
	Password        string        `koanf:"password"`
	Name            string        `koanf:"name"`
	SSLMode         string        `koanf:"sslmode"`
	TimeZone        string        `koanf:"timezone"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

type SupabaseConfig struct {
	URL            string        `koanf:"url"`
	PublishableKey string        `koanf:"publishable_key"`
	AuthTimeout    time.Duration `koanf:"auth_timeout"`
	SkipAuth       bool          `koanf:"skip_auth"`
	MockUserID     string        `koanf:"mock_user_id"`
	MockUserEmail  string        `koanf:"mock_user_email"`
	MockUserName   string        `koanf:"mock_user_name"`
}

type RedisConfig struct {
	Enabled    bool          `koanf:"enabled"`
	URL        string        `koanf:"url"`
	CatalogTTL time.Duration `koanf:"catalog_ttl"`
}

// QueryConfig holds the fallback values the consumption query pipeline uses
// when a request leaves page, limit or sort unset.
type QueryConfig struct {
	DefaultPage      int    `koanf:"default_page"`
	DefaultLimit     int    `koanf:"default_limit"`
	DefaultSortBy    string `koanf:"default_sort_by"`
	DefaultSortOrder string `koanf:"default_sort_order"`
	MaxLimit         int    `koanf:"max_limit"`
	ExportLimit      int    `koanf:"export_limit"`
}

type AnalyticsConfig struct {
	TopActivitiesEnabled       bool          `koanf:"top_activities_enabled"`
	TopActivitiesLookbackDays  int           `koanf:"top_activities_lookback_days"`
	TopActivitiesMinRecords    int           `koanf:"top_activities_min_records"`
	TopActivitiesResponseCount int           `koanf:"top_activities_response_count"`
	TopActivitiesCacheTTL      time.Duration `koanf:"top_activities_cache_ttl"`
}

func Default() Config {
	return Config{
		Env: "development",
		HTTP: HTTPConfig{
			Port:            "8080",
			CORSOrigins:     "http://localhost:5173",
			RateLimit:       300,
			RateLimitWindow: time.Minute,
			RequestTimeout:  30 * time.Second,
		},
		Storage: StorageConfig{Driver: StorageDriverPostgres},
		DB: DBConfig{
			Host:            "localhost",
			Port:            "5432",
			User:            "postgres",
			Password:        "postgres",
			Name:            "carbon_tracker",
			SSLMode:         "disable",
			TimeZone:        "UTC",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Supabase: SupabaseConfig{
			AuthTimeout: 5 * time.Second,
			MockUserID:  "00000000-0000-0000-0000-000000000001",
		},
		Redis: RedisConfig{
			URL:        "redis://localhost:6379/0",
			CatalogTTL: 10 * time.Minute,
		},
		Query: QueryConfig{
			DefaultPage:      1,
			DefaultLimit:     10,
			DefaultSortBy:    "date",
			DefaultSortOrder: "ASC",
			MaxLimit:         1000,
			ExportLimit:      5000,
		},
		Analytics: AnalyticsConfig{
			TopActivitiesEnabled:       true,
			TopActivitiesLookbackDays:  90,
			TopActivitiesMinRecords:    5,
			TopActivitiesResponseCount: 5,
			TopActivitiesCacheTTL:      10 * time.Minute,
		},
	}
}

func Load(log logger.Logger) (Config, error) {
	if err := loadDotEnv(log); err != nil {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path := os.Getenv(configPathEnvVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
		log.Info("config: loaded file", "path", path)
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Storage.Driver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return fmt.Errorf("invalid storage driver %q", c.Storage.Driver)
	}
	if c.Query.DefaultLimit <= 0 {
		return fmt.Errorf("query default limit must be positive")
	}
	if c.Query.DefaultPage <= 0 {
		return fmt.Errorf("query default page must be positive")
	}
	if c.Query.MaxLimit < c.Query.DefaultLimit {
		return fmt.Errorf("query max limit must be >= default limit")
	}
	if c.Query.ExportLimit <= 0 {
		return fmt.Errorf("query export limit must be positive")
	}
	return nil
}

func (c HTTPConfig) AllowedOrigins() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func (c DBConfig) GetDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.TimeZone
}

// sections maps env prefixes to config sections; the remainder of the
// variable name becomes the field key.
var sections = []struct {
	prefix  string
	section string
}{
	{"HTTP_", "http"},
	{"STORAGE_", "storage"},
	{"DB_", "db"},
	{"SUPABASE_", "supabase"},
	{"REDIS_", "redis"},
	{"QUERY_", "query"},
	{"ANALYTICS_", "analytics"},
}

// aliases keeps the auth variable names the deployment already uses.
var aliases = map[string]string{
	"ENV":                    "env",
	"AUTH_SKIP":              "supabase.skip_auth",
	"AUTH_MOCK_USER_ID":      "supabase.mock_user_id",
	"AUTH_MOCK_USER_EMAIL":   "supabase.mock_user_email",
	"AUTH_MOCK_USER_NAME":    "supabase.mock_user_name",
	"CORS_ALLOWED_ORIGINS":   "http.cors_origins",
	"VITE_SUPABASE_URL":      "supabase.url",
	"VITE_SUPABASE_ANON_KEY": "supabase.publishable_key",
}

// envKey returns "" for variables that do not belong to the config, which
// makes koanf skip them.
func envKey(key string) string {
	if alias, ok := aliases[key]; ok {
		return alias
	}
	for _, s := range sections {
		if strings.HasPrefix(key, s.prefix) {
			return s.section + "." + strings.ToLower(strings.TrimPrefix(key, s.prefix))
		}
	}
	return ""
}

func loadDotEnv(log logger.Logger) error {
	path, err := findDotEnv(".env")
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	// godotenv.Load never overrides variables that are already set.
	if err := godotenv.Load(path); err != nil {
		return err
	}
	log.Info("dotenv: loaded", "path", path)
	return nil
}

func findDotEnv(filename string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, filename)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", os.ErrNotExist
}
