package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every runtime setting, read from the environment
// (optionally pre-populated from a .env file by the caller).
type Config struct {
	AppEnv string
	Port   string

	DBDriver    string
	DBPath      string
	DatabaseURL string
	SeedPath    string

	ImportAcquireTimeout time.Duration
	ImportExecTimeout    time.Duration
	LayoutsPath          string
	DefaultLayout        string
	MaxUploadBytes       int64
	ImportRatePerMinute  int
	CORSOrigins          []string

	ORSAPIKey        string
	NotifyWebhookURL string

	DepotLat float64
	DepotLon float64
}

func Load() Config {
	return Config{
		AppEnv: Get("APP_ENV", "development"),
		Port:   Get("PORT", "8080"),

		DBDriver:    strings.ToLower(Get("DB_DRIVER", "sqlite")),
		DBPath:      Get("DB_PATH", "data/app.db"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SeedPath:    Get("SEED_PATH", "data/seeds/fleet.json"),

		ImportAcquireTimeout: GetDuration("IMPORT_ACQUIRE_TIMEOUT", 5*time.Second),
		ImportExecTimeout:    GetDuration("IMPORT_EXEC_TIMEOUT", 20*time.Second),
		LayoutsPath:          os.Getenv("LAYOUTS_PATH"),
		DefaultLayout:        Get("DEFAULT_LAYOUT", "whitespace-joined"),
		MaxUploadBytes:       int64(GetInt("MAX_UPLOAD_BYTES", 20<<20)),
		ImportRatePerMinute:  GetInt("IMPORT_RATE_PER_MINUTE", 30),
		CORSOrigins:          GetList("CORS_ORIGINS"),

		ORSAPIKey:        strings.TrimSpace(os.Getenv("ORS_API_KEY")),
		NotifyWebhookURL: strings.TrimSpace(os.Getenv("NOTIFY_WEBHOOK_URL")),

		DepotLat: GetFloat("DEPOT_LAT", -3.7319),
		DepotLon: GetFloat("DEPOT_LON", -38.5267),
	}
}

func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Split a comma-separated variable, dropping blanks.
func GetList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func GetInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func GetFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return v
}

// Parse a Go duration ("5s", "1m30s"); invalid or non-positive values use the fallback.
func GetDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
