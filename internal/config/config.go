package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath    string
	RawDir    string
	OutputDir string

	RADBaseURL      string
	RADUserAgent    string
	RADTimeoutMs    int
	RADRateLimitRPS int
	RADMaxRetries   int

	FilePrefix   string
	SheetsFile   string
	ParseWorkers int
	JSONIndent   int

	LogLevel  string
	LogFormat string

	ServerAddr       string
	WatchIntervalSec int
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:    getEnv("DB_PATH", filepath.Join(cwd, "data", "radindex.db")),
		RawDir:    getEnv("RAD_RAW_DIR", filepath.Join(cwd, "data", "raw")),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		RADBaseURL:      getEnv("RAD_BASE_URL", "https://www.nm.eurocontrol.int/RAD/"),
		RADUserAgent:    getEnv("RAD_USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"),
		RADTimeoutMs:    getEnvInt("RAD_TIMEOUT_MS", 60000),
		RADRateLimitRPS: getEnvInt("RAD_RATE_LIMIT_RPS", 2),
		RADMaxRetries:   getEnvInt("RAD_MAX_RETRIES", 4),

		FilePrefix:   getEnv("RAD_FILE_PREFIX", "RAD"),
		SheetsFile:   getEnv("RAD_SHEETS_FILE", ""),
		ParseWorkers: getEnvInt("PARSE_WORKERS", 1),
		JSONIndent:   getEnvInt("JSON_INDENT", 2),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		ServerAddr:       getEnv("SERVER_ADDR", ":8080"),
		WatchIntervalSec: getEnvInt("WATCH_INTERVAL_SEC", 6*3600),
	}

	if cfg.ParseWorkers < 1 {
		cfg.ParseWorkers = 1
	}
	if cfg.JSONIndent < 0 {
		cfg.JSONIndent = 0
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}
