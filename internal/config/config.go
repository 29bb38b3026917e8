package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// AppConfig holds the complete application configuration.
type AppConfig struct {
	DataPath            string
	LogDir              string
	CacheDir            string
	DatasetPath         string
	ProfilePath         string
	HTTPAddr            string
	EnableMermaidCharts bool
	WatchDataset        bool
	Engine              Engine
}

// Load loads the configuration from .env files and environment variables.
// profile overrides TANKSCOPE_PROFILE when non-empty.
func Load(profile string) (*AppConfig, error) {
	exeDir := loadDotenv()

	dataPath := resolveDataPath(os.Getenv("DATA_PATH"), exeDir)
	logDir := filepath.Join(dataPath, "logs")
	cacheDir := filepath.Join(dataPath, "cache")
	for _, dir := range []string{logDir, cacheDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Warn().Err(err).Str("path", dir).Msg("Failed to create data directory")
		}
	}

	if profile == "" {
		profile = getEnv("TANKSCOPE_PROFILE", "")
	}
	engine, err := LoadEngine(profile)
	if err != nil {
		return nil, err
	}

	cfg := &AppConfig{
		DataPath:            dataPath,
		LogDir:              logDir,
		CacheDir:            cacheDir,
		DatasetPath:         resolveUnder(dataPath, getEnv("DATASET_PATH", "tanks.xlsx")),
		ProfilePath:         profile,
		HTTPAddr:            getEnv("HTTP_ADDR", "127.0.0.1:8420"),
		EnableMermaidCharts: getEnvBool("ENABLE_MERMAID_CHARTS", false),
		WatchDataset:        getEnvBool("WATCH_DATASET", true),
		Engine:              engine,
	}

	log.Debug().
		Str("dataset", cfg.DatasetPath).
		Str("profile", profile).
		Float64("allowable_mm", engine.AllowableThickness).
		Str("rate_formula", engine.RateFormula).
		Msg("Configuration resolved")

	return cfg, nil
}

// loadDotenv reads .env next to the binary first, then from the working
// directory. Variables already set are never overridden. It returns the
// binary's directory, or "".
func loadDotenv() string {
	exeDir := ""
	if exe, err := os.Executable(); err == nil {
		exeDir = filepath.Dir(exe)
		envPath := filepath.Join(exeDir, ".env")
		if err := godotenv.Load(envPath); err == nil {
			log.Debug().Str("path", envPath).Msg("Loaded configuration from binary directory")
		}
	}
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file in working directory")
	}
	return exeDir
}

func resolveDataPath(env, exeDir string) string {
	switch {
	case env != "":
		return env
	case exeDir != "":
		return exeDir
	}
	return "."
}

// resolveUnder anchors a relative path at base.
func resolveUnder(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// DefaultProfilePath is where `config init` writes the engine profile.
func (c *AppConfig) DefaultProfilePath() string {
	return filepath.Join(c.DataPath, "tankscope.yaml")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}
