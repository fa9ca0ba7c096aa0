package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	domainconfig "dopesheet/domain/config"
)

// EnvPrefix prefixes every environment variable read by the loader
const EnvPrefix = "DOPESHEET_"

// Loader builds a Config from, lowest priority first: defaults, base file,
// environment file, local file (development only) and environment variables.
type Loader struct {
	basePath    string
	environment Environment
	sources     []string
	fileLoaders map[string]FileLoader
	lookupEnv   func(string) (string, bool)
}

// FileLoader decodes one configuration file format
type FileLoader interface {
	Load(reader io.Reader, target interface{}) error
	Extension() string
}

// NewLoader creates a loader reading files from basePath
func NewLoader(basePath string, env Environment) *Loader {
	if basePath == "" {
		basePath = "configs"
	}
	if env == "" {
		env = Development
	}
	l := &Loader{
		basePath:    basePath,
		environment: env,
		fileLoaders: make(map[string]FileLoader),
		lookupEnv:   os.LookupEnv,
	}
	l.RegisterLoader(&YAMLLoader{})
	l.RegisterLoader(&JSONLoader{})
	return l
}

// RegisterLoader registers a file loader for its extension
func (l *Loader) RegisterLoader(loader FileLoader) {
	l.fileLoaders[loader.Extension()] = loader
}

// BasePath returns the directory configuration files are read from
func (l *Loader) BasePath() string { return l.basePath }

// Load builds and validates the configuration
func (l *Loader) Load() (*Config, error) {
	l.sources = []string{"defaults"}
	cfg := l.defaultConfig()

	if err := l.loadFile("base", cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load base config: %w", err)
	}

	envFile := strings.ToLower(string(l.environment))
	if err := l.loadFile(envFile, cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s config: %w", envFile, err)
	}

	if l.environment == Development {
		if err := l.loadFile("local", cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load local config: %w", err)
		}
	}

	if err := l.loadEnvironmentVariables(cfg); err != nil {
		return nil, err
	}
	l.sources = append(l.sources, "environment")
	cfg.LoadedFrom = append([]string(nil), l.sources...)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile decodes name.<ext> over cfg for the first registered extension found
func (l *Loader) loadFile(name string, cfg *Config) error {
	exts := make([]string, 0, len(l.fileLoaders))
	for ext := range l.fileLoaders {
		exts = append(exts, ext)
	}
	// yaml before json
	sort.Sort(sort.Reverse(sort.StringSlice(exts)))

	for _, ext := range exts {
		path := filepath.Join(l.basePath, name+"."+ext)
		file, err := os.Open(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
		err = l.fileLoaders[ext].Load(file, cfg)
		file.Close()
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		l.sources = append(l.sources, path)
		return nil
	}
	return fs.ErrNotExist
}

// loadEnvironmentVariables overlays the DOPESHEET_* variables
func (l *Loader) loadEnvironmentVariables(cfg *Config) error {
	env := func(key string) (string, bool) {
		v, ok := l.lookupEnv(EnvPrefix + key)
		return v, ok && v != ""
	}

	if v, ok := env("SERVER_HOST"); ok {
		cfg.Server.Host = v
	}
	if v, ok := env("SERVER_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sSERVER_PORT %q: %w", EnvPrefix, v, err)
		}
		cfg.Server.Port = port
	}
	if v, ok := env("LOG_LEVEL"); ok {
		cfg.Logging.Level = v
	}
	if v, ok := env("SCENE"); ok {
		cfg.ScenePath = v
	}
	if v, ok := env("UNDO_LIMIT"); ok {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sUNDO_LIMIT %q: %w", EnvPrefix, v, err)
		}
		cfg.Domain.UndoLimit = limit
	}
	if v, ok := env("TRACING_ENABLED"); ok {
		cfg.Tracing.Enabled = parseBool(v)
	}
	if v, ok := env("TRACING_ENDPOINT"); ok {
		cfg.Tracing.Endpoint = v
	}
	if v, ok := env("METRICS_ENABLED"); ok {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v, ok := env("RATE_LIMIT_ENABLED"); ok {
		cfg.RateLimit.Enabled = parseBool(v)
	}
	if v, ok := env("CORS_ALLOWED_ORIGINS"); ok {
		cfg.CORS.AllowedOrigins = strings.Split(v, ",")
	}
	return nil
}

// defaultConfig returns a configuration the server can run with without any file
func (l *Loader) defaultConfig() *Config {
	return &Config{
		Environment: l.environment,
		Server: Server{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: Logging{
			Level: "info",
		},
		Tracing: Tracing{
			ServiceName: "dopesheetd",
			Endpoint:    "localhost:4317",
			Insecure:    true,
			SampleRate:  0.1,
		},
		Metrics: Metrics{
			Enabled:   true,
			Namespace: "dopesheet",
			Path:      "/metrics",
		},
		CORS: CORS{
			AllowedOrigins: []string{"*"},
			MaxAge:         300,
		},
		RateLimit: RateLimit{
			Requests: 600,
			Window:   time.Minute,
		},
		Domain: *domainconfig.LoadDomainConfig(string(l.environment)),
	}
}

// YAMLLoader loads configuration from YAML files
type YAMLLoader struct{}

func (y *YAMLLoader) Load(reader io.Reader, target interface{}) error {
	return yaml.NewDecoder(reader).Decode(target)
}

func (y *YAMLLoader) Extension() string { return "yaml" }

// JSONLoader loads configuration from JSON files
type JSONLoader struct{}

func (j *JSONLoader) Load(reader io.Reader, target interface{}) error {
	return json.NewDecoder(reader).Decode(target)
}

func (j *JSONLoader) Extension() string { return "json" }

func parseBool(s string) bool {
	v, _ := strconv.ParseBool(s)
	return v
}

// GetEnvironment reads the environment from DOPESHEET_ENV, development by default
func GetEnvironment() Environment {
	switch Environment(strings.ToLower(os.Getenv(EnvPrefix + "ENV"))) {
	case Production:
		return Production
	case Staging:
		return Staging
	default:
		return Development
	}
}

// Load loads the configuration from basePath for the current environment
func Load(basePath string) (*Config, error) {
	return NewLoader(basePath, GetEnvironment()).Load()
}
