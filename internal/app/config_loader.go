package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"github.com/yourusername/cyberstream-go/internal/domain"
)

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*domain.Config, error) {
	// Start with default config
	config := domain.DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.cyberstream")
		v.AddConfigPath("/etc/cyberstream")
	}

	// CYBERSTREAM_SERVER_PORT overrides server.port
	v.SetEnvPrefix("CYBERSTREAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults
	}

	// ZeroFields makes a list from the file replace the default list
	// instead of overwriting its leading elements
	if err := v.Unmarshal(config, viper.DecoderConfigOption(func(dc *mapstructure.DecoderConfig) {
		dc.ZeroFields = true
	})); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config = expandPaths(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// bindEnvKeys registers every known key so AutomaticEnv applies to
// Unmarshal even when no config file sets it
func bindEnvKeys(v *viper.Viper) {
	for _, key := range configKeys {
		_ = v.BindEnv(key)
	}
}

var configKeys = []string{
	"server.host", "server.port", "server.static_dir", "server.allowed_origins", "server.shutdown_timeout",
	"extractor.binary", "extractor.binary_args", "extractor.insecure_transport", "extractor.geo_bypass", "extractor.cookie_file",
	"remux.binary", "remux.mode",
	"metadata.persona_order", "metadata.attempt_timeout", "metadata.attempt_delay",
	"download.persona", "download.chunk_size", "download.process_timeout", "download.diagnostics_limit", "download.kill_grace_period",
	"logging.level", "logging.format", "logging.output_path", "logging.logs_dir",
	"logging.max_size_mb", "logging.max_backups", "logging.max_age_days", "logging.compress",
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Server.StaticDir = expandPath(config.Server.StaticDir)
	config.Extractor.CookieFile = expandPath(config.Extractor.CookieFile)
	config.Logging.LogsDir = expandPath(config.Logging.LogsDir)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	path = os.ExpandEnv(path)

	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	return path
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Extractor.Binary == "" {
		return fmt.Errorf("extractor binary not configured")
	}

	if !domain.ValidateRemuxMode(config.Remux.Mode) {
		return fmt.Errorf("invalid remux mode: %s", config.Remux.Mode)
	}

	if config.Remux.Mode != domain.RemuxDisabled && config.Remux.Binary == "" {
		return fmt.Errorf("remux binary not configured")
	}

	if _, err := domain.PersonaSequence(config.Metadata.PersonaOrder); err != nil {
		return fmt.Errorf("invalid metadata persona order: %w", err)
	}

	if config.Metadata.AttemptTimeout <= 0 {
		return fmt.Errorf("metadata attempt timeout must be positive")
	}

	if config.Metadata.AttemptDelay < 0 {
		return fmt.Errorf("metadata attempt delay cannot be negative")
	}

	if _, err := domain.LookupPersona(domain.PersonaID(config.Download.Persona)); err != nil {
		return fmt.Errorf("invalid download persona: %w", err)
	}

	if config.Download.ChunkSize < 1 {
		return fmt.Errorf("download chunk size must be at least 1")
	}

	if config.Download.ProcessTimeout < 0 {
		return fmt.Errorf("download process timeout cannot be negative")
	}

	if config.Download.DiagnosticsLimit < 1 {
		return fmt.Errorf("download diagnostics limit must be at least 1")
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *domain.Config, path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	// Decode through mapstructure so written keys match the tags LoadConfig reads
	sections := map[string]interface{}{
		"server":    config.Server,
		"extractor": config.Extractor,
		"remux":     config.Remux,
		"metadata":  config.Metadata,
		"download":  config.Download,
		"logging":   config.Logging,
	}
	for name, section := range sections {
		values := map[string]interface{}{}
		if err := mapstructure.Decode(section, &values); err != nil {
			return fmt.Errorf("failed to encode %s config: %w", name, err)
		}
		v.Set(name, values)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
