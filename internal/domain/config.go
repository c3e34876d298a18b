package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Extractor ExtractorConfig `mapstructure:"extractor"`
	Remux     RemuxConfig     `mapstructure:"remux"`
	Metadata  MetadataConfig  `mapstructure:"metadata"`
	Download  DownloadConfig  `mapstructure:"download"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	StaticDir       string        `mapstructure:"static_dir"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// ExtractorConfig describes how to invoke yt-dlp
type ExtractorConfig struct {
	Binary            string   `mapstructure:"binary"`
	BinaryArgs        []string `mapstructure:"binary_args"` // e.g. ["-m", "yt_dlp"] when Binary is python3
	InsecureTransport bool     `mapstructure:"insecure_transport"`
	GeoBypass         bool     `mapstructure:"geo_bypass"`
	CookieFile        string   `mapstructure:"cookie_file"`
}

// RemuxConfig controls remuxer detection
type RemuxConfig struct {
	Binary string    `mapstructure:"binary"`
	Mode   RemuxMode `mapstructure:"mode"` // auto, enabled, disabled
}

// MetadataConfig contains metadata fetch configuration
type MetadataConfig struct {
	PersonaOrder   []string      `mapstructure:"persona_order"`
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout"`
	AttemptDelay   time.Duration `mapstructure:"attempt_delay"`
}

// DownloadConfig contains streaming download configuration
type DownloadConfig struct {
	Persona          string        `mapstructure:"persona"`
	ChunkSize        int           `mapstructure:"chunk_size"`
	ProcessTimeout   time.Duration `mapstructure:"process_timeout"` // 0 disables
	DiagnosticsLimit int           `mapstructure:"diagnostics_limit"`
	KillGracePeriod  time.Duration `mapstructure:"kill_grace_period"`
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
	LogsDir    string `mapstructure:"logs_dir"`    // categorized event logs, empty disables
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// DefaultChunkSize is the read size for the stdout pump
const DefaultChunkSize = 1024 * 1024

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			StaticDir:       "web/static",
			AllowedOrigins:  []string{"*"},
			ShutdownTimeout: 30 * time.Second,
		},
		Extractor: ExtractorConfig{
			Binary:            "yt-dlp",
			InsecureTransport: true,
			GeoBypass:         true,
		},
		Remux: RemuxConfig{
			Binary: "ffmpeg",
			Mode:   RemuxAuto,
		},
		Metadata: MetadataConfig{
			PersonaOrder:   []string{"android", "web", "ios"},
			AttemptTimeout: 45 * time.Second,
			AttemptDelay:   0,
		},
		Download: DownloadConfig{
			Persona:          "android",
			ChunkSize:        DefaultChunkSize,
			ProcessTimeout:   2 * time.Hour,
			DiagnosticsLimit: 64 * 1024,
			KillGracePeriod:  5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
			MaxSizeMB:  50,
			MaxBackups: 5,
			MaxAgeDays: 14,
			Compress:   true,
		},
	}
}
