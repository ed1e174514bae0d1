package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// DefaultAreas are the top-level plant areas offered when the config does
// not override them.
var DefaultAreas = []string{
	"telares circulares",
	"telares de banda",
	"extrusion",
	"laminadora",
	"torre de enfriamiento",
}

// Config is the main configuration for tmx.
type Config struct {
	BaseDir string       `toml:"base_dir"`
	LogDir  string       `toml:"log_dir"`
	DataDir string       `toml:"data_dir"` // catalog database location
	Store   StoreConfig  `toml:"store"`
	Buckets BucketConfig `toml:"buckets"`
	Areas   []string     `toml:"areas"`
}

// StoreConfig configures the object storage gateway.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type StoreConfig struct {
	Type string `toml:"type"` // "s3" or "memory"

	// S3-specific fields (only used when Type == "s3"). Endpoint is
	// host:port of an S3-compatible server (MinIO).
	Endpoint  string `toml:"endpoint,omitempty"`
	AccessKey string `toml:"access_key,omitempty"`
	SecretKey string `toml:"secret_key,omitempty"`
	Region    string `toml:"region,omitempty"`
	Insecure  bool   `toml:"insecure,omitempty"` // plain http, the default for LAN MinIO
}

// BucketConfig names the artifact collections.
type BucketConfig struct {
	Models   string `toml:"models"`
	Drawings string `toml:"drawings"`
}

// NewConfig creates a Config with the provided base directory and the
// defaults the original deployment used.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		DataDir: filepath.Join(baseDir, "data"),
		Store: StoreConfig{
			Type:     "s3",
			Endpoint: "localhost:9000",
			Region:   "us-east-1",
			Insecure: true,
		},
		Buckets: BucketConfig{
			Models:   "cad3dfiles",
			Drawings: "svg",
		},
		Areas: append([]string(nil), DefaultAreas...),
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if len(cfg.Areas) == 0 {
		cfg.Areas = append([]string(nil), DefaultAreas...)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes a Config to the specified file path, creating the directory
// if needed. Used by `tmx config set`.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	// Refuse to clobber an existing config
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := Save(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
