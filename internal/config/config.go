package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"assetopt/internal/domain"
)

const DefaultFile = "assetopt.yaml"

type PresetConfig struct {
	Width   int `yaml:"width"`
	Quality int `yaml:"quality"`
}

type PublishConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	Prefix    string `yaml:"prefix"`
}

type Config struct {
	SourceRoot   string                  `yaml:"source"`
	DestRoot     string                  `yaml:"dest"`
	AssetsDir    string                  `yaml:"assets_dir"`
	BrandDir     string                  `yaml:"brand_dir"`
	ClientsDir   string                  `yaml:"clients_dir"`
	ReportName   string                  `yaml:"report"`
	Presets      map[string]PresetConfig `yaml:"presets"`
	Workers      int                     `yaml:"workers"`
	Incremental  bool                    `yaml:"incremental"`
	LedgerPath   string                  `yaml:"ledger"`
	HeroVariants bool                    `yaml:"hero_variants"`
	Verbose      bool                    `yaml:"verbose"`
	DryRun       bool                    `yaml:"-"`
	Interactive  bool                    `yaml:"-"`
	Publish      PublishConfig           `yaml:"publish"`
}

func Default() Config {
	return Config{
		SourceRoot: "reference",
		DestRoot:   filepath.Join("public", "images"),
		AssetsDir:  "Design Assets",
		BrandDir:   "Brand Assets",
		ClientsDir: "Clients",
		ReportName: "path-mapping.json",
		Workers:    1,
		Publish:    PublishConfig{UseSSL: true},
	}
}

// LoadDotEnv loads .env and .env.local when present. Variables already set in
// the environment win.
func LoadDotEnv() {
	for _, name := range []string{".env", ".env.local"} {
		if _, err := os.Stat(name); err == nil {
			_ = godotenv.Load(name)
		}
	}
}

// Load reads a YAML file on top of the defaults. ${VAR} references are
// expanded before parsing. A missing file is only an error when required.
func Load(path string, required bool) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with ASSETOPT_* variables.
func (c *Config) ApplyEnv() error {
	setString(&c.SourceRoot, "ASSETOPT_SOURCE")
	setString(&c.DestRoot, "ASSETOPT_DEST")
	setString(&c.ReportName, "ASSETOPT_REPORT")
	setString(&c.LedgerPath, "ASSETOPT_LEDGER")
	setString(&c.Publish.Endpoint, "ASSETOPT_S3_ENDPOINT")
	setString(&c.Publish.Region, "ASSETOPT_S3_REGION")
	setString(&c.Publish.Bucket, "ASSETOPT_S3_BUCKET")
	setString(&c.Publish.AccessKey, "ASSETOPT_S3_ACCESS_KEY")
	setString(&c.Publish.SecretKey, "ASSETOPT_S3_SECRET_KEY")
	setString(&c.Publish.Prefix, "ASSETOPT_S3_PREFIX")

	if envTruthy("ASSETOPT_VERBOSE") {
		c.Verbose = true
	}
	if envTruthy("ASSETOPT_INCREMENTAL") {
		c.Incremental = true
	}
	if envTruthy("ASSETOPT_HERO_VARIANTS") {
		c.HeroVariants = true
	}
	if val := envOrEmpty("ASSETOPT_S3_USE_SSL"); val != "" {
		c.Publish.UseSSL = envTruthy("ASSETOPT_S3_USE_SSL")
	}
	if val := envOrEmpty("ASSETOPT_WORKERS"); val != "" {
		workers, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("ASSETOPT_WORKERS: %w", err)
		}
		c.Workers = workers
	}
	return nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.SourceRoot) == "" {
		return errors.New("source root is required")
	}
	if strings.TrimSpace(c.DestRoot) == "" {
		return errors.New("destination root is required")
	}
	if c.BrandDir == "" || c.ClientsDir == "" {
		return errors.New("brand and clients folder names are required")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if _, err := c.PresetTable(); err != nil {
		return err
	}
	return nil
}

// PresetTable merges configured overrides into the default presets.
func (c Config) PresetTable() (domain.PresetTable, error) {
	table := domain.DefaultPresets()
	for name, override := range c.Presets {
		preset, ok := table[domain.PresetName(name)]
		if !ok {
			return nil, fmt.Errorf("unknown preset %q", name)
		}
		if override.Width != 0 {
			preset.Width = override.Width
		}
		if override.Quality != 0 {
			preset.Quality = override.Quality
		}
		table[preset.Name] = preset
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

func (c Config) AssetsRoot() string {
	return filepath.Join(c.SourceRoot, c.AssetsDir)
}

func (c Config) BrandRoot() string {
	return filepath.Join(c.AssetsRoot(), c.BrandDir)
}

func (c Config) ClientsRoot() string {
	return filepath.Join(c.AssetsRoot(), c.ClientsDir)
}

func (c Config) ReportPath() string {
	if c.ReportName == "" {
		return ""
	}
	return filepath.Join(c.DestRoot, c.ReportName)
}

func (c Config) Ledger() string {
	if c.LedgerPath != "" {
		return c.LedgerPath
	}
	return filepath.Join(c.DestRoot, ".assetopt.db")
}

func setString(target *string, key string) {
	if val := envOrEmpty(key); val != "" {
		*target = val
	}
}

func envOrEmpty(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func envTruthy(key string) bool {
	val := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	return val == "1" || val == "true" || val == "yes" || val == "y"
}
