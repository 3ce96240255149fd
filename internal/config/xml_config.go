// Package config provides XML-based configuration management for air-gapped deployment.
package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/labstack/gommon/bytes"
)

// ConfigFileName is the name of the configuration file next to the executable.
const ConfigFileName = "FloorplanManager.exe.config"

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"FloorplanManager"`

	// Server configuration
	Server ServerConfig `xml:"Server"`

	// Storage configuration
	Storage StorageConfig `xml:"Storage"`

	// S3-compatible upload storage, used when Storage.Backend is "s3"
	ObjectStore ObjectStoreConfig `xml:"ObjectStore"`

	// Floorplan editor configuration
	Editor EditorConfig `xml:"Editor"`

	// Security configuration
	Security SecurityConfig `xml:"Security"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port"`
	BindAddress  string `xml:"BindAddress"`
	EnableCORS   bool   `xml:"EnableCORS"`
	AllowOrigins string `xml:"AllowOrigins"`
	ReadTimeout  int    `xml:"ReadTimeoutSeconds"`
	WriteTimeout int    `xml:"WriteTimeoutSeconds"`
	IdleTimeout  int    `xml:"IdleTimeoutSeconds"`
	BodyLimit    string `xml:"BodyLimit"`
}

// StorageConfig contains database and file storage settings
type StorageConfig struct {
	DataDirectory    string `xml:"DataDirectory"`
	UploadsDirectory string `xml:"UploadsDirectory"`
	DatabaseDriver   string `xml:"DatabaseDriver"` // duckdb or sqlite
	DatabaseFile     string `xml:"DatabaseFile"`
	Backend          string `xml:"Backend"` // local or s3
	CatalogFile      string `xml:"CatalogFile"`
}

// ObjectStoreConfig contains S3-compatible storage settings
type ObjectStoreConfig struct {
	Endpoint      string `xml:"Endpoint"`
	Bucket        string `xml:"Bucket"`
	Prefix        string `xml:"Prefix"`
	Region        string `xml:"Region"`
	AccessKey     string `xml:"AccessKey"`
	SecretKey     string `xml:"SecretKey"`
	AccessKeyFile string `xml:"AccessKeyFile"`
	SecretKeyFile string `xml:"SecretKeyFile"`
}

// EditorConfig contains viewport and interaction settings
type EditorConfig struct {
	MinZoom                float64 `xml:"MinZoom"`
	MaxZoom                float64 `xml:"MaxZoom"`
	ZoomStep               float64 `xml:"ZoomStep"`
	FitMargin              float64 `xml:"FitMargin"`
	MinHandleBoxPx         float64 `xml:"MinHandleBoxPx"`
	HandleHitPx            float64 `xml:"HandleHitPx"`
	SerializeCommits       bool    `xml:"SerializeCommits"`
	CommitTimeoutSeconds   int     `xml:"CommitTimeoutSeconds"`
	MaxSessions            int     `xml:"MaxSessions"`
	SessionTimeoutMinutes  int     `xml:"SessionTimeoutMinutes"`
	CleanupIntervalMinutes int     `xml:"CleanupIntervalMinutes"`
}

// SecurityConfig contains security settings
type SecurityConfig struct {
	AllowDeletion     bool   `xml:"AllowDeletion"`
	AllowedImageTypes string `xml:"AllowedImageTypes"`
	MaxImageSize      string `xml:"MaxImageSize"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel                string `xml:"LogLevel"`
	EnableRequestLogging    bool   `xml:"EnableRequestLogging"`
	EnableCompression       bool   `xml:"EnableCompression"`
	CompressionLevel        int    `xml:"CompressionLevel"`
	EnableMetrics           bool   `xml:"EnableMetrics"`
	WebSocketMaxMessageSize int    `xml:"WebSocketMaxMessageSizeKB"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8090,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  120,
			BodyLimit:    "50M",
		},
		Storage: StorageConfig{
			DataDirectory:    "./data",
			UploadsDirectory: "./data/uploads",
			DatabaseDriver:   "duckdb",
			DatabaseFile:     "./data/floorplans.db",
			Backend:          "local",
		},
		ObjectStore: ObjectStoreConfig{
			Prefix: "uploads",
		},
		Editor: EditorConfig{
			MinZoom:                0.1,
			MaxZoom:                10,
			ZoomStep:               1.1,
			FitMargin:              0.9,
			MinHandleBoxPx:         20,
			HandleHitPx:            10,
			SerializeCommits:       true,
			CommitTimeoutSeconds:   10,
			MaxSessions:            32,
			SessionTimeoutMinutes:  30,
			CleanupIntervalMinutes: 5,
		},
		Security: SecurityConfig{
			AllowDeletion:     true,
			AllowedImageTypes: ".png,.jpg,.jpeg,.gif,.svg,.webp",
			MaxImageSize:      "20M",
		},
		Advanced: AdvancedConfig{
			LogLevel:                "info",
			EnableRequestLogging:    true,
			EnableCompression:       true,
			CompressionLevel:        5,
			EnableMetrics:           true,
			WebSocketMaxMessageSize: 64,
		},
	}
}

// LoadConfig loads configuration from XML file
func LoadConfig(configPath string) (*AppConfig, error) {
	config := DefaultConfig()

	// If file doesn't exist, create default
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := xml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Resolve relative paths
	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- Floorplan Manager Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks values that cannot be defaulted silently.
func (c *AppConfig) Validate() error {
	switch c.Storage.DatabaseDriver {
	case "duckdb", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q (want duckdb or sqlite)", c.Storage.DatabaseDriver)
	}

	switch c.Storage.Backend {
	case "local":
	case "s3":
		if c.ObjectStore.Endpoint == "" || c.ObjectStore.Bucket == "" {
			return fmt.Errorf("storage backend s3 requires ObjectStore Endpoint and Bucket")
		}
	default:
		return fmt.Errorf("unsupported storage backend %q (want local or s3)", c.Storage.Backend)
	}

	if c.Editor.MinZoom > 0 && c.Editor.MaxZoom > 0 && c.Editor.MinZoom >= c.Editor.MaxZoom {
		return fmt.Errorf("editor MinZoom %g must be below MaxZoom %g", c.Editor.MinZoom, c.Editor.MaxZoom)
	}
	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	// PORT override
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	// DATA_DIR override moves everything that lives under the data directory
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Storage.DataDirectory = dataDir
		c.Storage.UploadsDirectory = filepath.Join(dataDir, "uploads")
		c.Storage.DatabaseFile = filepath.Join(dataDir, filepath.Base(c.Storage.DatabaseFile))
	}

	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Storage.DatabaseDriver = strings.ToLower(driver)
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	for _, p := range []*string{
		&c.Storage.DataDirectory,
		&c.Storage.UploadsDirectory,
		&c.Storage.DatabaseFile,
		&c.Storage.CatalogFile,
		&c.ObjectStore.AccessKeyFile,
		&c.ObjectStore.SecretKeyFile,
	} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(configDir, *p)
		}
	}
}

// GetDataDir returns the absolute data directory path
func (c *AppConfig) GetDataDir() string {
	return c.Storage.DataDirectory
}

// GetUploadDir returns the absolute uploads directory path
func (c *AppConfig) GetUploadDir() string {
	return c.Storage.UploadsDirectory
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// AllowedImageTypes returns the lowercased extensions accepted for uploads.
func (c *AppConfig) AllowedImageTypes() []string {
	var out []string
	for _, ext := range strings.Split(c.Security.AllowedImageTypes, ",") {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" {
			out = append(out, ext)
		}
	}
	return out
}

// MaxImageBytes parses Security.MaxImageSize ("20M", "512KB"). Empty means
// unlimited.
func (c *AppConfig) MaxImageBytes() (int64, error) {
	if strings.TrimSpace(c.Security.MaxImageSize) == "" {
		return 0, nil
	}
	n, err := bytes.Parse(c.Security.MaxImageSize)
	if err != nil {
		return 0, fmt.Errorf("invalid MaxImageSize %q: %w", c.Security.MaxImageSize, err)
	}
	return n, nil
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{
		c.Storage.DataDirectory,
		c.Storage.UploadsDirectory,
		filepath.Dir(c.Storage.DatabaseFile),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
