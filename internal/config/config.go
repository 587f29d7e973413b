package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"transferservice/internal/core/domain"
	"transferservice/internal/transfer"
)

// ErrInvalid is wrapped by every configuration error. It stops the process
// before it starts serving.
var ErrInvalid = errors.New("invalid configuration")

// Config defines configuration for the transfer service. It is built once at
// startup and passed by value afterwards.
type Config struct {
	Fields          domain.FieldMapping
	UploadURL       string
	TargetPathInURL bool
	ChunkSize       int
	FailFast        bool
	LogLevel        string
	LogFormat       string
	Port            int
	TempDir         string
	HTTPTimeout     time.Duration
}

// Default returns a Config with every optional setting at its default.
func Default() Config {
	return Config{
		Fields:      domain.DefaultFieldMapping(),
		ChunkSize:   transfer.DefaultChunkSize,
		LogLevel:    "INFO",
		LogFormat:   "console",
		Port:        5000,
		HTTPTimeout: 30 * time.Minute,
	}
}

// yamlConfig is used for YAML unmarshaling with string sizes and durations.
type yamlConfig struct {
	FileURL         string `yaml:"file_url"`
	FileName        string `yaml:"file_name"`
	TargetPath      string `yaml:"target_path"`
	ContentType     string `yaml:"content_type"`
	TargetPathInURL *bool  `yaml:"target_path_in_url"`
	ChunkSize       string `yaml:"chunk_size"`
	UploadURL       string `yaml:"upload_url"`
	FailFastOnError *bool  `yaml:"fail_fast_on_error"`
	LogLevel        string `yaml:"log_level"`
	LogFormat       string `yaml:"log_format"`
	Port            int    `yaml:"port"`
	TempDir         string `yaml:"temp_dir"`
	HTTPTimeout     string `yaml:"http_timeout"`
}

// LoadFromFile overlays settings from a YAML file onto c.
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return fmt.Errorf("%w: parse config file %s: %v", ErrInvalid, path, err)
	}

	setString(&c.Fields.SourceURL, yc.FileURL)
	setString(&c.Fields.FileName, yc.FileName)
	setString(&c.Fields.TargetPath, yc.TargetPath)
	setString(&c.Fields.ContentType, yc.ContentType)
	setString(&c.UploadURL, yc.UploadURL)
	setString(&c.LogLevel, yc.LogLevel)
	setString(&c.LogFormat, yc.LogFormat)
	setString(&c.TempDir, yc.TempDir)
	if yc.TargetPathInURL != nil {
		c.TargetPathInURL = *yc.TargetPathInURL
	}
	if yc.FailFastOnError != nil {
		c.FailFast = *yc.FailFastOnError
	}
	if yc.Port != 0 {
		c.Port = yc.Port
	}
	if yc.ChunkSize != "" {
		size, err := parseChunkSize(yc.ChunkSize)
		if err != nil {
			return fmt.Errorf("%w: chunk_size: %v", ErrInvalid, err)
		}
		c.ChunkSize = size
	}
	if yc.HTTPTimeout != "" {
		d, err := time.ParseDuration(yc.HTTPTimeout)
		if err != nil {
			return fmt.Errorf("%w: http_timeout: %v", ErrInvalid, err)
		}
		c.HTTPTimeout = d
	}
	return nil
}

// LoadFromEnv overlays settings from environment variables onto c.
// lookupEnv is usually os.LookupEnv.
func (c *Config) LoadFromEnv(lookupEnv func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookupEnv(key)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}

	if v, ok := get("FILE_URL"); ok {
		c.Fields.SourceURL = v
	}
	if v, ok := get("FILE_NAME"); ok {
		c.Fields.FileName = v
	}
	if v, ok := get("TARGET_PATH"); ok {
		c.Fields.TargetPath = v
	}
	if v, ok := get("CONTENT_TYPE"); ok {
		c.Fields.ContentType = v
	}
	if v, ok := get("UPLOAD_URL"); ok {
		c.UploadURL = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		c.LogLevel = v
	}
	if v, ok := get("LOG_FORMAT"); ok {
		c.LogFormat = v
	}
	if v, ok := get("TEMP_DIR"); ok {
		c.TempDir = v
	}
	if v, ok := get("TARGET_PATH_IN_URL"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: parse TARGET_PATH_IN_URL: %v", ErrInvalid, err)
		}
		c.TargetPathInURL = b
	}
	if v, ok := get("FAIL_FAST_ON_ERROR"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: parse FAIL_FAST_ON_ERROR: %v", ErrInvalid, err)
		}
		c.FailFast = b
	}
	if v, ok := get("CHUNK_SIZE"); ok {
		size, err := parseChunkSize(v)
		if err != nil {
			return fmt.Errorf("%w: parse CHUNK_SIZE: %v", ErrInvalid, err)
		}
		c.ChunkSize = size
	}
	if v, ok := get("PORT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: parse PORT: %v", ErrInvalid, err)
		}
		c.Port = n
	}
	if v, ok := get("HTTP_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: parse HTTP_TIMEOUT: %v", ErrInvalid, err)
		}
		c.HTTPTimeout = d
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.UploadURL == "" {
		return fmt.Errorf("%w: UPLOAD_URL is required", ErrInvalid)
	}
	u, err := url.Parse(c.UploadURL)
	if err != nil || u.Scheme == "" {
		return fmt.Errorf("%w: UPLOAD_URL %q is not an absolute URL", ErrInvalid, c.UploadURL)
	}
	if c.IsHTTPUpload() && u.Host == "" {
		return fmt.Errorf("%w: UPLOAD_URL %q has no host", ErrInvalid, c.UploadURL)
	}

	fields := map[string]string{
		"FILE_URL":     c.Fields.SourceURL,
		"FILE_NAME":    c.Fields.FileName,
		"TARGET_PATH":  c.Fields.TargetPath,
		"CONTENT_TYPE": c.Fields.ContentType,
	}
	for name, key := range fields {
		if key == "" {
			return fmt.Errorf("%w: %s must name a field", ErrInvalid, name)
		}
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: CHUNK_SIZE must be positive", ErrInvalid)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: PORT %d out of range", ErrInvalid, c.Port)
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("%w: HTTP_TIMEOUT must not be negative", ErrInvalid)
	}
	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		return fmt.Errorf("%w: LOG_FORMAT must be console or json, got %q", ErrInvalid, c.LogFormat)
	}
	if _, ok := lookupLevel(c.LogLevel); !ok {
		return fmt.Errorf("%w: unknown LOG_LEVEL %q", ErrInvalid, c.LogLevel)
	}
	return nil
}

// IsHTTPUpload reports whether uploads are POSTed rather than written to a
// blob bucket.
func (c *Config) IsHTTPUpload() bool {
	lower := strings.ToLower(c.UploadURL)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// parseChunkSize accepts plain byte counts and humanized sizes like "10MiB".
func parseChunkSize(s string) (int, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	if n == 0 || n > 1<<30 {
		return 0, fmt.Errorf("chunk size %d out of range", n)
	}
	return int(n), nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
