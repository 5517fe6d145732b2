package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/layer-3/encore/adapters/credentials"
	"gopkg.in/yaml.v3"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"

	BlobDisk  = "disk"
	BlobMinio = "minio"
)

// Config is the process configuration of the encore server
type Config struct {
	ListenAddress string          `yaml:"listen_address" validate:"required"`
	Debug         bool            `yaml:"debug"`
	Token         TokenConfig     `yaml:"token"`
	RateLimit     RateLimitConfig `yaml:"rate_limit"`

	// Backend selects where credentials, limiter windows and library
	// documents live.
	Backend  string `yaml:"backend" validate:"oneof=memory redis"`
	RedisURL string `yaml:"redis_url" validate:"required_if=Backend redis"`

	Blob        BlobConfig             `yaml:"blob"`
	CORSOrigins []string               `yaml:"cors_origins"`
	SeedUsers   []credentials.SeedUser `yaml:"seed_users" validate:"dive"`

	// TrustedProxies are IPs/CIDRs allowed to set X-Forwarded-For.
	// Empty trusts no proxy, so clients are keyed by their remote address.
	TrustedProxies []string `yaml:"trusted_proxies" validate:"dive,cidr|ip"`
}

type TokenConfig struct {
	Secret   string        `yaml:"secret" validate:"required,min=16"`
	Validity time.Duration `yaml:"validity" validate:"gt=0"`
}

type RateLimitConfig struct {
	WindowMs int64 `yaml:"window_ms" validate:"gt=0"`
	Max      int   `yaml:"max" validate:"gte=1"`
}

// Window returns the window length as a duration
func (c RateLimitConfig) Window() time.Duration {
	return time.Duration(c.WindowMs) * time.Millisecond
}

type BlobConfig struct {
	Backend    string      `yaml:"backend" validate:"oneof=disk minio"`
	UploadsDir string      `yaml:"uploads_dir" validate:"required_if=Backend disk"`
	Minio      MinioConfig `yaml:"minio"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
	PublicURL string `yaml:"public_url"`
}

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	return &Config{
		ListenAddress: ":3000",
		Token: TokenConfig{
			Validity: time.Hour,
		},
		RateLimit: RateLimitConfig{
			WindowMs: 15 * 60 * 1000,
			Max:      100,
		},
		Backend: BackendMemory,
		Blob: BlobConfig{
			Backend:    BlobDisk,
			UploadsDir: "uploads",
		},
		SeedUsers: append([]credentials.SeedUser(nil), credentials.DefaultSeedUsers...),
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path, the given dotenv files (".env" when none) and the process
// environment, in increasing order of precedence. Missing dotenv files are
// ignored. The result is validated.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	dotenv := map[string]string{}
	for _, f := range envFiles {
		vars, err := godotenv.Read(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f, err)
		}
		for k, v := range vars {
			if _, seen := dotenv[k]; !seen {
				dotenv[k] = v
			}
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if port, ok := lookup("PORT"); ok && port != "" {
		c.ListenAddress = ":" + port
	}
	str("ENCORE_LISTEN_ADDRESS", &c.ListenAddress)
	str("ENCORE_TOKEN_SECRET", &c.Token.Secret)
	str("ENCORE_BACKEND", &c.Backend)
	str("REDIS_URL", &c.RedisURL)
	str("ENCORE_BLOB_BACKEND", &c.Blob.Backend)
	str("ENCORE_UPLOADS_DIR", &c.Blob.UploadsDir)
	str("MINIO_ENDPOINT", &c.Blob.Minio.Endpoint)
	str("MINIO_ACCESS_KEY", &c.Blob.Minio.AccessKey)
	str("MINIO_SECRET_KEY", &c.Blob.Minio.SecretKey)
	str("MINIO_BUCKET", &c.Blob.Minio.Bucket)
	str("MINIO_PUBLIC_URL", &c.Blob.Minio.PublicURL)

	if v, ok := lookup("ENCORE_TOKEN_VALIDITY"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid ENCORE_TOKEN_VALIDITY: %w", err)
		}
		c.Token.Validity = d
	}
	if v, ok := lookup("ENCORE_RATE_LIMIT_WINDOW_MS"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid ENCORE_RATE_LIMIT_WINDOW_MS: %w", err)
		}
		c.RateLimit.WindowMs = n
	}
	if v, ok := lookup("ENCORE_RATE_LIMIT_MAX"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid ENCORE_RATE_LIMIT_MAX: %w", err)
		}
		c.RateLimit.Max = n
	}
	if v, ok := lookup("MINIO_USE_SSL"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid MINIO_USE_SSL: %w", err)
		}
		c.Blob.Minio.UseSSL = b
	}
	if v, ok := lookup("ENCORE_CORS_ORIGINS"); ok && v != "" {
		c.CORSOrigins = splitList(v)
	}
	if v, ok := lookup("ENCORE_TRUSTED_PROXIES"); ok && v != "" {
		c.TrustedProxies = splitList(v)
	}
	if v, ok := lookup("ENCORE_DEBUG"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid ENCORE_DEBUG: %w", err)
		}
		c.Debug = b
	}

	return nil
}

// splitList parses a comma separated list, dropping empty entries
func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate reports the first configuration problem found
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Blob.Backend == BlobMinio {
		m := c.Blob.Minio
		if m.Endpoint == "" || m.Bucket == "" || m.PublicURL == "" {
			return errors.New("invalid configuration: minio blob backend needs endpoint, bucket and public_url")
		}
	}

	seen := make(map[string]bool, len(c.SeedUsers))
	for _, u := range c.SeedUsers {
		if seen[u.Username] {
			return fmt.Errorf("invalid configuration: duplicate seed user %q", u.Username)
		}
		seen[u.Username] = true
	}

	return nil
}
