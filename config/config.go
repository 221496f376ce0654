package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const minJWTSecretLength = 32

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Server struct {
		Port        int      `yaml:"port"`
		CORSOrigins []string `yaml:"corsOrigins"`
	} `yaml:"server"`

	Database struct {
		URI string `yaml:"uri"`
	} `yaml:"database"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	JWT struct {
		Secret string `yaml:"secret"`
		Expiry int    `yaml:"expiry"` // Token expiry in minutes
	} `yaml:"jwt"`

	Gemini struct {
		ApiKey string `yaml:"apiKey"`
		Model  string `yaml:"model"`
	} `yaml:"gemini"`

	S3 struct {
		Endpoint        string `yaml:"endpoint"`
		Region          string `yaml:"region"`
		Bucket          string `yaml:"bucket"`
		AccessKeyID     string `yaml:"accessKeyId"`
		SecretAccessKey string `yaml:"secretAccessKey"`
		PublicURL       string `yaml:"publicUrl"`
	} `yaml:"s3"`
}

var defaultCORSOrigins = []string{
	"http://localhost:5173",
	"http://localhost:3000",
	"https://rock-spotter.vercel.app",
	"https://rock-spotter-git-main-jmenicholes-projects.vercel.app",
	"https://rock-spotter-jmenicholes-projects.vercel.app",
}

// LoadConfig reads the YAML file at path, loads .env if present and applies
// environment overrides. A missing YAML file is not an error.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// .env is optional, system environment still applies
	_ = godotenv.Load()

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}
	setString(&c.Database.URI, "MONGODB_URI")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.JWT.Secret, "JWT_SECRET")
	if v := os.Getenv("JWT_EXPIRY_MINUTES"); v != "" {
		if minutes, err := strconv.Atoi(v); err == nil {
			c.JWT.Expiry = minutes
		}
	}
	setString(&c.Gemini.ApiKey, "GEMINI_API_KEY")
	setString(&c.Gemini.Model, "GEMINI_MODEL")
	setString(&c.S3.Endpoint, "S3_ENDPOINT")
	setString(&c.S3.Region, "S3_REGION")
	setString(&c.S3.Bucket, "S3_BUCKET")
	setString(&c.S3.AccessKeyID, "S3_ACCESS_KEY_ID")
	setString(&c.S3.SecretAccessKey, "S3_SECRET_ACCESS_KEY")
	setString(&c.S3.PublicURL, "S3_PUBLIC_URL")
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = defaultCORSOrigins
	}
	if c.JWT.Expiry == 0 {
		c.JWT.Expiry = 7 * 24 * 60
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.5-flash"
	}
	if c.S3.Region == "" {
		c.S3.Region = "auto"
	}
}

// Validate checks the settings the server cannot start without
func (c *Config) Validate() error {
	var missing []string
	if c.Database.URI == "" {
		missing = append(missing, "MONGODB_URI")
	}
	if c.JWT.Secret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing required environment variables: %s", ErrInvalidConfig, strings.Join(missing, ", "))
	}
	if len(c.JWT.Secret) < minJWTSecretLength {
		return fmt.Errorf("%w: JWT_SECRET must be at least %d characters long", ErrInvalidConfig, minJWTSecretLength)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
