// Package config loads the binary's environment-variable configuration.
// There is no config-file or CLI-flag layer (out of scope) — every setting
// comes from the process environment, read with envconfig.
package config

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// validate caches the validator's reflected struct metadata across calls.
var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
}

// Provider names a supported object-store profile (§6's two listed
// profiles).
type Provider string

const (
	ProviderAWS          Provider = "aws"
	ProviderDigitalOcean Provider = "digitalocean"
)

// Config is the complete set of environment-driven settings for
// cmd/datasetxfer.
type Config struct {
	// ObjectStore holds object-store endpoint/region/bucket/credentials.
	ObjectStore ObjectStoreConfig
	// Metadata holds the metadata service's base URL and bearer token.
	Metadata MetadataConfig
	// ConcurrentRequestLimit bounds in-flight part uploads per file.
	ConcurrentRequestLimit int `envconfig:"CONCURRENT_REQUEST_LIMIT" default:"10"`
	// MaxFilesConcurrently bounds in-flight file transfers per command.
	MaxFilesConcurrently int `envconfig:"MAX_FILES_CONCURRENTLY" default:"4"`
	// RateLimitBytesPerSecond caps the read throughput of each file transfer
	// separately (every upload file read and every download body gets its
	// own limiter, so the total is not capped); 0 disables the cap.
	RateLimitBytesPerSecond float64 `envconfig:"RATE_LIMIT_BYTES_PER_SECOND" default:"0"`
}

// ObjectStoreConfig configures the S3-compatible object store.
type ObjectStoreConfig struct {
	Provider        Provider `envconfig:"PROVIDER" default:"aws" validate:"oneof=aws digitalocean"`
	Endpoint        string   `envconfig:"ENDPOINT"`
	Region          string   `envconfig:"REGION" validate:"required"`
	Bucket          string   `envconfig:"BUCKET" validate:"required"`
	AccessKeyID     string   `envconfig:"ACCESS_KEY_ID" validate:"required"`
	SecretAccessKey string   `envconfig:"SECRET_ACCESS_KEY" validate:"required"`
}

// MetadataConfig configures the PostgREST-style dataset/file service.
type MetadataConfig struct {
	BaseURL     string `envconfig:"BASE_URL" validate:"required,url"`
	BearerToken string `envconfig:"BEARER_TOKEN" validate:"required"`
}

// Load reads Config from the process environment under the DATASETXFER_
// prefix. Nested fields pick up their enclosing field name automatically,
// e.g. ObjectStore.Region reads DATASETXFER_OBJECTSTORE_REGION.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("datasetxfer", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every required field and format constraint.
func (c Config) Validate(ctx context.Context) error {
	return validate.StructCtx(ctx, c)
}
