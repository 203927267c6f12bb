package config

import (
	"encoding/json"
	"errors"
	"time"
)

type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		var err error
		d.Duration, err = time.ParseDuration(value)
		if err != nil {
			return err
		}
		return nil
	default:
		return errors.New("invalid duration")
	}
}

// UnmarshalText lets configuration files and environment variables carry durations as strings.
func (d *Duration) UnmarshalText(b []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(b))

	return err
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

const (
	StorageBackendFileSystem = "filesystem"
	StorageBackendS3         = "s3"
)

type StorageConfig struct {
	Backend    string `mapstructure:"backend"`
	MediaRoot  string `mapstructure:"media_root"`
	S3Bucket   string `mapstructure:"s3_bucket"`
	S3Region   string `mapstructure:"s3_region"`
	S3Endpoint string `mapstructure:"s3_endpoint"`
	S3Prefix   string `mapstructure:"s3_prefix"`
}

type Config struct {
	Address             string        `mapstructure:"address"`
	APIRoot             string        `mapstructure:"api_root"`
	LogLevel            string        `mapstructure:"log_level"`
	LogFormat           string        `mapstructure:"log_format"`
	DatabaseURL         string        `mapstructure:"database_url"`
	MongoURL            string        `mapstructure:"mongo_url"`
	MongoDatabase       string        `mapstructure:"mongo_database"`
	MongoConnectTimeout Duration      `mapstructure:"mongo_connect_timeout"`
	ShutdownTimeout     Duration      `mapstructure:"shutdown_timeout"`
	Workers             int           `mapstructure:"workers"`
	BatchSize           int           `mapstructure:"batch_size"`
	Concurrency         int           `mapstructure:"concurrency"`
	Storage             StorageConfig `mapstructure:"storage"`
	Version             string        `mapstructure:"-"`
}
