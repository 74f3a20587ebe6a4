package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LogLevel int `yaml:"log_level"`

	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Mail     MailConfig     `yaml:"mail"`
	Analysis AnalysisConfig `yaml:"analysis"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type StorageConfig struct {
	// Type of storage: "local" or "gcs"
	Type string `yaml:"type"`

	// Local storage options
	OutputDir string `yaml:"output_dir"`

	// GCS options
	Bucket          string `yaml:"bucket"`
	ObjectPrefix    string `yaml:"object_prefix"`
	CredentialsFile string `yaml:"credentials_file"`
}

type MailConfig struct {
	BaseURL    string `yaml:"base_url"`
	MaxResults int    `yaml:"max_results"`
}

type AnalysisConfig struct {
	UserAgent             string `yaml:"user_agent"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config *Config

	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, err
	}

	// An empty file unmarshals to nil.
	if config == nil {
		config = &Config{}
	}

	// Set defaults if not provided
	if config.Server.Port == "" {
		config.Server.Port = "8080"
	}

	if config.Storage.Type == "" {
		config.Storage.Type = "local"
	}

	if config.Storage.OutputDir == "" {
		config.Storage.OutputDir = "reports"
	}

	if config.Mail.BaseURL == "" {
		config.Mail.BaseURL = "https://gmail.googleapis.com"
	}

	if config.Mail.MaxResults == 0 {
		config.Mail.MaxResults = 10
	}

	if config.Analysis.UserAgent == "" {
		config.Analysis.UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
	}

	if config.Analysis.RequestTimeoutSeconds == 0 {
		config.Analysis.RequestTimeoutSeconds = 30
	}

	return config, nil
}
