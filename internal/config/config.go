package config

import (
	"log"
	"os"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Address string `yaml:"address"`
	} `yaml:"server"`
	Database struct {
		Driver string `yaml:"driver"`
		URL    string `yaml:"url"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Firebase struct {
		// Base64-encoded service account JSON (FB_SERVICE_KEY).
		ServiceKey string `yaml:"service_key"`
	} `yaml:"firebase"`
	SSLCommerz struct {
		StoreID       string `yaml:"store_id"`
		StorePass     string `yaml:"store_pass"`
		BaseURL       string `yaml:"base_url"`
		ServerBaseURL string `yaml:"server_base_url"`
		ClientBaseURL string `yaml:"client_base_url"`
	} `yaml:"sslcommerz"`
	Storage struct {
		AccessKey     string `yaml:"access_key"`
		SecretKey     string `yaml:"secret_key"`
		Region        string `yaml:"region"`
		Endpoint      string `yaml:"endpoint"`
		Bucket        string `yaml:"bucket"`
		PublicBaseURL string `yaml:"public_base_url"`
	} `yaml:"storage"`
}

func LoadConfig() Config {
	var cfg Config

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config/config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read config file: %v", err)
	}

	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		log.Fatalf("Failed to unmarshal config data: %v", err)
	}

	// Secrets come from the environment when present.
	applyEnvOverrides(&cfg)
	return cfg
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("FB_SERVICE_KEY"); v != "" {
		cfg.Firebase.ServiceKey = v
	}
	if v := os.Getenv("SSL_STORE_ID"); v != "" {
		cfg.SSLCommerz.StoreID = v
	}
	if v := os.Getenv("SSL_STORE_PASS"); v != "" {
		cfg.SSLCommerz.StorePass = v
	}
	if v := os.Getenv("SERVER_BASE_URL"); v != "" {
		cfg.SSLCommerz.ServerBaseURL = v
	}
	if v := os.Getenv("CLIENT_BASE_URL"); v != "" {
		cfg.SSLCommerz.ClientBaseURL = v
	}
	if v := os.Getenv("S3_ACCESS_KEY"); v != "" {
		cfg.Storage.AccessKey = v
	}
	if v := os.Getenv("S3_SECRET_KEY"); v != "" {
		cfg.Storage.SecretKey = v
	}
}
