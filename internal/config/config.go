package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type ChannelsConfig struct {
	// уносить ли сообщения канала/диалога при его удалении
	CascadeDeleteMessages bool `yaml:"cascade_delete_messages"`
}

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		URI  string `yaml:"uri"`
		Name string `yaml:"name"`
	} `yaml:"database"`
	JWT struct {
		Secret string `yaml:"secret"`
	} `yaml:"jwt"`
	Email struct {
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUser     string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
	} `yaml:"email"`
	Channels ChannelsConfig `yaml:"channels"`
}

func LoadConfig() *Config {
	var cfg Config

	if f, err := os.Open("config/config.yaml"); err == nil {
		defer f.Close()
		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			panic("Failed to parse config.yaml: " + err.Error())
		}
	}

	// дефолты + переопределение из ENV (секреты в yaml не храним)
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 4000
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		cfg.Database.URI = v
	}
	if cfg.Database.URI == "" {
		cfg.Database.URI = "mongodb://127.0.0.1:27017"
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "backchannel"
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if cfg.JWT.Secret == "" {
		panic("JWT secret is not configured (jwt.secret or JWT_SECRET)")
	}
	return &cfg
}
