package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Database struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
	} `mapstructure:"database"`
	Redis struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		Password string `mapstructure:"password"`
	} `mapstructure:"redis"`
	Server struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`
	JWT struct {
		SecretKey  string        `mapstructure:"secret_key"`
		AccessTTL  time.Duration `mapstructure:"access_ttl"`
		RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
	} `mapstructure:"jwt"`
	Cleanup struct {
		Interval time.Duration `mapstructure:"interval"`
	} `mapstructure:"cleanup"`
	RateLimit struct {
		Enabled     bool          `mapstructure:"enabled"`
		MaxAttempts int           `mapstructure:"max_attempts"`
		Window      time.Duration `mapstructure:"window"`
	} `mapstructure:"rate_limit"`
}

var AppConfig Config

func LoadConfig(path string) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yml")

	viper.AutomaticEnv()

	viper.SetDefault("jwt.access_ttl", 30*time.Minute)
	viper.SetDefault("jwt.refresh_ttl", 24*time.Hour)
	viper.SetDefault("cleanup.interval", 24*time.Hour)
	viper.SetDefault("rate_limit.max_attempts", 10)
	viper.SetDefault("rate_limit.window", time.Minute)

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file, %s", err)
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}
}
