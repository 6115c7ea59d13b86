package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Cloudinary CloudinaryConfig `mapstructure:"cloudinary"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	CORS       CORSConfig       `mapstructure:"cors"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

// CloudinaryConfig carries the media provider credentials plus the fixed
// destination folders used by the upload handlers. CloudName and APIKey are
// public values that may be echoed to clients; APISecret never leaves the
// server.
type CloudinaryConfig struct {
	CloudName   string `mapstructure:"cloud_name"`
	APIKey      string `mapstructure:"api_key"`
	APISecret   string `mapstructure:"api_secret"`
	ImageFolder string `mapstructure:"image_folder"`
	VideoFolder string `mapstructure:"video_folder"`
}

// Configured reports whether all required provider credentials are present.
func (c CloudinaryConfig) Configured() bool {
	return c.CloudName != "" && c.APIKey != "" && c.APISecret != ""
}

// JWTConfig defines JWT specific configuration.
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ErrMissingCredentials is returned by Validate when the media provider
// credentials are not fully configured.
var ErrMissingCredentials = errors.New("cloudinary credentials not configured")

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Environment variables override the file, e.g.
	// cloudinary.api_secret -> CLOUDINARY_API_SECRET
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("database.uri", "mongodb://localhost:27017")
	viper.SetDefault("database.name", "media_app")
	viper.SetDefault("cloudinary.image_folder", "image-uploads")
	viper.SetDefault("cloudinary.video_folder", "video-uploads")
	viper.SetDefault("jwt.expiration", "1h")

	// Register secret-bearing keys so env-only values survive Unmarshal.
	viper.SetDefault("cloudinary.cloud_name", "")
	viper.SetDefault("cloudinary.api_key", "")
	viper.SetDefault("cloudinary.api_secret", "")
	viper.SetDefault("jwt.secret", "")
	viper.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})

	err = viper.ReadInConfig()
	// Running without a config file is fine; env vars and defaults cover it.
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil
	} else if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}

// Validate checks the values main cannot start without. Provider credentials
// are checked here so a misconfigured deployment fails at boot instead of on
// the first upload.
func (c Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt secret is not set")
	}
	if !c.Cloudinary.Configured() {
		return ErrMissingCredentials
	}
	return nil
}
