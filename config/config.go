package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Config struct {
	Env            string
	Port           string
	APIPrefix      string
	MongoURI       string
	DBName         string
	JWTSecret      string
	AllowedOrigins []string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string

	MaxUploadFiles  int
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	// Set during startup.
	MongoClient *mongo.Client
	Logger      *zap.Logger
}

// Load reads an optional .env file, then the process environment.
// Environment variables win over .env values.
func Load(envFiles ...string) (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load(envFiles...)

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Env:                 v.GetString("APP_ENV"),
		Port:                v.GetString("PORT"),
		APIPrefix:           strings.TrimRight(v.GetString("API_PREFIX"), "/"),
		MongoURI:            v.GetString("MONGO_URI"),
		DBName:              v.GetString("DB_NAME"),
		JWTSecret:           v.GetString("JWT_SECRET"),
		AllowedOrigins:      splitList(v.GetString("CORS_ORIGINS")),
		CloudinaryCloudName: v.GetString("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    v.GetString("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: v.GetString("CLOUDINARY_API_SECRET"),
		CloudinaryFolder:    v.GetString("CLOUDINARY_FOLDER"),
		MaxUploadFiles:      v.GetInt("MAX_UPLOAD_FILES"),
		RequestTimeout:      v.GetDuration("REQUEST_TIMEOUT"),
		ShutdownTimeout:     v.GetDuration("SHUTDOWN_TIMEOUT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("PORT", "8080")
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("CLOUDINARY_FOLDER", "events")
	v.SetDefault("MAX_UPLOAD_FILES", 10)
	v.SetDefault("REQUEST_TIMEOUT", "10s")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
}

func (c *Config) Validate() error {
	var errs []error
	if c.MongoURI == "" {
		errs = append(errs, errors.New("MONGO_URI is required"))
	}
	if c.DBName == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if c.MaxUploadFiles <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_FILES must be positive"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
