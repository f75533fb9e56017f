package config

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	PhotoStorageDisk   = "disk"
	PhotoStorageS3     = "s3"
	PhotoStorageMemory = "memory"
)

// Config holds runtime configuration for the profile service.
type Config struct {
	AppEnv      string `env:"APP_ENV,default=development"`
	HTTPAddr    string `env:"HTTP_ADDR,default=:8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`

	JWTSecret        string        `env:"JWT_SECRET,required"`
	JWTRefreshSecret string        `env:"JWT_REFRESH_SECRET"`
	JWTIssuer        string        `env:"JWT_ISSUER,default=profilehub"`
	AccessTokenTTL   time.Duration `env:"ACCESS_TOKEN_TTL,default=2000s"`
	RefreshTokenTTL  time.Duration `env:"REFRESH_TOKEN_TTL,default=4000s"`
	CookieDomain     string        `env:"COOKIE_DOMAIN"`
	CookieSecure     bool          `env:"COOKIE_SECURE,default=true"`
	BcryptCost       int           `env:"BCRYPT_COST,default=10"`

	PhotoStorage string `env:"PHOTO_STORAGE,default=disk"`
	UploadDir    string `env:"UPLOAD_DIR,default=uploads"`
	MaxPhotoSize int64  `env:"MAX_PHOTO_SIZE,default=10485760"`
	S3           S3Config

	OTLPEndpoint       string   `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	AllowedOrigins     []string `env:"CORS_ALLOWED_ORIGINS"`
	LoginRatePerSecond float64  `env:"LOGIN_RATE_PER_SECOND,default=2"`
	LoginRateBurst     int      `env:"LOGIN_RATE_BURST,default=4"`
}

type S3Config struct {
	Endpoint       string        `env:"S3_ENDPOINT"`
	Bucket         string        `env:"S3_BUCKET"`
	AccessKey      string        `env:"S3_ACCESS_KEY"`
	SecretKey      string        `env:"S3_SECRET_KEY"`
	Region         string        `env:"S3_REGION,default=us-east-1"`
	ForcePathStyle bool          `env:"S3_FORCE_PATH_STYLE,default=true"`
	PresignTTL     time.Duration `env:"S3_PRESIGN_TTL,default=15m"`
}

// Load reads an optional .env file and then the process environment.
func Load(ctx context.Context) (Config, error) {
	_ = godotenv.Load()
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return Config{}, err
	}
	if cfg.JWTRefreshSecret == "" {
		cfg.JWTRefreshSecret = cfg.JWTSecret
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	switch c.AppEnv {
	case EnvDevelopment, EnvTest, EnvProduction:
	default:
		errs = append(errs, fmt.Errorf("APP_ENV %q is not one of development, test, production", c.AppEnv))
	}
	if c.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_TTL must be positive"))
	}
	if c.RefreshTokenTTL <= c.AccessTokenTTL {
		errs = append(errs, errors.New("REFRESH_TOKEN_TTL must exceed ACCESS_TOKEN_TTL"))
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("BCRYPT_COST %d is outside 4..31", c.BcryptCost))
	}
	if c.MaxPhotoSize <= 0 {
		errs = append(errs, errors.New("MAX_PHOTO_SIZE must be positive"))
	}
	switch c.PhotoStorage {
	case PhotoStorageDisk:
		if c.UploadDir == "" {
			errs = append(errs, errors.New("UPLOAD_DIR is required for disk photo storage"))
		}
	case PhotoStorageS3:
		if c.S3.Endpoint == "" || c.S3.Bucket == "" || c.S3.AccessKey == "" || c.S3.SecretKey == "" {
			errs = append(errs, errors.New("S3_ENDPOINT, S3_BUCKET, S3_ACCESS_KEY and S3_SECRET_KEY are required for s3 photo storage"))
		}
	case PhotoStorageMemory:
	default:
		errs = append(errs, fmt.Errorf("PHOTO_STORAGE %q is not one of disk, s3, memory", c.PhotoStorage))
	}
	if c.LoginRatePerSecond <= 0 || c.LoginRateBurst <= 0 {
		errs = append(errs, errors.New("LOGIN_RATE_PER_SECOND and LOGIN_RATE_BURST must be positive"))
	}
	return errors.Join(errs...)
}

func (c Config) IsTest() bool {
	return c.AppEnv == EnvTest
}
