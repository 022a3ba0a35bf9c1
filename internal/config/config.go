package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Environment
	Env      string // "development", "production", etc.
	LogLevel string

	// Server
	ServerAddr string
	BaseURL    string

	// Database
	DatabaseURL string

	// Redis backs sessions and the request limiter when set.
	RedisURL string

	// TLS
	TLSEnabled  bool
	TLSCertFile string
	TLSKeyFile  string

	// OIDC
	OIDCIssuer       string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURL  string
	OIDCAdminClaim   string // claim checked for admin membership, e.g. "groups"
	OIDCAdminValue   string // value of OIDCAdminClaim that grants admin

	// Session
	SessionSecret string // Used for signing cookies (min 32 chars)

	// CORS
	CORSOrigins string // Comma-separated allowed origins

	// Per-IP request ceiling across the whole app, per minute.
	RequestRateLimit int

	// Site Branding
	SiteTitle   string
	SiteTagline string

	// Image storage
	ImageStorage        string // local, gridfs, cloudinary
	UploadDir           string
	UploadURLPrefix     string
	MongoURI            string
	MongoDatabase       string
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string

	// SMTP
	SMTPEnabled  bool
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string
	SMTPTLS      string // none, tls, starttls

	// Email notification toggles
	EmailNotifyOwnerOnReview    bool
	EmailNotifyAdminsOnReview   bool
	EmailNotifyAuthorOnDecision bool

	// Pending review digest. Zero interval disables the job.
	DigestInterval   time.Duration
	DigestStaleAfter time.Duration

	Policy Policy
}

// Policy enumerates the anti-abuse and upload limits handed to each component.
type Policy struct {
	ReviewRateLimit      int
	ReviewRateWindow     time.Duration
	MinReviewLength      int
	SimilarContentWindow time.Duration
	SimilarPrefixLength  int

	MaxImageBytes        int64
	MaxImagesPerProperty int
	AllowedExtensions    []string

	BlockedPhrases   []string
	BlockedPatterns  []string
	PronounThreshold int
	PronounMaxLength int
}

// DefaultPolicy returns the built-in limits.
func DefaultPolicy() Policy {
	return Policy{
		ReviewRateLimit:      3,
		ReviewRateWindow:     60 * time.Minute,
		MinReviewLength:      50,
		SimilarContentWindow: 24 * time.Hour,
		SimilarPrefixLength:  50,
		MaxImageBytes:        5 << 20,
		MaxImagesPerProperty: 6,
		AllowedExtensions:    []string{".jpg", ".jpeg", ".png", ".gif", ".webp"},
		BlockedPhrases: []string{
			"stupid", "idiot", "moron", "loser", "jerk", "asshole", "bastard",
			"hate you", "you are", "you're a", "you suck", "kill yourself",
			"you should die", "you deserve", "fuck you", "damn you",
		},
		PronounThreshold: 5,
		PronounMaxLength: 200,
	}
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	policy := DefaultPolicy()
	policy.ReviewRateLimit = getEnvInt("REVIEW_RATE_LIMIT", policy.ReviewRateLimit)
	policy.ReviewRateWindow = getEnvDuration("REVIEW_RATE_WINDOW", policy.ReviewRateWindow)
	policy.MinReviewLength = getEnvInt("MIN_REVIEW_LENGTH", policy.MinReviewLength)
	policy.MaxImageBytes = int64(getEnvInt("MAX_IMAGE_BYTES", int(policy.MaxImageBytes)))
	policy.MaxImagesPerProperty = getEnvInt("MAX_IMAGES_PER_PROPERTY", policy.MaxImagesPerProperty)

	return &Config{
		Env:              getEnv("ENV", "development"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		ServerAddr:       getEnv("SERVER_ADDR", ":3000"),
		BaseURL:          getEnv("BASE_URL", "http://localhost:3000"),
		DatabaseURL:      getEnv("DATABASE_URL", "postgres://localhost:5432/propreviews?sslmode=disable"),
		RedisURL:         getEnv("REDIS_URL", ""),
		TLSEnabled:       getEnv("TLS_ENABLED", "") != "",
		TLSCertFile:      getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:       getEnv("TLS_KEY_FILE", ""),
		OIDCIssuer:       getEnv("OIDC_ISSUER", ""),
		OIDCClientID:     getEnv("OIDC_CLIENT_ID", ""),
		OIDCClientSecret: getEnv("OIDC_CLIENT_SECRET", ""),
		OIDCRedirectURL:  getEnv("OIDC_REDIRECT_URL", "http://localhost:3000/auth/callback"),
		OIDCAdminClaim:   getEnv("OIDC_ADMIN_CLAIM", "groups"),
		OIDCAdminValue:   getEnv("OIDC_ADMIN_VALUE", ""),
		SessionSecret:    getEnv("SESSION_SECRET", "change-me-in-production-min-32-chars"),
		CORSOrigins:      getEnv("CORS_ORIGINS", ""),
		RequestRateLimit: getEnvInt("REQUEST_RATE_LIMIT", 100),

		SiteTitle:   getEnv("SITE_TITLE", "Property Reviews"),
		SiteTagline: getEnv("SITE_TAGLINE", "Honest reviews from people who lived there"),

		ImageStorage:        getEnv("IMAGE_STORAGE", "local"),
		UploadDir:           getEnv("UPLOAD_DIR", "./uploads"),
		UploadURLPrefix:     getEnv("UPLOAD_URL_PREFIX", "/uploads"),
		MongoURI:            getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:       getEnv("MONGO_DATABASE", "propreviews"),
		CloudinaryCloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),
		CloudinaryFolder:    getEnv("CLOUDINARY_FOLDER", ""),

		SMTPEnabled:  getEnv("SMTP_HOST", "") != "",
		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", ""),
		SMTPFromName: getEnv("SMTP_FROM_NAME", ""),
		SMTPTLS:      getEnv("SMTP_TLS", "starttls"),

		EmailNotifyOwnerOnReview:    getEnv("EMAIL_NOTIFY_OWNER_ON_REVIEW", "true") == "true",
		EmailNotifyAdminsOnReview:   getEnv("EMAIL_NOTIFY_ADMINS_ON_REVIEW", "true") == "true",
		EmailNotifyAuthorOnDecision: getEnv("EMAIL_NOTIFY_AUTHOR_ON_DECISION", "true") == "true",

		DigestInterval:   getEnvDuration("DIGEST_INTERVAL", 0),
		DigestStaleAfter: getEnvDuration("DIGEST_STALE_AFTER", 24*time.Hour),

		Policy: policy,
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		slog.Warn("ignoring invalid integer setting", "key", key, "value", value)
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		slog.Warn("ignoring invalid duration setting", "key", key, "value", value)
		return fallback
	}
	return d
}

// IsDev returns true if the environment is set to development.
func (c *Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// IsEmailEnabled returns true if SMTP is configured.
func (c *Config) IsEmailEnabled() bool {
	return c.SMTPEnabled && c.SMTPHost != "" && c.SMTPFrom != ""
}

// AllowedOrigins returns the CORS origin list, defaulting to BaseURL.
func (c *Config) AllowedOrigins() []string {
	origins := c.BaseURL
	if c.CORSOrigins != "" {
		origins = c.CORSOrigins
	}
	var out []string
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// SlogLevel maps LogLevel onto a slog level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
