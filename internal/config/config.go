package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Anonymous confirmation policies.
const (
	AnonConfirmCount     = "count"
	AnonConfirmUncounted = "uncounted"
	AnonConfirmPerClient = "per-client"
	AnonConfirmReject    = "reject"
)

type Config struct {
	Environment string // ENV: production, development, test
	Port        string

	MongoURI          string
	MongoTransactions bool // requires a replica set
	PostgresURI       string
	RedisURI          string

	JWTSecret    string
	JWTExpiresIn time.Duration

	AllowedOrigins []string // CORS: from ALLOWED_ORIGINS or CORS_ORIGIN
	AllowedHost    string   // production host check, bare hostname; empty disables it

	EmailHost string
	EmailPort int
	EmailUser string
	EmailPass string
	EmailFrom string

	CloudinaryName      string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string

	KafkaBrokers []string
	KafkaTopic   string

	AllowAnonymousReports bool
	AnonConfirmPolicy     string
	StatsCacheTTL         time.Duration
	BlockedTerms          []string
}

func defaults(v *viper.Viper) {
	v.SetDefault("ENV", "development")
	v.SetDefault("PORT", "3001")
	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017/inframonitor")
	v.SetDefault("MONGO_TRANSACTIONS", true)
	v.SetDefault("POSTGRES_URI", "")
	v.SetDefault("REDIS_URI", "redis://localhost:6379/0")
	v.SetDefault("JWT_SECRET", "your-secret-key-change-in-production")
	v.SetDefault("JWT_EXPIRES_IN", "7d")
	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("CORS_ORIGIN", "http://localhost:3000")
	v.SetDefault("ALLOWED_HOST", "")
	v.SetDefault("EMAIL_HOST", "")
	v.SetDefault("EMAIL_PORT", 587)
	v.SetDefault("EMAIL_USER", "")
	v.SetDefault("EMAIL_PASS", "")
	v.SetDefault("EMAIL_FROM", "")
	v.SetDefault("CLOUDINARY_CLOUD_NAME", "")
	v.SetDefault("CLOUDINARY_API_KEY", "")
	v.SetDefault("CLOUDINARY_API_SECRET", "")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "occurrence-events")
	v.SetDefault("ALLOW_ANONYMOUS_REPORTS", true)
	v.SetDefault("ANON_CONFIRM_POLICY", AnonConfirmCount)
	v.SetDefault("STATS_CACHE_TTL", "30s")
	v.SetDefault("BLOCKED_TERMS", "")
}

// Load reads configuration from the environment. Call godotenv.Load first if a .env file should be honoured.
func Load() *Config {
	v := viper.New()
	defaults(v)
	v.AutomaticEnv()
	return fromViper(v)
}

func fromViper(v *viper.Viper) *Config {
	origins := parseList(v.GetString("ALLOWED_ORIGINS"))
	if len(origins) == 0 {
		origins = parseList(v.GetString("CORS_ORIGIN"))
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	expiresIn, err := ParseExpiry(v.GetString("JWT_EXPIRES_IN"))
	if err != nil {
		expiresIn = 7 * 24 * time.Hour
	}
	cacheTTL, err := time.ParseDuration(v.GetString("STATS_CACHE_TTL"))
	if err != nil || cacheTTL < 0 {
		cacheTTL = 30 * time.Second
	}

	policy := strings.ToLower(strings.TrimSpace(v.GetString("ANON_CONFIRM_POLICY")))
	switch policy {
	case AnonConfirmCount, AnonConfirmUncounted, AnonConfirmPerClient, AnonConfirmReject:
	default:
		policy = AnonConfirmCount
	}

	return &Config{
		Environment:           strings.ToLower(strings.TrimSpace(v.GetString("ENV"))),
		Port:                  v.GetString("PORT"),
		MongoURI:              v.GetString("MONGODB_URI"),
		MongoTransactions:     v.GetBool("MONGO_TRANSACTIONS"),
		PostgresURI:           v.GetString("POSTGRES_URI"),
		RedisURI:              v.GetString("REDIS_URI"),
		JWTSecret:             v.GetString("JWT_SECRET"),
		JWTExpiresIn:          expiresIn,
		AllowedOrigins:        origins,
		AllowedHost:           strings.TrimSpace(v.GetString("ALLOWED_HOST")),
		EmailHost:             v.GetString("EMAIL_HOST"),
		EmailPort:             v.GetInt("EMAIL_PORT"),
		EmailUser:             v.GetString("EMAIL_USER"),
		EmailPass:             v.GetString("EMAIL_PASS"),
		EmailFrom:             v.GetString("EMAIL_FROM"),
		CloudinaryName:        v.GetString("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:      v.GetString("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret:   v.GetString("CLOUDINARY_API_SECRET"),
		KafkaBrokers:          parseList(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:            v.GetString("KAFKA_TOPIC"),
		AllowAnonymousReports: v.GetBool("ALLOW_ANONYMOUS_REPORTS"),
		AnonConfirmPolicy:     policy,
		StatsCacheTTL:         cacheTTL,
		BlockedTerms:          parseList(v.GetString("BLOCKED_TERMS")),
	}
}

// ParseExpiry accepts Go durations ("168h") and day suffixes ("7d").
func ParseExpiry(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, err
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

func parseList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// EmailEnabled reports whether SMTP credentials are present.
func (c *Config) EmailEnabled() bool {
	return c.EmailHost != "" && c.EmailUser != ""
}

// CloudinaryEnabled reports whether image uploads can be served.
func (c *Config) CloudinaryEnabled() bool {
	return c.CloudinaryName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}
