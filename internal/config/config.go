package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr          string
	CORSOrigins   []string
	Store         string
	DatabaseURL   string
	MigrationsDir string
	DBMaxConns    int
	// Redis - sessions stay in memory when empty
	RedisURL   string
	SessionTTL time.Duration
	// AllowUserIDHeader enables the X-User-Id development fallback.
	AllowUserIDHeader bool
	BcryptCost        int
	LoginRatePerMin   int
	LoginRateBurst    int
	Seed              bool
	MeiliURL          string
	MeiliMasterKey    string
	// SMTP Configuration
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	PublicURL    string
}

// Load reads the configuration from the environment, after merging a local
// .env file when there is one.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Addr:              getenv("API_ADDR", ":8080"),
		CORSOrigins:       splitList(getenv("HENRITRIP_CORS_ORIGINS", "*")),
		Store:             strings.ToLower(getenv("HENRITRIP_STORE", "memory")),
		DatabaseURL:       getenv("DATABASE_URL", ""),
		MigrationsDir:     getenv("HENRITRIP_MIGRATIONS_DIR", ""),
		DBMaxConns:        getenvInt("HENRITRIP_DB_MAX_CONNS", 8),
		RedisURL:          getenv("REDIS_URL", ""),
		SessionTTL:        time.Duration(getenvInt("HENRITRIP_SESSION_TTL_SECONDS", 604800)) * time.Second,
		AllowUserIDHeader: getenvBool("HENRITRIP_ALLOW_USER_ID_HEADER", false),
		BcryptCost:        getenvInt("HENRITRIP_BCRYPT_COST", 10),
		LoginRatePerMin:   getenvInt("HENRITRIP_LOGIN_RATE_PER_MINUTE", 10),
		LoginRateBurst:    getenvInt("HENRITRIP_LOGIN_RATE_BURST", 5),
		Seed:              getenvBool("HENRITRIP_SEED", true),
		// Meilisearch - local scan when empty
		MeiliURL:       getenv("MEILI_URL", ""),
		MeiliMasterKey: getenv("MEILI_MASTER_KEY", ""),
		// SMTP - empty by default, email disabled if not configured
		SMTPHost:     getenv("SMTP_HOST", ""),
		SMTPPort:     getenvInt("SMTP_PORT", 587),
		SMTPUsername: getenv("SMTP_USERNAME", ""),
		SMTPPassword: getenv("SMTP_PASSWORD", ""),
		SMTPFrom:     getenv("SMTP_FROM", ""),
		PublicURL:    strings.TrimRight(getenv("HENRITRIP_PUBLIC_URL", "http://localhost:4200"), "/"),
	}
}

func getenv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := getenv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	value := getenv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
