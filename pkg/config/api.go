package config

import "time"

// APIConfig holds runtime configuration for the API service.
type APIConfig struct {
	Environment        string
	Addr               string
	DatabaseURL        string
	MigrationsDir      string
	JWTSecret          string
	VercelToken        string
	VercelTeamID       string
	NetlifyToken       string
	DefaultProvider    string
	DeployTarget       string
	PollInterval       time.Duration
	PollMaxAttempts    int
	RateLimitRedisAddr string
	RateLimitRedisPass string
	RateLimitRedisDB   int
}

// LoadAPIConfig constructs an APIConfig from environment variables.
func LoadAPIConfig() APIConfig {
	return APIConfig{
		Environment:        GetString("APP_ENV", "development"),
		Addr:               GetString("API_ADDR", ":4000"),
		DatabaseURL:        GetString("DATABASE_URL", "postgres://nextgenweb:nextgenweb@db:5432/nextgenweb?sslmode=disable"),
		MigrationsDir:      GetString("DB_MIGRATIONS_DIR", "./db/migrations"),
		JWTSecret:          GetString("JWT_SECRET", "supersecuresecret"),
		VercelToken:        GetString("VERCEL_TOKEN", ""),
		VercelTeamID:       GetString("VERCEL_TEAM_ID", ""),
		NetlifyToken:       GetString("NETLIFY_TOKEN", ""),
		DefaultProvider:    GetString("DEPLOY_PROVIDER", "vercel"),
		DeployTarget:       GetString("DEPLOY_TARGET", "production"),
		PollInterval:       time.Duration(GetInt("DEPLOY_POLL_INTERVAL_SECONDS", 5)) * time.Second,
		PollMaxAttempts:    GetInt("DEPLOY_POLL_MAX_ATTEMPTS", 60),
		RateLimitRedisAddr: GetString("RATE_LIMIT_REDIS_ADDR", ""),
		RateLimitRedisPass: GetString("RATE_LIMIT_REDIS_PASSWORD", ""),
		RateLimitRedisDB:   GetInt("RATE_LIMIT_REDIS_DB", 0),
	}
}
