package config

import "os"

type Config struct {
	Server    ServerConfig
	Lark      LarkConfig
	LLM       LLMConfig
	Postgres  PostgresConfig
	Auth      AuthConfig
	Knowledge KnowledgeConfig
	Ticket    TicketConfig
}

type ServerConfig struct {
	Port           string
	AllowedOrigins string
}

type LarkConfig struct {
	AppID            string
	AppSecret        string
	BaseURL          string
	SupportChannelID string
}

type LLMConfig struct {
	APIKey string
	Model  string
}

type PostgresConfig struct {
	DatabaseURL string
	Host        string
	Port        string
	User        string
	Password    string
	Database    string
	SSLMode     string
}

type AuthConfig struct {
	JWTSecret     string
	JWTAccessTTL  string
	AdminLoginID  string
	AdminPassword string
}

type KnowledgeConfig struct {
	FilePath string
}

type TicketConfig struct {
	NumberPrefix string
}

func Load() Config {
	return Config{
		Server: ServerConfig{
			Port:           getenv("PORT", "8080"),
			AllowedOrigins: os.Getenv("ALLOWED_ORIGINS"),
		},
		Lark: LarkConfig{
			AppID:            os.Getenv("LARK_APP_ID"),
			AppSecret:        os.Getenv("LARK_APP_SECRET"),
			BaseURL:          getenv("LARK_BASE_URL", "https://open.larksuite.com"),
			SupportChannelID: os.Getenv("SUPPORT_CHANNEL_ID"),
		},
		LLM: LLMConfig{
			APIKey: os.Getenv("AI_API_KEY"),
			Model:  getenv("AI_MODEL", "gemini-2.0-flash"),
		},
		Postgres: PostgresConfig{
			DatabaseURL: os.Getenv("DATABASE_URL"),
			Host:        getenv("PGHOST", "localhost"),
			Port:        getenv("PGPORT", "5432"),
			User:        os.Getenv("PGUSER"),
			Password:    os.Getenv("PGPASSWORD"),
			Database:    os.Getenv("PGDATABASE"),
			SSLMode:     getenv("PGSSLMODE", "disable"),
		},
		Auth: AuthConfig{
			JWTSecret:     os.Getenv("JWT_SECRET"),
			JWTAccessTTL:  getenv("JWT_ACCESS_TTL", "1h"),
			AdminLoginID:  os.Getenv("ADMIN_LOGIN_ID"),
			AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		},
		Knowledge: KnowledgeConfig{
			FilePath: getenv("KNOWLEDGE_FILE", "knowledge_base.md"),
		},
		Ticket: TicketConfig{
			NumberPrefix: getenv("TICKET_PREFIX", "PMN"),
		},
	}
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
