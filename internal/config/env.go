package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBName     string
	DBUser     string
	DBPassword string
	DBPort     int

	OpenAIKey  string
	EmbedModel string
	EmbedDim   int

	RegistryBaseURL string
	SinceDate       string
	UntilDate       string
	Keywords        []string
	DocTypes        []string
	MaxDocuments    int
	PageSize        int

	EmbedMinInterval time.Duration
	EmbedMaxAttempts int
	EmbedRetryBase   time.Duration

	ChunkTokens   int
	OverlapTokens int
}

// LoadConfig loads the environment variables and returns the run config
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		DBHost:     getEnv("DB_HOST", ""),
		DBName:     getEnv("DB_NAME", ""),
		DBUser:     getEnv("DB_USER", ""),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBPort:     getEnvInt("DB_PORT", 5432),

		OpenAIKey:  getEnv("OPENAI_KEY", ""),
		EmbedModel: getEnv("EMBED_MODEL", "text-embedding-ada-002"),
		EmbedDim:   getEnvInt("EMBED_DIM", 1536),

		RegistryBaseURL: getEnv("REGISTRY_BASE_URL", "https://www.federalregister.gov/api/v1"),
		SinceDate:       getEnv("SINCE_DATE", ""),
		UntilDate:       getEnv("UNTIL_DATE", ""),
		Keywords:        getEnvList("KEYWORDS", nil),
		DocTypes:        getEnvList("DOC_TYPES", []string{"RULE", "PRORULE"}),
		MaxDocuments:    getEnvInt("MAX_DOCUMENTS", 50),
		PageSize:        getEnvInt("PAGE_SIZE", 20),

		EmbedMinInterval: time.Duration(getEnvInt("EMBED_MIN_INTERVAL_MS", 1200)) * time.Millisecond,
		EmbedMaxAttempts: getEnvInt("EMBED_MAX_ATTEMPTS", 3),
		EmbedRetryBase:   time.Duration(getEnvInt("EMBED_RETRY_BASE_MS", 2000)) * time.Millisecond,

		ChunkTokens:   getEnvInt("CHUNK_TOKENS", 512),
		OverlapTokens: getEnvInt("OVERLAP_TOKENS", 50),
	}

	if cfg.DBHost == "" || cfg.DBName == "" {
		log.Fatal("DB_HOST and DB_NAME must be set")
	}
	if cfg.OpenAIKey == "" {
		log.Fatal("OPENAI_KEY not set")
	}

	return cfg
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

// getEnvList reads a comma-separated env var into a slice, trimming
// whitespace and dropping empty entries.
func getEnvList(key string, def []string) []string {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
