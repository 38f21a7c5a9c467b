package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	RetrievalFull     = "full"
	RetrievalKeyword  = "keyword"
	RetrievalPgvector = "pgvector"
)

const defaultInstruction = "You are a helpful assistant. Answer questions based on the following FAQ:"

type Config struct {
	Port              string        `yaml:"port"`
	Provider          string        `yaml:"provider"`
	OpenAIKey         string        `yaml:"-"`
	LMBaseURL         string        `yaml:"base_url"`
	ChatModel         string        `yaml:"chat_model"`
	EmbedModel        string        `yaml:"embed_model"`
	GeminiKey         string        `yaml:"-"`
	GeminiModel       string        `yaml:"gemini_model"`
	SystemInstruction string        `yaml:"system_instruction"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	UploadDir         string        `yaml:"upload_dir"`
	MaxUploadBytes    int           `yaml:"max_upload_bytes"`
	HistoryWindow     int           `yaml:"history_window"`
	Retrieval         string        `yaml:"retrieval"`
	TopK              int           `yaml:"top_k"`
	ChunkSize         int           `yaml:"chunk_size"`
	ChunkOverlap      int           `yaml:"chunk_overlap"`
	PgConn            string        `yaml:"-"`
}

func defaults() *Config {
	return &Config{
		Port:              "3001",
		Provider:          ProviderOpenAI,
		ChatModel:         "gpt-3.5-turbo",
		EmbedModel:        "text-embedding-3-small",
		GeminiModel:       "gemini-2.5-flash",
		SystemInstruction: defaultInstruction,
		RequestTimeout:    60 * time.Second,
		UploadDir:         "uploads",
		MaxUploadBytes:    20 << 20,
		Retrieval:         RetrievalFull,
		TopK:              5,
		ChunkSize:         220,
		ChunkOverlap:      40,
	}
}

// Load builds the configuration from defaults, the optional YAML file named
// by FAQBOT_CONFIG, and the environment, in that order of precedence.
// Secrets are only read from the environment.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("FAQBOT_CONFIG"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.Port = getenv("PORT", cfg.Port)
	cfg.Provider = getenv("LLM_PROVIDER", cfg.Provider)
	cfg.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	cfg.LMBaseURL = getenv("LLM_BASE_URL", cfg.LMBaseURL)
	cfg.ChatModel = getenv("LLM_MODEL", cfg.ChatModel)
	cfg.EmbedModel = getenv("EMBED_MODEL", cfg.EmbedModel)
	cfg.GeminiKey = os.Getenv("GEMINI_API_KEY")
	cfg.GeminiModel = getenv("GEMINI_MODEL", cfg.GeminiModel)
	cfg.SystemInstruction = getenv("SYSTEM_INSTRUCTION", cfg.SystemInstruction)
	cfg.UploadDir = getenv("UPLOAD_DIR", cfg.UploadDir)
	cfg.Retrieval = getenv("RETRIEVAL", cfg.Retrieval)
	cfg.PgConn = os.Getenv("PG_CONN")

	var err error
	if cfg.RequestTimeout, err = getDuration("REQUEST_TIMEOUT", cfg.RequestTimeout); err != nil {
		return nil, err
	}
	ints := []struct {
		key string
		dst *int
	}{
		{"MAX_UPLOAD_BYTES", &cfg.MaxUploadBytes},
		{"HISTORY_WINDOW", &cfg.HistoryWindow},
		{"RETRIEVAL_TOP_K", &cfg.TopK},
		{"CHUNK_SIZE", &cfg.ChunkSize},
		{"CHUNK_OVERLAP", &cfg.ChunkOverlap},
	}
	for _, i := range ints {
		if *i.dst, err = getInt(i.key, *i.dst); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks option values and that the selected provider has what it
// needs. Error messages name the variable, never its value.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI:
		if c.OpenAIKey == "" && c.LMBaseURL == "" {
			return errors.New("config: OPENAI_API_KEY is required unless LLM_BASE_URL points at a local server")
		}
	case ProviderGemini:
		if c.GeminiKey == "" {
			return errors.New("config: GEMINI_API_KEY is required for provider gemini")
		}
	default:
		return fmt.Errorf("config: unknown LLM_PROVIDER %q", c.Provider)
	}

	switch c.Retrieval {
	case RetrievalFull, RetrievalKeyword:
	case RetrievalPgvector:
		if c.PgConn == "" {
			return errors.New("config: PG_CONN is required for RETRIEVAL=pgvector")
		}
		if c.Provider != ProviderOpenAI {
			return errors.New("config: RETRIEVAL=pgvector needs the openai provider for embeddings")
		}
	default:
		return fmt.Errorf("config: unknown RETRIEVAL %q", c.Retrieval)
	}

	if c.RequestTimeout <= 0 {
		return errors.New("config: REQUEST_TIMEOUT must be positive")
	}
	if c.HistoryWindow < 0 {
		return errors.New("config: HISTORY_WINDOW must not be negative")
	}
	if c.ChunkSize <= 0 || c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return errors.New("config: CHUNK_OVERLAP must be in [0, CHUNK_SIZE)")
	}
	return nil
}

func (c *Config) Addr() string {
	return ":" + c.Port
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getInt(k string, def int) (int, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", k, err)
	}
	return n, nil
}

func getDuration(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", k, err)
	}
	return d, nil
}
