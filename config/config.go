package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	Server struct {
		Address   string `yaml:"address"`
		StaticDir string `yaml:"static_dir"`
		WatchDir  string `yaml:"watch_dir"`
	} `yaml:"server"`
	Database struct {
		ConnectionString string        `yaml:"connection_string"`
		MaxConns         int32         `yaml:"max_conns"`
		MaxConnLifetime  time.Duration `yaml:"max_conn_lifetime"`
		MaxConnIdleTime  time.Duration `yaml:"max_conn_idle_time"`
	} `yaml:"database"`
	VectorIndex struct {
		Collection string `yaml:"collection"`
		TopK       int    `yaml:"top_k"`
	} `yaml:"vector_index"`
	Embeddings struct {
		Provider string `yaml:"provider"`
		BaseURL  string `yaml:"base_url"`
		Model    string `yaml:"model"`
		APIKey   string `yaml:"api_key"`
	} `yaml:"embeddings"`
	LLM struct {
		Provider    string        `yaml:"provider"`
		BaseURL     string        `yaml:"base_url"`
		Model       string        `yaml:"model"`
		APIKey      string        `yaml:"api_key"`
		Temperature float64       `yaml:"temperature"`
		Timeout     time.Duration `yaml:"timeout"`
		Persona     string        `yaml:"persona"`
	} `yaml:"llm"`
	Conversation struct {
		URI          string `yaml:"uri"`
		Database     string `yaml:"database"`
		Collection   string `yaml:"collection"`
		UserID       string `yaml:"user_id"`
		HistoryLimit int    `yaml:"history_limit"`
	} `yaml:"conversation"`
	Processing struct {
		ChunkSize    int `yaml:"chunk_size"`
		ChunkOverlap int `yaml:"chunk_overlap"`
	} `yaml:"processing"`
}

// DefaultPersona is the system persona used when none is configured
const DefaultPersona = "Act as an expert university admission counselor. " +
	"Never give answers outside the provided context. " +
	"If you don't know the answer, just say you don't know."

// Load loads configuration from path, or from the default locations when path is empty.
// A missing file yields defaults. Values from a .env file and the environment override the file.
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	cfg := Default()

	if path == "" {
		path = findConfig()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// findConfig returns the first existing config file among the default locations
func findConfig() string {
	candidates := []string{"ragchat.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".ragchat", "config.yaml"))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

func (c *Config) applyEnv() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.LLM.APIKey = v
		if c.Embeddings.Provider == "openai" && c.Embeddings.APIKey == "" {
			c.Embeddings.APIKey = v
		}
	}
	if v := os.Getenv("MONGODB_URI"); v != "" {
		c.Conversation.URI = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.ConnectionString = v
	}
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		if c.Embeddings.Provider == "ollama" {
			c.Embeddings.BaseURL = v
		}
		if c.LLM.Provider == "ollama" {
			c.LLM.BaseURL = v
		}
	}
	if v := os.Getenv("RAGCHAT_ADDR"); v != "" {
		c.Server.Address = v
	}
}

// Validate checks values that would make a subsystem misbehave rather than fail
func (c *Config) Validate() error {
	if c.Processing.ChunkSize <= 0 {
		return fmt.Errorf("processing.chunk_size must be positive, got %d", c.Processing.ChunkSize)
	}
	if c.Processing.ChunkOverlap < 0 {
		return fmt.Errorf("processing.chunk_overlap must not be negative, got %d", c.Processing.ChunkOverlap)
	}
	if c.VectorIndex.Collection == "" {
		return fmt.Errorf("vector_index.collection is required")
	}
	if c.Conversation.UserID == "" {
		return fmt.Errorf("conversation.user_id is required")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2, got %g", c.LLM.Temperature)
	}
	if c.Database.MaxConns <= 0 {
		return fmt.Errorf("database.max_conns must be positive, got %d", c.Database.MaxConns)
	}
	return nil
}

// Save saves configuration to path
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// Default returns default configuration
func Default() *Config {
	cfg := &Config{}

	cfg.Server.Address = ":8000"
	cfg.Server.StaticDir = "frontend"
	cfg.Database.ConnectionString = "postgres://postgres@localhost/postgres?sslmode=disable"
	cfg.Database.MaxConns = 10
	cfg.Database.MaxConnLifetime = time.Hour
	cfg.Database.MaxConnIdleTime = 30 * time.Minute
	cfg.VectorIndex.Collection = "Uet_Prospectus"
	cfg.VectorIndex.TopK = 3
	cfg.Embeddings.Provider = "ollama"
	cfg.Embeddings.BaseURL = "http://localhost:11434"
	cfg.Embeddings.Model = "all-minilm"
	cfg.LLM.Provider = "openai"
	cfg.LLM.Model = "gpt-4o-mini"
	cfg.LLM.Temperature = 0.7
	cfg.LLM.Timeout = 2 * time.Minute
	cfg.LLM.Persona = DefaultPersona
	cfg.Conversation.URI = "mongodb://localhost:27017"
	cfg.Conversation.Database = "rag_chatbot"
	cfg.Conversation.Collection = "chat_history"
	cfg.Conversation.UserID = "default_user"
	cfg.Conversation.HistoryLimit = 10
	cfg.Processing.ChunkSize = 1000
	cfg.Processing.ChunkOverlap = 100

	return cfg
}
