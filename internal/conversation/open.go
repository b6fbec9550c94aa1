package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/dream-ai/ragchat/internal/db"
)

// Config selects a backend by URI scheme
type Config struct {
	URI        string
	Database   string
	Collection string
	// Pool tunes the connection pool of the postgres backend
	Pool []db.Option
}

// Open connects to the backend named by cfg.URI. An empty URI opens an in-memory log.
func Open(ctx context.Context, cfg Config) (Log, error) {
	uri := strings.TrimSpace(cfg.URI)
	scheme, _, _ := strings.Cut(uri, "://")
	switch strings.ToLower(scheme) {
	case "mongodb", "mongodb+srv":
		return NewMongoLog(ctx, uri, orDefault(cfg.Database, "rag_chatbot"), orDefault(cfg.Collection, "chat_history"))
	case "postgres", "postgresql":
		if err := db.Migrate(uri, "up", 0); err != nil {
			return nil, err
		}
		database, err := db.New(ctx, uri, cfg.Pool...)
		if err != nil {
			return nil, err
		}
		return NewPostgresLog(database.Pool(), database.Close), nil
	case "redis", "rediss":
		return NewRedisLog(ctx, uri, cfg.Collection)
	case "sqlite":
		path := strings.TrimPrefix(uri, "sqlite://")
		if path == "" {
			return nil, fmt.Errorf("sqlite uri needs a path: %s", uri)
		}
		return NewSQLiteLog(ctx, path)
	case "memory", "":
		return NewMemoryLog(), nil
	default:
		return nil, fmt.Errorf("unsupported conversation store uri: %s", uri)
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
