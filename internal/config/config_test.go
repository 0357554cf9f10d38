package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.HTTPAddr())
	assert.Equal(t, 500, cfg.Chunking.ChunkSize)
	assert.Equal(t, 100, cfg.Chunking.ChunkOverlap)
	assert.Equal(t, 4, cfg.Retrieval.SimpleTopK)
	assert.Equal(t, 5, cfg.Retrieval.AgentTopK)
	assert.Equal(t, 10, cfg.Retrieval.AgentMaxRounds)
	assert.Equal(t, StoreFile, cfg.Storage.ParentStore)
	assert.Equal(t, StoreSQLite, cfg.Storage.VectorStore)
	assert.True(t, cfg.UsesSQLite())
	assert.Equal(t, "rag_collection", cfg.Storage.Collection)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.Model)
	assert.Equal(t, "gemini-embedding-001", cfg.LLM.EmbeddingModel)
	assert.Empty(t, cfg.LLM.APIKey)
	assert.False(t, cfg.UsesMySQL())
	assert.Equal(t, 90*time.Second, cfg.LLMTimeout())
}

func TestLoadFileOverlaysTomlThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[app]
port = 9000

[chunking]
chunk_size = 800
chunk_overlap = 80

[retrieval]
enforce_search_first = true

[storage]
parent_store = "mysql"
vector_store = "mysql"
collection = "docs"
`), 0o644))

	t.Setenv("APP_PORT", "9100")
	t.Setenv("RETRIEVAL_AGENT_MAX_ROUNDS", "4")
	t.Setenv("LLM_TEMPERATURE", "0.3")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("CHUNK_OVERLAP", "not-a-number")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.App.Port)
	assert.Equal(t, 800, cfg.Chunking.ChunkSize)
	assert.Equal(t, 80, cfg.Chunking.ChunkOverlap)
	assert.Equal(t, 4, cfg.Retrieval.AgentMaxRounds)
	assert.True(t, cfg.Retrieval.EnforceSearchFirst)
	assert.InDelta(t, 0.3, cfg.LLM.Temperature, 1e-9)
	assert.True(t, cfg.Redis.Enabled)
	assert.True(t, cfg.UsesMySQL())
	assert.Equal(t, "docs", cfg.Storage.Collection)
}

func TestLoadFileRejectsBadToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[app\nport ="), 0o644))
	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode config file failed")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "port", mutate: func(c *Config) { c.App.Port = 0 }, want: "app.port"},
		{name: "overlap", mutate: func(c *Config) { c.Chunking.ChunkOverlap = 500 }, want: "chunk_overlap"},
		{name: "size", mutate: func(c *Config) { c.Chunking.ChunkSize = 0 }, want: "chunk_size"},
		{name: "parent store", mutate: func(c *Config) { c.Storage.ParentStore = "s3" }, want: "storage.parent_store"},
		{name: "parent dir", mutate: func(c *Config) { c.Storage.ParentStoreDir = "" }, want: "parent_store_dir"},
		{name: "vector store", mutate: func(c *Config) { c.Storage.VectorStore = "chroma" }, want: "storage.vector_store"},
		{name: "sqlite path", mutate: func(c *Config) { c.Storage.SQLitePath = "" }, want: "sqlite_path"},
		{name: "collection", mutate: func(c *Config) { c.Storage.Collection = "" }, want: "storage.collection"},
		{name: "secret", mutate: func(c *Config) { c.Auth.RequireToken = true; c.Auth.JWTSecret = "" }, want: "jwt_secret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
	assert.NoError(t, defaultConfig().Validate())
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	tomlPath := filepath.Join(dir, "custom.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte("[app]\nport = 7100\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CONFIG_FILE="+tomlPath+"\nLLM_API_KEY=from-dotenv\n"), 0o644))
	t.Chdir(dir)
	t.Cleanup(func() {
		os.Unsetenv("CONFIG_FILE")
		os.Unsetenv("LLM_API_KEY")
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7100, cfg.App.Port)
	assert.Equal(t, "from-dotenv", cfg.LLM.APIKey)
}
