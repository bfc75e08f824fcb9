package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "ARK_TEMPERATURE", "DB_QUERY_TIMEOUT", "DATABASE_PATH", "REDIS_URL",
		"RAG_CHUNK_SIZE", "RAG_CHUNK_OVERLAP", "RAG_TOP_K", "WEATHER_CACHE_TTL", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, int64(32<<20), cfg.Server.UploadMaxBytes)
	require.NotNil(t, cfg.AI.Temperature)
	assert.Zero(t, *cfg.AI.Temperature)
	assert.Equal(t, 10, cfg.Database.QueryTimeoutSeconds)
	assert.Equal(t, "./meetings.db", cfg.Database.Path)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, RAGConfig{ChunkSize: 1000, ChunkOverlap: 100, TopK: 3, EmbeddingDim: 384}, cfg.RAG)
	assert.Equal(t, 10*time.Minute, cfg.Weather.CacheTTL)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadServerConfigAcceptsHostPort(t *testing.T) {
	t.Setenv("PORT", "127.0.0.1:9000")

	cfg, err := loadServerConfig()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
}

func TestLoadServerConfigRejectsSpaces(t *testing.T) {
	t.Setenv("PORT", "80 80")

	_, err := loadServerConfig()
	assert.Error(t, err)
}

func TestLoadDatabaseConfigClampsTimeout(t *testing.T) {
	t.Setenv("DB_QUERY_TIMEOUT", "0")

	cfg, err := loadDatabaseConfig()
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.QueryTimeoutSeconds)
}

func TestLoadRAGConfigRejectsOverlapLargerThanChunk(t *testing.T) {
	t.Setenv("RAG_CHUNK_SIZE", "100")
	t.Setenv("RAG_CHUNK_OVERLAP", "100")

	_, err := loadRAGConfig()
	assert.Error(t, err)
}

func TestAIConfigEnabled(t *testing.T) {
	assert.False(t, AIConfig{}.Enabled())
	assert.False(t, AIConfig{APIKey: "k"}.Enabled())
	assert.True(t, AIConfig{APIKey: "k", Model: "m"}.Enabled())
	assert.True(t, AIConfig{AccessKey: "a", SecretKey: "s", Model: "m"}.Enabled())
}

func TestParseDurationEnvInvalid(t *testing.T) {
	t.Setenv("SEARCH_TIMEOUT", "soon")

	_, err := loadSearchConfig()
	assert.Error(t, err)
}
