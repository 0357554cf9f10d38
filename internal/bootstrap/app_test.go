package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hierarag/internal/ai"
	"hierarag/internal/app"
	"hierarag/internal/config"
	"hierarag/internal/parentstore"
	"hierarag/internal/repository"
)

type fixedEmbedder struct{}

func (fixedEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, float32(len(texts[i]) % 7)}
	}
	return out, nil
}

type echoModel struct{}

func (echoModel) Complete(context.Context, []ai.ChatMessage) (string, error) {
	return app.NoAnswerPhrase, nil
}

func (echoModel) Chat(context.Context, []ai.ChatMessage, []ai.ToolDefinition) (ai.ChatMessage, error) {
	return ai.ChatMessage{Content: "direct"}, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadFile(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	dir := t.TempDir()
	cfg.Storage.ParentStoreDir = filepath.Join(dir, "parents")
	cfg.Storage.SQLitePath = filepath.Join(dir, "data", "rag.db")
	return cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewDefaultWiring(t *testing.T) {
	cfg := testConfig(t)
	a, err := New(context.Background(), cfg, quietLogger(), WithModels(echoModel{}, echoModel{}, fixedEmbedder{}))
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, &parentstore.FileStore{}, a.Parents)
	assert.NotNil(t, a.SQLite)
	assert.Nil(t, a.MySQL)
	assert.Nil(t, a.Redis)
	assert.Nil(t, a.Publisher)
	assert.Nil(t, a.IngestWorker)
	assert.NoError(t, a.StartWorker(context.Background()))

	checks := a.HealthChecks()
	require.Contains(t, checks, "sqlite")
	assert.NoError(t, checks["sqlite"](context.Background()))
	assert.Equal(t, "rag_collection", a.Index.Collection())
}

func TestNewEndToEndOnSQLiteAndRedis(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.ParentStore = config.StoreSQLite
	mr := miniredis.RunT(t)
	client := redisv9.NewClient(&redisv9.Options{Addr: mr.Addr()})

	a, err := New(context.Background(), cfg, quietLogger(),
		WithRedis(client),
		WithModels(echoModel{}, echoModel{}, fixedEmbedder{}),
	)
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, &repository.ParentChunkRepository{}, a.Parents)
	assert.Contains(t, a.HealthChecks(), "redis")

	ctx := context.Background()
	res, err := a.Ingest.Ingest(ctx, app.IngestInput{Filename: "intro.pdf", Content: "# Fruit\nBananas are yellow.\n\n# Trees\nOaks are tall."})
	require.NoError(t, err)
	assert.Equal(t, 2, res.ChunksCount)

	answer, err := a.Simple.Answer(ctx, "What is RAG?")
	require.NoError(t, err)
	assert.Equal(t, app.NoAnswerPhrase, answer.Answer)
	require.Len(t, answer.Sources, 2)
	assert.Equal(t, "intro.pdf", answer.Sources[0].Source)

	agentic, err := a.Agentic.Answer(ctx, "anything")
	require.NoError(t, err)
	assert.Equal(t, "direct", agentic.Answer)

	pending, err := a.Ingest.PendingCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
	assert.Empty(t, mr.Keys())

	report, err := a.Ingest.CheckConsistency(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.DanglingParents)
}

func TestNewRejectsUnreachableRedis(t *testing.T) {
	cfg := testConfig(t)
	mr := miniredis.RunT(t)
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = mr.Addr()
	mr.Close()

	_, err := New(context.Background(), cfg, quietLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping redis failed")
}
