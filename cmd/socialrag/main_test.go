package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialrag/internal/config"
	"socialrag/internal/domain"
	"socialrag/internal/vectorstore/qdrant"
)

func writeFixture(t *testing.T) (cfgPath, dataPath string) {
	t.Helper()
	dir := t.TempDir()
	var b strings.Builder
	b.WriteString("post_id,platform,posted_date,posted_time,impressions,reach,likes,comments,shares,saves,engagement_rate,content\n")
	rates := []float64{6, 2, 3, 4}
	for i := 0; i < 16; i++ {
		p := domain.KnownPlatforms[i%4]
		fmt.Fprintf(&b, "p%02d,%s,%02d-01-2024,18:00,1000,800,40,4,2,1,%.1f,Weekend sale on new arrivals\n", i, p, 1+i, rates[i%4])
	}
	dataPath = filepath.Join(dir, "posts.csv")
	require.NoError(t, os.WriteFile(dataPath, []byte(b.String()), 0o644))

	cfgPath = filepath.Join(dir, "config.yaml")
	cfg := &config.AppConfig{
		Log:     config.LogConfig{Mode: "dev", Level: "error"},
		Dataset: config.DatasetConfig{Paths: []string{dataPath}},
	}
	require.NoError(t, config.Save(cfgPath, cfg))
	return cfgPath, dataPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestIndexCmd_Counts(t *testing.T) {
	cfgPath, _ := writeFixture(t)
	out, err := run(t, "--config", cfgPath, "index")
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed 16 records from Instagram, Twitter, Facebook, LinkedIn into")
	assert.Contains(t, out, "L1 post")
	assert.Contains(t, out, "L4 platform_overview")
	assert.NotContains(t, out, "Audience sentiment health")
}

func TestIndexCmd_SentimentHealth(t *testing.T) {
	cfgPath, dataPath := writeFixture(t)
	comments := filepath.Join(filepath.Dir(cfgPath), "comments.csv")
	require.NoError(t, os.WriteFile(comments, []byte("comment_id,post_id,label\nc1,p00,positive\nc2,p04,negative\n"), 0o644))
	cfg := &config.AppConfig{
		Log:     config.LogConfig{Mode: "dev", Level: "error"},
		Dataset: config.DatasetConfig{Paths: []string{dataPath}, CommentsPath: comments},
	}
	require.NoError(t, config.Save(cfgPath, cfg))

	out, err := run(t, "--config", cfgPath, "index")
	require.NoError(t, err)
	assert.Contains(t, out, "Audience sentiment health:")
	assert.Contains(t, out, "(2 comments)")
}

func TestIndexCmd_Dump(t *testing.T) {
	cfgPath, dataPath := writeFixture(t)
	out, err := run(t, "--config", cfgPath, "index", "--dump", dataPath)
	require.NoError(t, err)
	var chunks []domain.Chunk
	require.NoError(t, json.Unmarshal([]byte(out), &chunks))
	assert.NotEmpty(t, chunks)
	assert.Equal(t, "post:p00", chunks[0].ID)
}

func TestQueryCmd(t *testing.T) {
	cfgPath, _ := writeFixture(t)
	out, err := run(t, "--config", cfgPath, "query", "--k", "60", "best", "performing", "platform")
	require.NoError(t, err)
	lines := strings.Split(out, "\n")
	require.NotEmpty(t, lines)
	assert.Contains(t, lines[0], "[L5 cross_platform_comparison] cross_platform")
}

func TestQueryCmd_RequiresQuestion(t *testing.T) {
	cfgPath, _ := writeFixture(t)
	_, err := run(t, "--config", cfgPath, "query")
	assert.Error(t, err)
}

func TestFactories(t *testing.T) {
	_, err := embedderFactory(config.EmbedderConfig{Type: "bert"})
	assert.Error(t, err)

	t.Setenv("SOCIALRAG_TEST_KEY", "")
	_, err = embedderFactory(config.EmbedderConfig{Type: "openai", OpenAI: &config.OpenAIEmbedderConfig{APIKeyEnv: "SOCIALRAG_TEST_KEY"}})
	assert.ErrorContains(t, err, "SOCIALRAG_TEST_KEY")

	newEmb, err := embedderFactory(config.EmbedderConfig{Type: "tfidf"})
	require.NoError(t, err)
	emb, err := newEmb()
	require.NoError(t, err)
	assert.Equal(t, "tfidf", emb.Name())

	_, err = storeFactory(config.VectorStoreConfig{Type: "qdrant"})
	assert.Error(t, err)
	newStore, err := storeFactory(config.VectorStoreConfig{Type: "qdrant", Qdrant: &config.QdrantConfig{URL: "http://localhost:6333", Collection: "c"}})
	require.NoError(t, err)
	_, err = newStore()
	assert.NoError(t, err)

	_, err = summarizerFor(config.SummarizerConfig{Type: "lexrank"})
	assert.ErrorContains(t, err, "unknown summarizer: lexrank")
	summ, err := summarizerFor(config.SummarizerConfig{Type: "frequency"})
	require.NoError(t, err)
	assert.NotNil(t, summ)
}

func TestStoreFactory_QdrantCollectionPerBuild(t *testing.T) {
	newStore, err := storeFactory(config.VectorStoreConfig{Type: "qdrant", Qdrant: &config.QdrantConfig{URL: "http://localhost:6333", Collection: "posts"}})
	require.NoError(t, err)
	first, err := newStore()
	require.NoError(t, err)
	second, err := newStore()
	require.NoError(t, err)

	a := first.(*qdrant.Storage).Collection()
	b := second.(*qdrant.Storage).Collection()
	assert.True(t, strings.HasPrefix(a, "posts_"), a)
	assert.True(t, strings.HasPrefix(b, "posts_"), b)
	assert.NotEqual(t, a, b)
}

func TestQuotas(t *testing.T) {
	got := quotas([]config.QuotaConfig{{Level: 5, Max: 1}, {Level: 1, Max: 3}})
	require.Len(t, got, 2)
	assert.Equal(t, 5, got[0].Level)
	assert.Equal(t, 3, got[1].Max)
}
