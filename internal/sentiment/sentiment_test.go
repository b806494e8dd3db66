package sentiment

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialrag/internal/domain"
)

func TestNormalizeLabel(t *testing.T) {
	tests := map[string]string{
		"LABEL_0":   Negative,
		"label_1":   Neutral,
		"LABEL_2":   Positive,
		"Positive ": Positive,
		"mixed":     "mixed",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeLabel(in), in)
	}
}

func TestReadComments(t *testing.T) {
	in := "comment_id,post_id,comment_text,label\nc1,P1,love it,LABEL_2\nc2,P9,meh,neutral\n"
	comments, err := ReadComments(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, Comment{ID: "c1", PostID: "P1", Label: Positive}, comments[0])

	_, err = ReadComments(strings.NewReader("comment_id,post_id\nc1,P1\n"))
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	comments := []Comment{
		{PostID: "P1", Label: Positive},
		{PostID: "P1", Label: Positive},
		{PostID: "P2", Label: Neutral},
		{PostID: "P2", Label: Negative},
		{PostID: "missing", Label: Positive},
		{PostID: "P1", Label: Negative, Platform: domain.PlatformTwitter},
	}
	posts := map[string]domain.Platform{"P1": domain.PlatformInstagram, "P2": domain.PlatformInstagram}

	health := Health(comments, posts)
	require.Len(t, health, 3)

	ig := health[domain.PlatformInstagram]
	assert.Equal(t, 4, ig.TotalComments)
	assert.Equal(t, 50.0, ig.Positive)
	assert.Equal(t, 25.0, ig.Neutral)
	assert.Equal(t, 62.5, ig.HealthScore)

	assert.Equal(t, 100.0, health[PlatformGeneral].HealthScore)
	assert.Equal(t, 0.0, health[domain.PlatformTwitter].HealthScore)

	sorted := Sorted(health)
	assert.Equal(t, PlatformGeneral, sorted[0].Platform)
}

func TestLoadComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "comments.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,post_id,sentiment,platform\nc1,P1,LABEL_0,fb\n"), 0o644))
	comments, err := LoadComments(path)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, domain.PlatformFacebook, comments[0].Platform)
	assert.Equal(t, Negative, comments[0].Label)

	_, err = LoadComments(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}
