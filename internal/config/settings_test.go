package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("RAG_CONFIG_FILE", "")
	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 1000, s.ChunkSize)
	assert.Equal(t, 200, s.ChunkOverlap)
	assert.Equal(t, 5, s.RetrievalK)
	assert.Equal(t, []string{"pdf"}, s.AllowedExtensions)
	assert.Equal(t, DuplicateSupersede, s.DuplicatePolicy)
	assert.Equal(t, "127.0.0.1:8000", s.ListenAddr())
	assert.Equal(t, s.LLMBaseURL, s.TTSBaseURL)
	assert.Equal(t, int64(50<<20), s.MaxFileSizeBytes())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chunk_size: 500\nchunk_overlap: 50\nretrieval_k: 3\n"), 0o600))

	t.Setenv("RAG_CONFIG_FILE", path)
	t.Setenv("RETRIEVAL_K", "7")
	t.Setenv("ALLOWED_EXTENSIONS", "PDF, .docx")
	t.Setenv("DUPLICATE_POLICY", "Reject")

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 500, s.ChunkSize)
	assert.Equal(t, 50, s.ChunkOverlap)
	assert.Equal(t, 7, s.RetrievalK)
	assert.Equal(t, []string{"pdf", "docx"}, s.AllowedExtensions)
	assert.Equal(t, DuplicateReject, s.DuplicatePolicy)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Settings)
	}{
		{"overlap equals size", func(s *Settings) { s.ChunkOverlap = s.ChunkSize }},
		{"zero chunk size", func(s *Settings) { s.ChunkSize = 0 }},
		{"zero k", func(s *Settings) { s.RetrievalK = 0 }},
		{"unknown policy", func(s *Settings) { s.DuplicatePolicy = "merge" }},
		{"unknown index backend", func(s *Settings) { s.IndexBackend = "chroma" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Defaults()
			tt.mutate(&s)
			assert.Error(t, s.Validate())
		})
	}
}
