package download

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kata-app/kata-backend/internal/models"
)

func TestFetchStreamsAndReportsProgress(t *testing.T) {
	payload := bytes.Repeat([]byte("x"), 3*chunkSize+100)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	var reports []Progress
	written, err := Fetch(context.Background(), srv.Client(), srv.URL, &buf, func(p Progress) {
		reports = append(reports, p)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), written)
	assert.Equal(t, payload, buf.Bytes())

	require.NotEmpty(t, reports)
	last := reports[len(reports)-1]
	assert.Equal(t, int64(len(payload)), last.BytesWritten)
	assert.Equal(t, int64(len(payload)), last.TotalBytes)

	// Progress is monotonic.
	for i := 1; i < len(reports); i++ {
		assert.Greater(t, reports[i].BytesWritten, reports[i-1].BytesWritten)
	}
}

func TestFetchNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	written, err := Fetch(context.Background(), srv.Client(), srv.URL, &buf, nil)
	require.Error(t, err)
	assert.Zero(t, written)
	assert.Zero(t, buf.Len())
}

func TestFetchCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data"))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	_, err := Fetch(ctx, srv.Client(), srv.URL, &buf, nil)
	require.Error(t, err)
}

func TestFileNameUsesURLExtension(t *testing.T) {
	name := FileName("Morning Chant", "https://cdn.example.com/v1/abc123.m4a?sig=x", models.TypeAudio)
	assert.True(t, strings.HasPrefix(name, "Morning Chant_"))
	assert.True(t, strings.HasSuffix(name, ".m4a"))
}

func TestFileNameDefaultsByType(t *testing.T) {
	audio := FileName("t", "https://cdn.example.com/raw/asset", models.TypeAudio)
	assert.True(t, strings.HasSuffix(audio, ".mp3"))

	text := FileName("t", "https://cdn.example.com/raw/asset", models.TypeText)
	assert.True(t, strings.HasSuffix(text, ".txt"))
}

func TestFileNameSanitizesTitle(t *testing.T) {
	name := FileName(`a/b\c:d"e`, "https://cdn.example.com/x.mp3", models.TypeAudio)
	assert.NotContains(t, name, "/")
	assert.NotContains(t, name, `\`)
	assert.NotContains(t, name, ":")
	assert.NotContains(t, name, `"`)

	empty := FileName("   ", "https://cdn.example.com/x.mp3", models.TypeAudio)
	assert.True(t, strings.HasPrefix(empty, "download_"))
}
