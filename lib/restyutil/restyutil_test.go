package restyutil

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestInstrumentWritesExchanges(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Test", "yes")
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte("response body"))
	}))
	defer srv.Close()

	output := &MemoryOutput{}
	client := resty.New().SetBaseURL(srv.URL)
	Instrument(client, output)

	_, err := client.R().
		SetHeader("X-Request", "first").
		SetFormData(map[string]string{"a": "b"}).
		Post("/submit")
	require.NoError(t, err)
	_, err = client.R().Get("/second")
	require.NoError(t, err)

	require.Equal(t, 2, output.Len())

	first, ok := output.Get("1")
	require.True(t, ok)
	require.Contains(t, first, "POST "+srv.URL+"/submit")
	require.Contains(t, first, "X-Request: first")
	require.Contains(t, first, "a=b")
	require.Contains(t, first, "202 ")
	require.Contains(t, first, "X-Test: yes")
	require.Contains(t, first, "response body")
}

func TestInstrumentNilOutput(t *testing.T) {
	client := resty.New()
	Instrument(client, nil)
}

func TestFilesystemOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dump")
	output, err := NewFilesystemOutput(dir)
	require.NoError(t, err)

	output.Write("1", "contents")
	require.Equal(t, dir, filepath.Dir(output.Dir()))
	written, err := os.ReadFile(filepath.Join(output.Dir(), "1"))
	require.NoError(t, err)
	require.Equal(t, "contents", string(written))
}

func TestFilesystemOutputKeepsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	config := filepath.Join(dir, "tildes.json5")
	require.NoError(t, os.WriteFile(config, []byte("{}"), 0600))

	first, err := NewFilesystemOutput(dir)
	require.NoError(t, err)
	first.Write("1", "first run")

	second, err := NewFilesystemOutput(dir)
	require.NoError(t, err)
	require.NotEqual(t, first.Dir(), second.Dir())
	second.Write("1", "second run")

	contents, err := os.ReadFile(config)
	require.NoError(t, err)
	require.Equal(t, "{}", string(contents))

	written, err := os.ReadFile(filepath.Join(first.Dir(), "1"))
	require.NoError(t, err)
	require.Equal(t, "first run", string(written))
}
