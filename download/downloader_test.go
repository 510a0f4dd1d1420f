package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/wp-content/uploads/a.png", func(w http.ResponseWriter, r *http.Request) {
		user, pass, _ := r.BasicAuth()
		assert.Equal(t, "niko", user)
		assert.Equal(t, "secret", pass)
		_, _ = w.Write([]byte("PNG-A"))
	})
	mux.HandleFunc("/wp-content/uploads/b.png", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("PNG-B"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestDownloaderRun(t *testing.T) {
	srv := newFileServer(t)
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "site/files/b.png", []byte("old"), 0o644))

	d := New(fs, srv.Client(), 2, nil)
	d.Auth = "niko:secret"
	d.Queue(srv.URL+"/wp-content/uploads/a.png", "site/files/wp-content/uploads/a.png")
	d.Queue(srv.URL+"/wp-content/uploads/a.png", "site/files/wp-content/uploads/a.png")
	d.Queue(srv.URL+"/wp-content/uploads/b.png", "site/files/b.png")
	d.Queue(srv.URL+"/wp-content/uploads/missing.png", "site/files/missing.png")
	d.Queue("", "site/files/empty.png")
	require.Len(t, d.Jobs(), 3)

	stats, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{Downloaded: 1, Existing: 1, Failed: 1}, stats)

	data, err := afero.ReadFile(fs, "site/files/wp-content/uploads/a.png")
	require.NoError(t, err)
	assert.Equal(t, "PNG-A", string(data))

	data, err = afero.ReadFile(fs, "site/files/b.png")
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))

	exists, err := afero.Exists(fs, "site/files/missing.png")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDownloaderCanceled(t *testing.T) {
	srv := newFileServer(t)
	fs := afero.NewMemMapFs()
	d := New(fs, srv.Client(), 1, nil)
	d.Queue(srv.URL+"/wp-content/uploads/b.png", "b.png")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := d.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDownloaderEmptyQueue(t *testing.T) {
	stats, err := New(afero.NewMemMapFs(), nil, 0, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
}
