package net

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/monolythium/ubuntu-fetcher/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHead = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}

func newImageFetcher(timeout time.Duration) *core.ImageFetcher {
	return core.NewImageFetcher(NewHTTPFetcher(timeout, nil), core.ImageFetcherOptions{})
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestGet_SendsIdentifyingHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, core.UserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, core.AcceptHeader, r.Header.Get("Accept"))
		w.Write(pngHead)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(5*time.Second, nil)
	resp, err := f.Get(context.Background(), srv.URL+"/x.png")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestNewHTTPFetcher_DefaultTimeout(t *testing.T) {
	f := NewHTTPFetcher(0, nil)
	assert.Equal(t, core.DefaultTimeout, f.Timeout)

	transport, ok := f.Client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, core.DefaultTimeout, transport.ResponseHeaderTimeout)
	assert.Equal(t, core.DefaultTimeout, transport.TLSHandshakeTimeout)
}

func TestGet_TimeoutWaitingForHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(50*time.Millisecond, nil)
	_, err := f.Get(context.Background(), srv.URL+"/slow.png")
	require.Error(t, err)
	assert.Equal(t, core.KindTimeout, core.Classify(err).Kind)
}

func TestGet_TimeoutWaitingForBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngHead[:4])
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(100*time.Millisecond, nil)
	resp, err := f.Get(context.Background(), srv.URL+"/stall.png")
	require.NoError(t, err)
	defer resp.Body.Close()

	start := time.Now()
	_, err = io.ReadAll(resp.Body)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, core.KindTimeout, core.Classify(err).Kind)
}

func TestFetch_StalledBodyTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngHead)
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	start := time.Now()
	result := newImageFetcher(100*time.Millisecond).Fetch(context.Background(), core.DownloadRequest{
		URL:       srv.URL + "/stall.png",
		Directory: dir,
	}, nil)

	assert.Less(t, time.Since(start), 2*time.Second)
	assert.False(t, result.Success)
	assert.Equal(t, core.KindTimeout, result.Kind)
	assert.Equal(t, "Timeout error", result.Error)
	assert.Empty(t, listDir(t, dir), "partial file must be removed")
}

func TestFetch_SlowSteadyBodySucceeds(t *testing.T) {
	const chunks = 8
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(pngHead)
		w.(http.Flusher).Flush()
		for i := 0; i < chunks; i++ {
			time.Sleep(40 * time.Millisecond)
			w.Write([]byte{byte(i)})
			w.(http.Flusher).Flush()
		}
	}))
	defer srv.Close()

	start := time.Now()
	result := newImageFetcher(150*time.Millisecond).Fetch(context.Background(), core.DownloadRequest{
		URL:       srv.URL + "/trickle.png",
		Directory: t.TempDir(),
	}, nil)

	require.True(t, result.Success, "error: %s", result.Error)
	assert.Equal(t, int64(len(pngHead)+chunks), result.Bytes)
	assert.Greater(t, time.Since(start), 150*time.Millisecond, "transfer outlasted the timeout")
}

func TestGet_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	f := NewHTTPFetcher(time.Second, nil)
	_, err := f.Get(context.Background(), url+"/gone.png")
	require.Error(t, err)
	assert.Equal(t, core.KindConnection, core.Classify(err).Kind)
}

func TestGet_MalformedURL(t *testing.T) {
	f := NewHTTPFetcher(time.Second, nil)
	_, err := f.Get(context.Background(), "http://[::1")
	require.Error(t, err)
	assert.Equal(t, core.KindUnexpected, core.Classify(err).Kind)
}

func TestFetch_SavesImage(t *testing.T) {
	body := append(append([]byte{}, pngHead...), bytes.Repeat([]byte{0x42}, 3*core.ChunkSize+17)...)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(body)
	}))
	defer srv.Close()

	dir := filepath.Join(t.TempDir(), "Fetched_Images")
	result := newImageFetcher(5*time.Second).Fetch(context.Background(), core.DownloadRequest{
		URL:       srv.URL + "/images/cat.png",
		Directory: dir,
	}, nil)

	require.True(t, result.Success, "error: %s", result.Error)
	assert.Equal(t, filepath.Join(dir, "cat.png"), result.Path)
	assert.Equal(t, int64(len(body)), result.Bytes)

	data, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	assert.Equal(t, body, data)
}

func TestFetch_SniffsSignatureWithoutImageContentType(t *testing.T) {
	body := append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, []byte("jpeg payload")...)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write(body)
	}))
	defer srv.Close()

	dir := t.TempDir()
	result := newImageFetcher(5*time.Second).Fetch(context.Background(), core.DownloadRequest{
		URL:       srv.URL + "/download/photo.jpeg",
		Directory: dir,
	}, nil)

	require.True(t, result.Success, "error: %s", result.Error)
	data, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	assert.Equal(t, body, data, "sniffed bytes must still be written")
}

func TestFetch_HTTPStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	dir := t.TempDir()
	result := newImageFetcher(5*time.Second).Fetch(context.Background(), core.DownloadRequest{
		URL:       srv.URL + "/missing.png",
		Directory: dir,
	}, nil)

	assert.False(t, result.Success)
	assert.Equal(t, core.KindHTTPStatus, result.Kind)
	assert.Equal(t, http.StatusNotFound, result.StatusCode)
	assert.Equal(t, "HTTP 404 error", result.Error)
	assert.Empty(t, listDir(t, dir))
}

func TestFetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	result := newImageFetcher(50*time.Millisecond).Fetch(context.Background(), core.DownloadRequest{
		URL:       srv.URL + "/slow.png",
		Directory: dir,
	}, nil)

	assert.False(t, result.Success)
	assert.Equal(t, core.KindTimeout, result.Kind)
	assert.Equal(t, "Timeout error", result.Error)
	assert.Empty(t, listDir(t, dir))
}

func TestFetch_DroppedMidStreamLeavesNoFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", strconv.Itoa(64*1024))
		w.Write(pngHead)
		w.Write(bytes.Repeat([]byte{1}, 1024))
	}))
	defer srv.Close()

	dir := t.TempDir()
	result := newImageFetcher(5*time.Second).Fetch(context.Background(), core.DownloadRequest{
		URL:       srv.URL + "/partial.png",
		Directory: dir,
	}, nil)

	assert.False(t, result.Success)
	assert.Equal(t, core.KindConnection, result.Kind)
	assert.Empty(t, listDir(t, dir), "partial file must be removed")
}

func TestFetch_LargeFileAdvisory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/gif")
		w.Header().Set("Content-Length", strconv.Itoa(core.LargeFileThreshold+1))
		w.WriteHeader(http.StatusOK)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}))
	defer srv.Close()

	var steps []string
	result := newImageFetcher(5*time.Second).Fetch(context.Background(), core.DownloadRequest{
		URL:       srv.URL + "/huge.gif",
		Directory: t.TempDir(),
	}, func(step, message string) {
		steps = append(steps, step)
	})

	assert.True(t, result.LargeFile)
	assert.Contains(t, steps, "large-file")
}
