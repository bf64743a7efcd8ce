// Package core implements the fetch, validate and save sequence of
// ubuntu-fetcher.
package core

import (
	"strings"
	"time"
)

const (
	// DefaultDirectory is where images are saved when no directory is given.
	DefaultDirectory = "Fetched_Images"

	// DefaultTimeout bounds connecting and waiting for response headers.
	DefaultTimeout = 15 * time.Second

	// UserAgent identifies the tool to the servers it talks to.
	UserAgent = "Ubuntu-Image-Fetcher/1.0 (Community Tool; Respectful Usage)"

	// AcceptHeader prefers images but tolerates anything.
	AcceptHeader = "image/*,*/*;q=0.8"

	// LargeFileThreshold triggers the large-file advisory. It never aborts.
	LargeFileThreshold = 50 * 1024 * 1024

	// ChunkSize is the size of each read while streaming the body to disk.
	ChunkSize = 8 * 1024
)

// DownloadRequest is a single download attempt.
type DownloadRequest struct {
	URL       string
	Directory string
}

// Normalize trims the URL and fills in the default directory.
func (r DownloadRequest) Normalize() DownloadRequest {
	r.URL = strings.TrimSpace(r.URL)
	if r.Directory == "" {
		r.Directory = DefaultDirectory
	}
	return r
}

// Validate checks that the URL is non-empty and uses http or https.
func (r DownloadRequest) Validate() error {
	if !IsFetchableURL(r.URL) {
		return ErrInvalidURL
	}
	return nil
}

// IsFetchableURL reports whether s starts with http:// or https://.
func IsFetchableURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
