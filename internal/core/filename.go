package core

import (
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

const (
	// GeneratedPrefix starts every synthesized filename.
	GeneratedPrefix = "ubuntu_image_"

	// DefaultExtension is used when the content type gives no usable extension.
	DefaultExtension = ".jpg"

	maxFilenameLength = 255
)

// NameSource records which rule produced a filename.
type NameSource string

const (
	NameFromURL         NameSource = "url"
	NameFromDisposition NameSource = "content-disposition"
	NameGenerated       NameSource = "generated"
)

// Resolver derives a filesystem-safe filename from a URL and response headers.
type Resolver struct {
	// Now is the clock used for generated names. Defaults to time.Now.
	Now func() time.Time
}

// NewResolver returns a Resolver using the wall clock.
func NewResolver() *Resolver {
	return &Resolver{Now: time.Now}
}

// Resolve picks, in order, the last URL path segment when it has an
// extension, the Content-Disposition filename, or a generated
// ubuntu_image_<unix> name. The result only contains [A-Za-z0-9._-] and is
// never empty or made only of dots.
func (r *Resolver) Resolve(rawURL string, header http.Header) (string, NameSource) {
	if name := urlFilename(rawURL); name != "" && strings.Contains(name, ".") {
		if safe := Sanitize(name); usable(safe) {
			return truncate(safe), NameFromURL
		}
	}
	if name := dispositionFilename(header.Get("Content-Disposition")); name != "" {
		if safe := Sanitize(name); usable(safe) {
			return truncate(safe), NameFromDisposition
		}
	}
	return r.generated(header.Get("Content-Type")), NameGenerated
}

func (r *Resolver) generated(contentType string) string {
	now := time.Now
	if r != nil && r.Now != nil {
		now = r.Now
	}
	return Sanitize(fmt.Sprintf("%s%d%s", GeneratedPrefix, now().Unix(), ExtensionForContentType(contentType)))
}

// urlFilename returns the percent-decoded final path segment of rawURL.
func urlFilename(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	p := u.Path
	return p[strings.LastIndex(p, "/")+1:]
}

// dispositionFilename extracts the filename parameter of a
// Content-Disposition header with surrounding quotes removed.
func dispositionFilename(cd string) string {
	if cd == "" {
		return ""
	}
	if _, params, err := mime.ParseMediaType(cd); err == nil {
		if name := params["filename"]; name != "" {
			return name
		}
	}
	_, after, found := strings.Cut(cd, "filename=")
	if !found {
		return ""
	}
	after, _, _ = strings.Cut(after, ";")
	return strings.Trim(strings.TrimSpace(after), `"'`)
}

// ExtensionForContentType maps an image/* content type to a file extension,
// falling back to DefaultExtension.
func ExtensionForContentType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType, _, _ = strings.Cut(contentType, ";")
		mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	}
	if !strings.HasPrefix(mediaType, "image/") {
		return DefaultExtension
	}
	if m := mimetype.Lookup(mediaType); m != nil && m.Extension() != "" {
		return m.Extension()
	}
	return DefaultExtension
}

// Sanitize drops every character outside [A-Za-z0-9._-].
func Sanitize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, c := range name {
		if isSafeFilenameRune(c) {
			b.WriteRune(c)
		}
	}
	return b.String()
}

func isSafeFilenameRune(c rune) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '.', c == '-', c == '_':
		return true
	}
	return false
}

// usable rejects empty names and names such as "." or ".." that would
// resolve outside the file itself.
func usable(name string) bool {
	return strings.Trim(name, ".") != ""
}

func truncate(name string) string {
	if len(name) <= maxFilenameLength {
		return name
	}
	ext := path.Ext(name)
	if len(ext) >= maxFilenameLength/2 {
		ext = ""
	}
	return name[:maxFilenameLength-len(ext)] + ext
}
