package core

import (
	"bytes"
	"net/http"
	"strings"
)

// SniffLength is how many leading body bytes are inspected for a signature.
const SniffLength = 10

// imageSignatures are the magic-byte prefixes accepted when the declared
// content type is not an image.
var imageSignatures = []struct {
	format string
	magic  []byte
}{
	{"jpeg", []byte{0xFF, 0xD8, 0xFF}},
	{"png", []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}},
	{"gif87a", []byte("GIF87a")},
	{"gif89a", []byte("GIF89a")},
	{"bmp", []byte{0x42, 0x4D}},
}

// IsImageContentType reports whether a Content-Type header declares an image.
func IsImageContentType(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/")
}

// SniffImageFormat returns the format whose signature prefixes head, or "".
// Only the first SniffLength bytes are considered.
func SniffImageFormat(head []byte) string {
	if len(head) > SniffLength {
		head = head[:SniffLength]
	}
	for _, sig := range imageSignatures {
		if bytes.HasPrefix(head, sig.magic) {
			return sig.format
		}
	}
	return ""
}

// ValidateImage accepts the response when the content type is image/* or the
// leading bytes match a known image signature. Otherwise it returns a
// content validation FetchError.
func ValidateImage(header http.Header, head []byte) error {
	if IsImageContentType(header.Get("Content-Type")) {
		return nil
	}
	if SniffImageFormat(head) != "" {
		return nil
	}
	return newFetchError(KindContentValidation, ErrNotImage)
}
