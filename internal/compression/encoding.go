// Package compression negotiates response content codings and wraps
// response bodies in the matching compressing writer.
package compression

import "strings"

// Encoding identifies a response content coding
type Encoding string

const (
	// Identity sends the body unchanged
	Identity Encoding = "identity"
	// Gzip compresses the body with gzip
	Gzip Encoding = "gzip"
	// Brotli compresses the body with Brotli
	Brotli Encoding = "br"
)

// Negotiate picks the response encoding from an Accept-Encoding value.
// Matching is a plain substring test: "br" anywhere selects Brotli, else
// "gzip" anywhere selects gzip, else Identity. Quality values are ignored.
func Negotiate(acceptEncoding string) Encoding {
	switch {
	case strings.Contains(acceptEncoding, string(Brotli)):
		return Brotli
	case strings.Contains(acceptEncoding, string(Gzip)):
		return Gzip
	default:
		return Identity
	}
}

// HeaderValue returns the Content-Encoding value for e, or "" for Identity
func (e Encoding) HeaderValue() string {
	if e == Identity {
		return ""
	}
	return string(e)
}

// Compressed reports whether e transforms the body
func (e Encoding) Compressed() bool {
	return e != Identity
}
