package compression

import (
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
)

// Options tunes the compressing writers
type Options struct {
	GzipLevel     int
	BrotliQuality int
	BrotliWindow  int
}

// DefaultOptions returns the default writer settings
func DefaultOptions() Options {
	return Options{
		GzipLevel:     gzip.DefaultCompression,
		BrotliQuality: 4,
		BrotliWindow:  22,
	}
}

// Validate checks the settings against what the encoders accept
func (o Options) Validate() error {
	if o.GzipLevel < gzip.HuffmanOnly || o.GzipLevel > gzip.BestCompression {
		return fmt.Errorf("gzip level %d out of range [%d, %d]", o.GzipLevel, gzip.HuffmanOnly, gzip.BestCompression)
	}
	if o.BrotliQuality < brotli.BestSpeed || o.BrotliQuality > brotli.BestCompression {
		return fmt.Errorf("brotli quality %d out of range [%d, %d]", o.BrotliQuality, brotli.BestSpeed, brotli.BestCompression)
	}
	if o.BrotliWindow < 10 || o.BrotliWindow > 24 {
		return fmt.Errorf("brotli window %d out of range [10, 24]", o.BrotliWindow)
	}
	return nil
}

// NewWriter wraps w in the writer for enc. Closing the returned writer
// flushes any buffered compressed data into w but never closes w itself.
// Identity returns a pass-through writer whose Close is a no-op.
func NewWriter(w io.Writer, enc Encoding, opts Options) (io.WriteCloser, error) {
	switch enc {
	case Identity:
		return nopCloser{w}, nil
	case Gzip:
		gw, err := gzip.NewWriterLevel(w, opts.GzipLevel)
		if err != nil {
			return nil, fmt.Errorf("create gzip writer: %w", err)
		}
		return gw, nil
	case Brotli:
		return brotli.NewWriterOptions(w, brotli.WriterOptions{
			Quality: opts.BrotliQuality,
			LGWin:   opts.BrotliWindow,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", enc)
	}
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
