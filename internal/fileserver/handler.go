// Package fileserver implements the per-request static file pipeline:
// path resolution, existence check, encoding negotiation, MIME lookup and
// streaming transfer through an optional compressing writer.
package fileserver

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"simpleserver/internal/compression"
	serveerrors "simpleserver/internal/errors"
	"simpleserver/internal/paths"
)

// Options configures a Handler
type Options struct {
	// ConfineToRoot answers 404 for resolved paths outside the root
	ConfineToRoot bool
	Compression   compression.Options
}

// DefaultOptions returns the default handler options
func DefaultOptions() Options {
	return Options{
		ConfineToRoot: true,
		Compression:   compression.DefaultOptions(),
	}
}

// Handler serves files below a fixed root directory.
// It keeps no per-request state and is safe to share.
type Handler struct {
	root   string
	opts   Options
	logger *slog.Logger
}

// New creates a Handler for root. The root is made absolute once here.
func New(root string, opts Options, logger *slog.Logger) (*Handler, error) {
	if err := opts.Compression.Validate(); err != nil {
		return nil, fmt.Errorf("invalid compression options: %w", err)
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root %q: %w", root, err)
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Handler{
		root:   abs,
		opts:   opts,
		logger: logger,
	}, nil
}

// Root returns the absolute root directory
func (h *Handler) Root() string {
	return h.root
}

// Serve handles one request. A missing file is answered with 404 and a nil
// error. Every other failure is returned without touching the response any
// further; callers decide how to report it.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) error {
	filePath := paths.ResolveRequestPath(h.root, r.URL.Path)

	if h.opts.ConfineToRoot && !paths.IsWithinRoot(filePath, h.root) {
		h.logger.Debug("Rejected path outside root",
			"code", serveerrors.PathOutsideRoot,
			"path", r.URL.Path,
			"resolved", filePath,
		)
		notFound(w)
		return nil
	}

	f, err := os.Open(filePath)
	if err != nil {
		if isNotFound(err) {
			notFound(w)
			return nil
		}
		return serveerrors.NewServeError(serveerrors.OpenFailed, "failed to open file", err).
			WithDetails(map[string]string{"path": filePath})
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return serveerrors.NewServeError(serveerrors.StatFailed, "failed to stat file", err).
			WithDetails(map[string]string{"path": filePath})
	}
	if !info.Mode().IsRegular() {
		notFound(w)
		return nil
	}

	// Repeated header lines count as one comma-separated value
	enc := compression.Negotiate(strings.Join(r.Header.Values("Accept-Encoding"), ","))
	contentType := ContentType(filePath)

	h.logger.Debug("Serving file",
		"path", filePath,
		"size", info.Size(),
		"encoding", string(enc),
		"contentType", contentType,
	)

	w.Header().Set("Content-Type", contentType)
	if enc.Compressed() {
		w.Header().Set("Content-Encoding", enc.HeaderValue())
	}

	return transfer(w, f, enc, h.opts.Compression)
}

// transfer streams src into w through the writer for enc. The compressing
// writer is closed whether or not the copy succeeded; the copy error wins.
func transfer(w io.Writer, src io.Reader, enc compression.Encoding, opts compression.Options) error {
	cw, err := compression.NewWriter(w, enc, opts)
	if err != nil {
		return serveerrors.NewServeError(serveerrors.EncoderFailed, "failed to create "+string(enc)+" writer", err)
	}

	_, copyErr := io.Copy(cw, src)
	closeErr := cw.Close()

	if copyErr != nil {
		return serveerrors.NewServeError(serveerrors.TransferFailed, "failed to stream body", copyErr)
	}
	if closeErr != nil {
		return serveerrors.NewServeError(serveerrors.CloseFailed, "failed to flush "+string(enc)+" writer", closeErr)
	}
	return nil
}

func notFound(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNotFound)
}

// isNotFound treats a missing file and a path through a non-directory alike
func isNotFound(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}
