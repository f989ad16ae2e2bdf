package server

import (
	"log/slog"
	"net/http"

	serveerrors "simpleserver/internal/errors"
)

// StatusForCode maps error codes to HTTP status codes
func StatusForCode(code serveerrors.ErrorCode) int {
	switch code {
	case serveerrors.PathOutsideRoot:
		return http.StatusNotFound // 404
	case serveerrors.OpenFailed,
		serveerrors.StatFailed,
		serveerrors.EncoderFailed,
		serveerrors.TransferFailed,
		serveerrors.CloseFailed,
		serveerrors.InternalError:
		return http.StatusInternalServerError // 500
	default:
		return http.StatusInternalServerError // 500
	}
}

// ErrorBoundary runs files and reports what it returns. Every failure is
// logged. A status is written only if the response has not started; a
// response that already has its headers out is left truncated.
func ErrorBoundary(logger *slog.Logger, files FileHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := wrapResponseWriter(w)

		err := files.Serve(rw, r)
		if err == nil {
			return
		}
		rw.err = err

		code := serveerrors.CodeOf(err)
		attrs := []any{
			"code", code,
			"error", err.Error(),
			"method", r.Method,
			"path", r.URL.Path,
			"requestID", GetRequestID(r.Context()),
		}

		if rw.wroteHeader {
			logger.Warn("Request failed after response started", attrs...)
			return
		}

		status := StatusForCode(code)
		logger.Error("Request failed", append(attrs, "status", status)...)

		rw.Header().Del("Content-Encoding")
		rw.Header().Del("Content-Type")
		rw.WriteHeader(status)
	})
}
