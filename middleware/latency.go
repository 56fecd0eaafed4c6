// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"time"
)

// bufferedResponse holds a handler's response until it may be sent.
type bufferedResponse struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func (b *bufferedResponse) Header() http.Header { return b.header }

func (b *bufferedResponse) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

func (b *bufferedResponse) WriteHeader(code int) {
	if b.status == 0 {
		b.status = code
	}
}

// WithLatencyFloor holds every response until at least floor has passed
// since the request arrived, so response timing does not depend on what
// the handler did. A non-positive floor disables padding.
func WithLatencyFloor(floor time.Duration, next http.HandlerFunc) http.HandlerFunc {
	if floor <= 0 {
		return next
	}

	return func(w http.ResponseWriter, r *http.Request) {
		deadline := time.Now().Add(floor)

		buf := &bufferedResponse{header: make(http.Header)}
		next(buf, r)

		if wait := time.Until(deadline); wait > 0 {
			time.Sleep(wait)
		} else {
			slog.Warn("request exceeded latency floor",
				"path", r.URL.Path,
				"over_ms", (-wait).Milliseconds(),
			)
		}

		for k, v := range buf.header {
			w.Header()[k] = v
		}
		if buf.status == 0 {
			buf.status = http.StatusOK
		}
		w.WriteHeader(buf.status)
		if _, err := w.Write(buf.body.Bytes()); err != nil {
			slog.Error("failed to write padded response", "error", err)
		}
	}
}
