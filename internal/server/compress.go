package server

import (
	"bytes"
	"compress/gzip"
	"net/http"
	"strings"
)

// compressResponses gzips responses once the body reaches minSize bytes.
// Smaller bodies go out unchanged; a minSize of zero compresses any body.
func compressResponses(minSize int) func(http.Handler) http.Handler {
	if minSize < 0 {
		minSize = 0
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
				next.ServeHTTP(w, r)

				return
			}
			cw := &compressWriter{ResponseWriter: w, minSize: minSize, status: http.StatusOK}
			defer cw.Finish()
			next.ServeHTTP(cw, r)
		})
	}
}

// compressWriter buffers the response body until the size threshold is
// crossed, then replays it through a gzip writer. Range responses and
// bodies that already carry a Content-Encoding pass through unchanged.
type compressWriter struct {
	http.ResponseWriter

	minSize int
	status  int

	buf         bytes.Buffer
	gz          *gzip.Writer
	passthrough bool
	headerSent  bool
}

func (w *compressWriter) WriteHeader(status int) {
	if w.headerSent {
		return
	}
	w.status = status
}

func (w *compressWriter) Write(p []byte) (int, error) {
	if w.gz != nil {
		return w.gz.Write(p)
	}
	if w.passthrough {
		return w.ResponseWriter.Write(p)
	}

	w.buf.Write(p)
	if w.buf.Len() >= w.minSize {
		if err := w.decide(); err != nil {
			return 0, err
		}
	}

	return len(p), nil
}

// decide picks an encoding once the threshold is reached and flushes the
// buffered body accordingly.
func (w *compressWriter) decide() error {
	header := w.Header()
	if header.Get("Content-Encoding") != "" || w.status == http.StatusPartialContent {
		return w.flushPlain()
	}

	header.Del("Content-Length")
	header.Set("Content-Encoding", "gzip")
	header.Add("Vary", "Accept-Encoding")
	w.sendHeader()
	w.gz = gzip.NewWriter(w.ResponseWriter)
	_, err := w.gz.Write(w.buf.Bytes())
	w.buf.Reset()

	return err
}

func (w *compressWriter) flushPlain() error {
	w.sendHeader()
	w.passthrough = true
	if w.buf.Len() == 0 {
		return nil
	}
	_, err := w.ResponseWriter.Write(w.buf.Bytes())
	w.buf.Reset()

	return err
}

func (w *compressWriter) sendHeader() {
	if w.headerSent {
		return
	}
	w.headerSent = true
	w.ResponseWriter.WriteHeader(w.status)
}

// Finish flushes whatever is still buffered when the handler returns.
func (w *compressWriter) Finish() {
	if w.gz != nil {
		_ = w.gz.Close()

		return
	}
	_ = w.flushPlain()
}
