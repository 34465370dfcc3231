/*
Package logx provides a structured logging wrapper based on zerolog.

This file holds the HTTP logging hooks: a chi middleware that records the lifecycle of requests
served by the development backend, and a RoundTripper that records outbound calls made by the
terminal client.
*/
package logx

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// anonymizeIP zeroes the host part of a remote address: last octet for IPv4,
// lower half for IPv6. Loopback is kept as is.
func anonymizeIP(ipStr string) string {
	host, _, err := net.SplitHostPort(ipStr)
	if err == nil {
		ipStr = host
	}

	ip := net.ParseIP(ipStr)
	if ip == nil {
		return "unknown_ip"
	}

	if ip.IsLoopback() {
		return ip.String()
	}

	if v4 := ip.To4(); v4 != nil {
		return net.IPv4(v4[0], v4[1], v4[2], 0).String()
	}

	return ip.Mask(net.CIDRMask(64, 128)).String() + "/64"
}

// RequestLogger returns a middleware that logs every served request and injects a
// request-scoped logger into the request context.
func RequestLogger() func(next http.Handler) http.Handler {
	baseLogger := Logger()

	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			logger := baseLogger.With().
				Str("component", "http").
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("remote_ip", anonymizeIP(r.RemoteAddr)).
				Str("request_method", r.Method).
				Str("request_uri", r.RequestURI).
				Logger()

			r = r.WithContext(logger.WithContext(r.Context()))

			start := time.Now()
			next.ServeHTTP(ww, r)

			route := ""
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				route = rctx.RoutePattern()
			}

			levelEvent(&logger, ww.Status()).
				Str("route", route).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("latency", time.Since(start)).
				Msg("Request completed")
		}

		return http.HandlerFunc(fn)
	}
}

// levelEvent picks the log level from an HTTP status code.
func levelEvent(logger *zerolog.Logger, status int) *zerolog.Event {
	switch {
	case status >= 500:
		return logger.Error()
	case status >= 400:
		return logger.Warn()
	default:
		return logger.Debug()
	}
}

// transport logs outbound requests issued through the wrapped RoundTripper.
type transport struct {
	base   http.RoundTripper
	logger zerolog.Logger
}

// Transport wraps base (http.DefaultTransport when nil) with request logging.
func Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &transport{base: base, logger: Component("api")}
}

func (t *transport) RoundTrip(r *http.Request) (*http.Response, error) {
	start := time.Now()

	res, err := t.base.RoundTrip(r)
	if err != nil {
		t.logger.Warn().
			Err(err).
			Str("request_method", r.Method).
			Str("request_path", r.URL.Path).
			Dur("latency", time.Since(start)).
			Msg("Outbound request failed")
		return nil, err
	}

	levelEvent(&t.logger, res.StatusCode).
		Str("request_method", r.Method).
		Str("request_path", r.URL.Path).
		Int("status", res.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("Outbound request completed")

	return res, nil
}
