package router

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/campusmatch/campusmatch/pkg/logging"
)

// Middleware is a function that wraps an HTTP handler.
type Middleware func(http.Handler) http.Handler

// RequestID middleware adds a unique request ID to the context.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-ID")
			if id == "" {
				id = uuid.NewString()
			}

			ctx := context.WithValue(r.Context(), requestIDKey{}, id)
			w.Header().Set("X-Request-ID", id)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type requestIDKey struct{}

// GetRequestID retrieves the request ID from context.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// Recovery turns a panicking handler into a 500 and logs the stack.
func Recovery(logger logging.Logger) Middleware {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}
				logger.Error("handler panic",
					logging.String("path", r.URL.Path),
					logging.Any("panic", rec),
					logging.String("stack", string(debug.Stack())),
				)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// SecureHeadersConfig configures security headers.
type SecureHeadersConfig struct {
	// FrameOptions controls X-Frame-Options. Default "DENY".
	FrameOptions string

	ContentTypeNosniff bool

	ReferrerPolicy string

	PermissionsPolicy string

	// HSTSEnabled sets Strict-Transport-Security on HTTPS requests.
	HSTSEnabled bool
	HSTSMaxAge  int

	// ContentSecurityPolicy overrides the generated nonce policy.
	ContentSecurityPolicy string

	// CSPNonceEnabled generates a per-request nonce for scripts and styles.
	CSPNonceEnabled bool
}

// DefaultSecureHeadersConfig returns secure default configuration.
func DefaultSecureHeadersConfig() SecureHeadersConfig {
	return SecureHeadersConfig{
		FrameOptions:       "DENY",
		ContentTypeNosniff: true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		PermissionsPolicy:  "geolocation=(), microphone=(), camera=()",
		HSTSEnabled:        true,
		HSTSMaxAge:         31536000,
		CSPNonceEnabled:    true,
	}
}

type cspNonceKey struct{}

// GetCSPNonce retrieves the CSP nonce from context.
func GetCSPNonce(ctx context.Context) string {
	if nonce, ok := ctx.Value(cspNonceKey{}).(string); ok {
		return nonce
	}
	return ""
}

func generateNonce() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return base64.StdEncoding.EncodeToString(b)
}

// SecureHeaders middleware adds security headers.
func SecureHeaders() Middleware {
	return SecureHeadersWithConfig(DefaultSecureHeadersConfig())
}

// SecureHeadersWithConfig creates middleware with custom config.
func SecureHeadersWithConfig(config SecureHeadersConfig) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if config.FrameOptions != "" {
				h.Set("X-Frame-Options", config.FrameOptions)
			}
			if config.ContentTypeNosniff {
				h.Set("X-Content-Type-Options", "nosniff")
			}
			if config.ReferrerPolicy != "" {
				h.Set("Referrer-Policy", config.ReferrerPolicy)
			}
			if config.PermissionsPolicy != "" {
				h.Set("Permissions-Policy", config.PermissionsPolicy)
			}
			if config.HSTSEnabled && (r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https") {
				h.Set("Strict-Transport-Security", "max-age="+strconv.Itoa(config.HSTSMaxAge)+"; includeSubDomains")
			}

			ctx := r.Context()
			if config.CSPNonceEnabled {
				nonce := generateNonce()
				ctx = context.WithValue(ctx, cspNonceKey{}, nonce)

				csp := config.ContentSecurityPolicy
				if csp == "" {
					csp = "default-src 'self'; " +
						"script-src 'self' 'nonce-" + nonce + "'; " +
						"style-src 'self' 'nonce-" + nonce + "'; " +
						"img-src 'self' data: https:; " +
						"connect-src 'self' ws: wss:; " +
						"font-src 'self'; " +
						"frame-ancestors 'none'; " +
						"base-uri 'self'; " +
						"form-action 'self'"
				}
				h.Set("Content-Security-Policy", csp)
			} else if config.ContentSecurityPolicy != "" {
				h.Set("Content-Security-Policy", config.ContentSecurityPolicy)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// DeviceCookieName is the cookie that identifies a browser.
const DeviceCookieName = "cm_device"

const deviceCookieMaxAge = 365 * 24 * time.Hour

type deviceKey struct{}

// DeviceFromContext returns the device id set by DeviceCookie.
func DeviceFromContext(ctx context.Context) string {
	id, _ := ctx.Value(deviceKey{}).(string)
	return id
}

// DeviceCookie makes sure every browser carries a device id. Saved answers
// are scoped to it. Values that are not UUIDs are replaced.
func DeviceCookie() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id string
			if c, err := r.Cookie(DeviceCookieName); err == nil {
				if parsed, err := uuid.Parse(c.Value); err == nil {
					id = parsed.String()
				}
			}
			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     DeviceCookieName,
					Value:    id,
					Path:     "/",
					MaxAge:   int(deviceCookieMaxAge / time.Second),
					HttpOnly: true,
					Secure:   r.TLS != nil,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := context.WithValue(r.Context(), deviceKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NoStore disables caching for live pages so a back navigation re-renders
// with the saved answers.
func NoStore() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "no-store")
			next.ServeHTTP(w, r)
		})
	}
}
