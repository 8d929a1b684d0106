package rest

import (
	"context"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/dmitrijs2005/gallery/internal/common"
	"github.com/dmitrijs2005/gallery/internal/logging"
	"github.com/dmitrijs2005/gallery/internal/server/auth"
	"github.com/gorilla/mux"
)

// Auth gate rejection reasons. They are logged and counted but never sent to
// the caller, who always gets the same 401 body.
const (
	rejectMissing   = "missing"
	rejectMalformed = "malformed"
	rejectInvalid   = "invalid"
)

const unauthorizedMessage = "unauthorized"

const maxRequestIDLen = 64

// authGate admits a request only with a valid "Authorization: Bearer <token>"
// header and attaches the verified identity to its context.
func (s *HTTPServer) authGate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, reason := bearerToken(r.Header.Get(common.AuthorizationHeaderName))
		if reason != "" {
			s.reject(w, r, reason, "")
			return
		}

		id, err := s.tokens.Verify(token)
		if err != nil {
			s.reject(w, r, rejectInvalid, auth.FailureReason(err))
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
	})
}

// bearerToken extracts the token from an Authorization header value. A
// non-empty reason means the header is unusable.
func bearerToken(header string) (token string, reason string) {
	if header == "" {
		return "", rejectMissing
	}
	scheme, rest, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, common.BearerScheme) {
		return "", rejectMalformed
	}
	token = strings.TrimSpace(rest)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", rejectMalformed
	}
	return token, ""
}

func (s *HTTPServer) reject(w http.ResponseWriter, r *http.Request, reason, detail string) {
	s.metrics.GateRejection(reason)

	args := []any{"reason", reason, "path", r.URL.Path}
	if detail != "" {
		args = append(args, "detail", detail)
	}
	s.logger.Info(r.Context(), "request rejected by auth gate", args...)

	w.Header().Set("WWW-Authenticate", common.BearerScheme)
	writeMessage(w, http.StatusUnauthorized, unauthorizedMessage)
}

func (s *HTTPServer) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(common.RequestIDHeaderName)
		if id == "" || len(id) > maxRequestIDLen {
			generated, err := common.MakeRandHexString(8)
			if err != nil {
				s.logger.Warn(r.Context(), "request id generation failed", "error", err)
			}
			id = generated
		}

		w.Header().Set(common.RequestIDHeaderName, id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// accessLog logs and counts every routed request under its route template.
func (s *HTTPServer) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		elapsed := time.Since(start)

		s.metrics.ObserveRequest(r.Method, route, rw.status, elapsed)
		s.logger.Info(r.Context(), "request",
			"method", r.Method, "route", route, "status", rw.status, "duration", elapsed)
	})
}

func (s *HTTPServer) timeout(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *HTTPServer) maxBytes(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
		next.ServeHTTP(w, r)
	})
}

func (s *HTTPServer) recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				s.logger.Error(r.Context(), "panic in handler", "panic", rec, "stack", string(debug.Stack()))
				writeMessage(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
