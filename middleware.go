package iamkit

import (
	"net/http"
	"strconv"
)

// Middleware provides HTTP middleware for tier and permission checking.
type Middleware struct {
	service      *Service
	getActorID   func(*http.Request) int64
	errorHandler func(http.ResponseWriter, *http.Request, error)
}

// MiddlewareOption configures the Middleware.
type MiddlewareOption func(*Middleware)

// NewMiddleware creates a new Middleware instance.
//
// Example:
//
//	mw := iamkit.NewMiddleware(service,
//	    iamkit.WithActorIDExtractor(func(r *http.Request) int64 {
//	        id, _ := strconv.ParseInt(r.Header.Get("X-Actor-ID"), 10, 64)
//	        return id
//	    }),
//	)
func NewMiddleware(service *Service, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{
		service:      service,
		getActorID:   defaultGetActorID,
		errorHandler: defaultErrorHandler,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// WithActorIDExtractor sets a custom function to extract the actor id from a
// request.
func WithActorIDExtractor(fn func(*http.Request) int64) MiddlewareOption {
	return func(m *Middleware) {
		m.getActorID = fn
	}
}

// WithMiddlewareErrorHandler sets a custom error handler for middleware.
func WithMiddlewareErrorHandler(fn func(http.ResponseWriter, *http.Request, error)) MiddlewareOption {
	return func(m *Middleware) {
		m.errorHandler = fn
	}
}

func defaultGetActorID(r *http.Request) int64 {
	return GetActorID(r.Context())
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case IsUnauthorized(err):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case IsNotFound(err):
		http.Error(w, "Not Found", http.StatusNotFound)
	case IsBadRequest(err):
		http.Error(w, "Bad Request", http.StatusBadRequest)
	case IsDuplicate(err):
		http.Error(w, "Conflict", http.StatusConflict)
	default:
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// ActorFromPath creates an actor id extractor reading a URL path parameter.
// Compatible with chi, gorilla/mux, and standard library patterns.
//
// Example:
//
//	mw := iamkit.NewMiddleware(service,
//	    iamkit.WithActorIDExtractor(iamkit.ActorFromPath("actorID")))
func ActorFromPath(paramName string) func(*http.Request) int64 {
	return func(r *http.Request) int64 {
		id, err := strconv.ParseInt(r.PathValue(paramName), 10, 64)
		if err != nil {
			return 0
		}
		return id
	}
}

// ActorFromHeader creates an actor id extractor reading a header.
//
// Example:
//
//	iamkit.WithActorIDExtractor(iamkit.ActorFromHeader("X-Actor-ID"))
func ActorFromHeader(headerName string) func(*http.Request) int64 {
	return func(r *http.Request) int64 {
		id, err := strconv.ParseInt(r.Header.Get(headerName), 10, 64)
		if err != nil {
			return 0
		}
		return id
	}
}

// RequireActor creates middleware that resolves the actor and loads their
// Checker into context. Requests without a resolvable actor are rejected.
//
// Example:
//
//	router.Use(mw.RequireActor())
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//	    checker := iamkit.FromContext(r.Context())
//	    if checker.Can(iamkit.OpUpdate, target) { ... }
//	}
func (m *Middleware) RequireActor() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			actorID := m.getActorID(r)
			if actorID == 0 {
				m.errorHandler(w, r, NewError(ErrUnauthorized, "no actor on request"))
				return
			}

			checker, err := m.service.GetChecker(ctx, actorID)
			if err != nil {
				m.errorHandler(w, r, err)
				return
			}

			ctx = WithActorID(ctx, actorID)
			ctx = WithChecker(ctx, checker)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireTier creates middleware that requires a tier permission. Holding
// the global tier satisfies any requirement.
//
// Example:
//
//	router.With(mw.RequireTier(iamkit.PermAdmin)).
//	    Post("/users", createUserHandler)
func (m *Middleware) RequireTier(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			actorID := m.getActorID(r)
			if actorID == 0 {
				m.errorHandler(w, r, NewError(ErrUnauthorized, "no actor on request"))
				return
			}

			checker, err := m.service.GetChecker(ctx, actorID)
			if err != nil {
				m.errorHandler(w, r, err)
				return
			}

			if !checker.IsSuperAdmin() && !checker.HasPermission(permission) {
				m.errorHandler(w, r, NewError(ErrUnauthorized, "missing required permission").
					WithReason(ReasonInsufficientPermission).
					WithActor(actorID))
				return
			}

			ctx = WithActorID(ctx, actorID)
			ctx = WithChecker(ctx, checker)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAnyPermission creates middleware that requires any of the specified
// permissions.
func (m *Middleware) RequireAnyPermission(permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			actorID := m.getActorID(r)
			if actorID == 0 {
				m.errorHandler(w, r, NewError(ErrUnauthorized, "no actor on request"))
				return
			}

			checker, err := m.service.GetChecker(ctx, actorID)
			if err != nil {
				m.errorHandler(w, r, err)
				return
			}

			if !checker.IsSuperAdmin() && !checker.HasAnyPermission(permissions...) {
				m.errorHandler(w, r, NewError(ErrUnauthorized, "missing required permission").
					WithReason(ReasonInsufficientPermission).
					WithActor(actorID))
				return
			}

			ctx = WithActorID(ctx, actorID)
			ctx = WithChecker(ctx, checker)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LoadChecker creates middleware that loads the actor's Checker into context
// without rejecting anonymous requests. Use this when handlers decide.
func (m *Middleware) LoadChecker() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			actorID := m.getActorID(r)
			if actorID == 0 {
				next.ServeHTTP(w, r)
				return
			}

			checker, err := m.service.GetChecker(ctx, actorID)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx = WithActorID(ctx, actorID)
			ctx = WithChecker(ctx, checker)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// InjectAuditContext creates middleware that extracts audit information from
// the request and adds it to the context for use in assignment operations.
//
// Example:
//
//	router.Use(mw.InjectAuditContext())
func (m *Middleware) InjectAuditContext() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			// Extract IP address
			ip := r.Header.Get("X-Forwarded-For")
			if ip == "" {
				ip = r.Header.Get("X-Real-IP")
			}
			if ip == "" {
				ip = r.RemoteAddr
			}
			ctx = WithIPAddress(ctx, ip)

			// Extract User Agent
			ctx = WithUserAgent(ctx, r.UserAgent())

			// Extract Request ID (commonly set by other middleware)
			requestID := r.Header.Get("X-Request-ID")
			if requestID != "" {
				ctx = WithRequestID(ctx, requestID)
			}

			// Set actor ID if the extractor finds one
			actorID := m.getActorID(r)
			if actorID != 0 {
				ctx = WithActorID(ctx, actorID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
