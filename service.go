package iamkit

import (
	"context"
	"time"

	"github.com/fernandezvara/dbkit"
	"github.com/sirupsen/logrus"
)

// Default permission cache sizing. Entries are keyed by role id, so the cache
// stays small even with many users.
const (
	defaultCacheSize = 1024
	defaultCacheTTL  = time.Minute
)

// Service resolves permissions, evaluates policy against live data and runs
// the guarded entity operations. It integrates with the database through
// dbkit with enhanced error handling.
//
// Error Handling:
// All database operations use dbkit's chainable error wrapping to provide
// detailed context about failed operations. Policy denials surface as
// iamkit errors carrying the denial reason.
//
// Example error handling:
//
//	_, err := service.UpdateUser(ctx, actorID, input)
//	if err != nil {
//	    if iamkit.IsUnauthorized(err) {
//	        // Denied; iamkit.DenialReason(err) says why
//	    }
//	    if iamkit.IsNotFound(err) {
//	        // Actor or target missing or tombstoned
//	    }
//	}
type Service struct {
	db        dbkit.IDB
	log       *logrus.Logger
	cache     *permissionCache
	txMonitor *transactionMonitor
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the logger used for structured operational logging.
func WithLogger(log *logrus.Logger) Option {
	return func(s *Service) {
		s.log = log
	}
}

// WithCacheTTL sets how long resolved permission sets stay cached per role.
// Assignment changes invalidate eagerly; the TTL bounds staleness for writes
// that bypass this service instance.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = newPermissionCache(s.cache.size, ttl)
	}
}

// WithCacheSize sets the maximum number of cached role permission sets.
func WithCacheSize(size int) Option {
	return func(s *Service) {
		s.cache = newPermissionCache(size, s.cache.ttl)
	}
}

// New creates a new iamkit service.
//
// Example:
//
//	db, _ := dbkit.New(dbkit.Config{URL: "postgres://..."})
//	service := iamkit.New(db, iamkit.WithCacheTTL(30*time.Second))
func New(db dbkit.IDB, opts ...Option) *Service {
	s := &Service{
		db:        db,
		log:       newNullLogger(),
		cache:     newPermissionCache(defaultCacheSize, defaultCacheTTL),
		txMonitor: newTransactionMonitor(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// newNullLogger returns a logger that discards everything. Callers opt in to
// logging with WithLogger.
func newNullLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(nullWriter{})
	return log
}

type nullWriter struct{}

func (nullWriter) Write(p []byte) (int, error) { return len(p), nil }

// CacheStats returns hit/miss counters for the permission cache.
func (s *Service) CacheStats() CacheStats {
	return s.cache.stats()
}

// GetChecker resolves the actor and returns a bound Checker.
//
// Example:
//
//	checker, err := service.GetChecker(ctx, actorID)
//	if err != nil {
//	    return err
//	}
//	if checker.Can(iamkit.OpUpdate, iamkit.CompanyTarget(company)) { ... }
func (s *Service) GetChecker(ctx context.Context, actorID int64) (*Checker, error) {
	actor, err := s.ActorFor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return NewChecker(actor), nil
}
