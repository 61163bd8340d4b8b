package iamkit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestContextActorID tests the actor id carrier
func TestContextActorID(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, int64(0), GetActorID(ctx))

	ctx = WithActorID(ctx, 42)
	assert.Equal(t, int64(42), GetActorID(ctx))
	assert.Equal(t, int64(42), MustGetActorID(ctx))
}

// TestContextMustGetActorIDPanics tests the panic on missing actor
func TestContextMustGetActorIDPanics(t *testing.T) {
	assert.Panics(t, func() {
		MustGetActorID(context.Background())
	})
}

// TestContextAuditValues tests the audit carriers
func TestContextAuditValues(t *testing.T) {
	ctx := context.Background()
	ctx = WithIPAddress(ctx, "10.0.0.1")
	ctx = WithUserAgent(ctx, "test-agent")
	ctx = WithRequestID(ctx, "req-123")

	assert.Equal(t, "10.0.0.1", GetIPAddress(ctx))
	assert.Equal(t, "test-agent", GetUserAgent(ctx))
	assert.Equal(t, "req-123", GetRequestID(ctx))
}

// TestContextChecker tests checker storage and retrieval
func TestContextChecker(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, GetChecker(ctx))
	assert.Nil(t, FromContext(ctx))

	checker := NewChecker(adminActor(3))
	ctx = WithChecker(ctx, checker)
	assert.Equal(t, checker, GetChecker(ctx))
	assert.Equal(t, checker, FromContext(ctx))
}

// TestContextAuditContextRoundTrip tests bulk audit context handling
func TestContextAuditContextRoundTrip(t *testing.T) {
	ac := AuditContext{
		ActorID:   42,
		IPAddress: "10.0.0.1",
		UserAgent: "test-agent",
		RequestID: "req-123",
	}

	ctx := WithAuditContext(context.Background(), ac)
	assert.Equal(t, ac, GetAuditContext(ctx))

	// Empty fields are not written
	ctx = WithAuditContext(context.Background(), AuditContext{})
	assert.Equal(t, AuditContext{}, GetAuditContext(ctx))
}
