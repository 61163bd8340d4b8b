package iamkit

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrorWrapping tests sentinel matching through the Error wrapper
func TestErrorWrapping(t *testing.T) {
	err := NewError(ErrNotFound, "user not found").WithUser(7)

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, IsNotFound(err))
	assert.False(t, IsUnauthorized(err))
	assert.Equal(t, int64(7), err.UserID)

	// Wrapping another layer keeps classification working
	wrapped := fmt.Errorf("handler: %w", err)
	assert.True(t, IsNotFound(wrapped))
}

// TestErrorMessage tests the message composition
func TestErrorMessage(t *testing.T) {
	err := NewError(ErrUnauthorized, "operation denied").WithReason(ReasonCrossCompany)
	assert.Contains(t, err.Error(), "operation denied")
	assert.Contains(t, err.Error(), string(ReasonCrossCompany))

	bare := NewError(ErrBadRequest, "")
	assert.Equal(t, ErrBadRequest.Error(), bare.Error())
}

// TestErrorChaining tests the chainable context setters
func TestErrorChaining(t *testing.T) {
	err := NewError(ErrUnauthorized, "operation denied").
		WithReason(ReasonPeerAdmin).
		WithOperation(OpChangeRole).
		WithCompany(3).
		WithUser(20).
		WithActor(10)

	assert.Equal(t, ReasonPeerAdmin, err.Reason)
	assert.Equal(t, OpChangeRole, err.Operation)
	assert.Equal(t, int64(3), err.CompanyID)
	assert.Equal(t, int64(20), err.UserID)
	assert.Equal(t, int64(10), err.ActorID)
}

// TestDenied tests the Decision to error conversion
func TestDenied(t *testing.T) {
	d := deny(ReasonDefaultRoleRestricted)
	err := denied(d, OpAssignRole, 10)

	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, ReasonDefaultRoleRestricted, err.Reason)
	assert.Equal(t, OpAssignRole, err.Operation)
	assert.Equal(t, int64(10), err.ActorID)
}

// TestDenialReason tests reason extraction from wrapped errors
func TestDenialReason(t *testing.T) {
	err := denied(deny(ReasonCrossCompany), OpRead, 10)
	assert.Equal(t, ReasonCrossCompany, DenialReason(err))

	wrapped := fmt.Errorf("handler: %w", err)
	assert.Equal(t, ReasonCrossCompany, DenialReason(wrapped))

	assert.Equal(t, Reason(""), DenialReason(errors.New("plain")))
	assert.Equal(t, Reason(""), DenialReason(nil))
}
