package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuditWriteError(t *testing.T) {
	cause := fmt.Errorf("insert audit log: %w", ErrStorageUnavailable)
	var err error = &AuditWriteError{ProviderMessageSID: "SM123", Err: cause}

	assert.ErrorIs(t, err, ErrAuditWriteFailed)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.NotErrorIs(t, err, ErrProviderSendFailed)
	assert.Contains(t, err.Error(), "SM123")

	var awe *AuditWriteError
	assert.True(t, errors.As(fmt.Errorf("forward: %w", err), &awe))
	assert.Equal(t, "SM123", awe.ProviderMessageSID)
}
