package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seekInput struct {
	HostSecret string `json:"host_secret" validate:"required"`
	PositionMs int    `json:"position_ms" validate:"gte=0"`
}

func TestValidate(t *testing.T) {
	v := NewValidator()

	_, ok := v.Validate(seekInput{HostSecret: "s", PositionMs: 10})
	assert.True(t, ok)

	errs, ok := v.Validate(seekInput{PositionMs: -1})
	require.False(t, ok)
	require.Len(t, errs, 2)
	assert.Equal(t, ValidationError{Field: "host_secret", Code: "REQUIRED", Message: "host_secret is required"}, errs[0])
	assert.Equal(t, "position_ms", errs[1].Field)
	assert.Equal(t, "GTE", errs[1].Code)
}
