package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMobile(t *testing.T) {
	valid := []string{"+15550100", "0412 345 678", "+44 (20) 7946-0958", "9876543210", "+91.98765.43210"}
	invalid := []string{"", "12345", "phone", "+1555010012345678", "555-CALL-NOW", "++15550100"}

	for _, s := range valid {
		assert.True(t, IsMobile(s), s)
	}
	for _, s := range invalid {
		assert.False(t, IsMobile(s), s)
	}
}

func TestCustomValidator_MobileTag(t *testing.T) {
	type req struct {
		Phone string `json:"phone" validate:"required,mobile"`
	}
	v := NewValidator()

	assert.NoError(t, v.Validate(&req{Phone: "+15550100"}))
	assert.Error(t, v.Validate(&req{Phone: "nope"}))
	assert.Error(t, v.Validate(&req{}))
}
