package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewSessionToken(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	a := NewSessionToken(now)
	b := NewSessionToken(now)

	assert.True(t, strings.HasPrefix(a, "cart_1700000000123"))
	assert.Len(t, a, len("cart_1700000000123")+8)
	assert.NotEqual(t, a, b)
	assert.True(t, ValidSessionToken(a))
}

func TestValidSessionToken(t *testing.T) {
	tests := []struct {
		token string
		want  bool
	}{
		{"cart_123", true},
		{"cart_1700000000123ab12cd34", true},
		{"cart_", false},
		{"", false},
		{"basket_123", false},
		{"cart_12 3", false},
		{"cart_123;drop", false},
		{"cart_" + strings.Repeat("a", 60), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidSessionToken(tt.token), tt.token)
	}
}
