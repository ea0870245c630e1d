package hashing_test

import (
	"strings"
	"testing"

	"blink-pin/internal/hashing"

	"github.com/stretchr/testify/assert"
)

func TestHashPIN(t *testing.T) {
	h := hashing.NewHasher()

	testCases := []struct {
		pin    string
		digest string
	}{
		{"0101", "07334386287751ba02a4588c1a0875dbd074a61bd9e6ab7c48d244eacd0c99e0"},
		{"1010", "7a5df5ffa0dec2228d90b8d0a0f1b0767b748b0a41314c123075b8289e4e053f"},
		{"", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
	}

	for _, tc := range testCases {
		t.Run(tc.pin, func(t *testing.T) {
			got := h.HashPIN(tc.pin)
			assert.Len(t, got, 64)
			assert.Equal(t, tc.digest, got)
		})
	}

	assert.Equal(t, h.HashPIN("0110"), h.HashPIN("0110"))
	assert.NotEqual(t, h.HashPIN("0101"), h.HashPIN("0110"))
}

func TestVerifyPIN(t *testing.T) {
	h := hashing.NewHasher()
	stored := h.HashPIN("0101")

	assert.True(t, h.VerifyPIN("0101", stored))
	assert.True(t, h.VerifyPIN("0101", strings.ToUpper(stored)))
	assert.False(t, h.VerifyPIN("0110", stored))
	assert.False(t, h.VerifyPIN("010", stored))
	assert.False(t, h.VerifyPIN("0101", ""))
	assert.False(t, h.VerifyPIN("0101", stored[:32]))
}
