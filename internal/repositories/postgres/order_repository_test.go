package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatOrderCode(t *testing.T) {
	createdAt := time.Date(2026, 8, 31, 20, 15, 0, 0, time.UTC)

	assert.Equal(t, "310826sm07", formatOrderCode(createdAt, "sm", 7))
	assert.Equal(t, "310826sm112", formatOrderCode(createdAt, "sm", 112))

	jan := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "020126sm01", formatOrderCode(jan, "sm", 1))
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "abc", shortID("abc"))
	assert.Equal(t, "c12345678"[:8], shortID("c12345678abcdef"))
}
