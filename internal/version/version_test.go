package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestString(t *testing.T) {
	assert.Equal(t, "dev (commit: unknown, built: unknown)", String())
}

func TestUserAgent(t *testing.T) {
	assert.Regexp(t, `^wtx/dev \(\+https://`, UserAgent())
}
