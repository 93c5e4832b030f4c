package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytesToString(t *testing.T) {
	assert.Equal(t, "weightly", BytesToString([]byte("weightly")))
	assert.Equal(t, "", BytesToString(nil))
}

func TestGenerateRandomString(t *testing.T) {
	s1, err := GenerateRandomString(35)
	require.NoError(t, err)
	require.NotEmpty(t, s1)

	s2, err := GenerateRandomString(35)
	require.NoError(t, err)
	require.NotEmpty(t, s2)

	assert.NotEqual(t, s1, s2)
}
