package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeBLAKE3(t *testing.T) {
	a := ComputeBLAKE3([]byte("(1:1:0)"))
	assert.Len(t, a, 64)
	assert.Equal(t, a, ComputeBLAKE3([]byte("(1:1:0)")))
	assert.NotEqual(t, a, ComputeBLAKE3([]byte("(1:1:1)")))

	fromReader, err := ComputeBLAKE3Reader(strings.NewReader("(1:1:0)"))
	require.NoError(t, err)
	assert.Equal(t, a, fromReader)
}
