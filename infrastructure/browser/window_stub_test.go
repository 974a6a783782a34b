//go:build !(js && wasm)

package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWindow_UnavailableNatively(t *testing.T) {
	w, err := NewWindow()
	require.ErrorIs(t, err, ErrUnavailable)
	assert.Nil(t, w)

	var stub Window
	assert.ErrorIs(t, stub.PostMessage([]byte("{}"), "*"), ErrUnavailable)
	stub.Listen(nil)()
}
