package sdk

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostlink-dev/hostlink-sdk/go/domain/entities"
)

func TestIsRuntimeDocument(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{`{"apiVersion":4,"supports":{}}`, true},
		{"null", true},
		{"", false},
		{"2.0.1", false},
		{"2", false},
		{"{broken", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isRuntimeDocument(tt.in), "input %q", tt.in)
	}
}

func TestDecodeInitializeReply(t *testing.T) {
	args := []json.RawMessage{
		json.RawMessage(`"settings"`),
		json.RawMessage(`"android"`),
		json.RawMessage(` {"apiVersion":4} `),
		json.RawMessage(`null`),
	}
	reply, err := decodeInitializeReply(args)
	require.NoError(t, err)
	assert.Equal(t, entities.FrameContextSettings, reply.FrameContext)
	assert.Equal(t, entities.HostClassAndroid, reply.HostClass)
	assert.Equal(t, `{"apiVersion":4}`, reply.RuntimeConfig)
	assert.Empty(t, reply.ClientSupportedSDKVersion)
}

func TestDecodeInitializeReply_ShortReply(t *testing.T) {
	reply, err := decodeInitializeReply([]json.RawMessage{json.RawMessage(`"content"`)})
	require.NoError(t, err)
	assert.Equal(t, entities.FrameContextContent, reply.FrameContext)
	assert.Empty(t, reply.HostClass)

	_, err = decodeInitializeReply([]json.RawMessage{json.RawMessage(`42`)})
	assert.Error(t, err)
}
