package apitag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTag(t *testing.T) {
	tests := []struct {
		apiName string
		version Version
		want    string
	}{
		{"app.initialize", V2, "v2_app.initialize"},
		{"getContext", V1, "v1_getContext"},
		{"messageChannels.telemetry.getPort", V3, "v3_messageChannels.telemetry.getPort"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Tag(tt.apiName, tt.version))
		})
	}
}

func TestArea(t *testing.T) {
	pages := NewArea("pages", V2)
	assert.Equal(t, "v2_pages.navigateTo", pages.Tag("navigateTo"))

	root := NewArea("", V1)
	assert.Equal(t, "v1_registerHandler", root.Tag("registerHandler"))
}
