//go:build js && wasm

package jshost

import (
	"context"
	"testing"

	"github.com/MCPJam/apps-sdk-everything/internal/bridge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilHost_BehavesAsAbsent(t *testing.T) {
	var h *Host

	assert.False(t, h.Present())
	assert.False(t, bridge.IsHosted(h))
	_, ok := h.Global(bridge.KeyTheme)
	assert.False(t, ok)
	assert.False(t, h.HasMethod(bridge.MethodCallTool))

	_, err := h.CallTool(context.Background(), "calculator", nil)
	require.ErrorIs(t, err, bridge.ErrHostUnavailable)
	assert.NotPanics(t, func() {
		h.OpenExternal("https://example.com")
		h.NotifyIntrinsicHeight(120)
	})
}

func TestNew_AbsentWindowOpenAIIsNil(t *testing.T) {
	// The test runtime never installs window.openai.
	assert.Nil(t, New())
	assert.False(t, Bound().Present())
}
