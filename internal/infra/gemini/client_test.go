package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestWrapError_ExposesStatusCode(t *testing.T) {
	err := wrapError("gemini-2.0-flash", genai.APIError{Code: 429, Message: "Resource has been exhausted", Status: "RESOURCE_EXHAUSTED"})

	var coder interface{ StatusCode() int }
	require.True(t, errors.As(err, &coder))
	assert.Equal(t, 429, coder.StatusCode())
	assert.Contains(t, err.Error(), "gemini-2.0-flash")
	assert.Contains(t, err.Error(), "429")
}

func TestWrapError_PlainErrorKeepsMessage(t *testing.T) {
	base := errors.New("dial tcp: connection refused")
	err := wrapError("m", base)

	assert.ErrorIs(t, err, base)
	var coder interface{ StatusCode() int }
	assert.False(t, errors.As(err, &coder))
}

func TestClient_CachesSDKClientPerKey(t *testing.T) {
	c := NewClient(0)
	created := 0
	c.newSDK = func(ctx context.Context, apiKey string) (*genai.Client, error) {
		created++
		return &genai.Client{}, nil
	}

	ctx := context.Background()
	for _, key := range []string{"a", "a", "b"} {
		_, err := c.sdk(ctx, key)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, created)

	c.Forget("a")
	_, err := c.sdk(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 3, created)
}

func TestClient_SDKErrorIsWrapped(t *testing.T) {
	c := NewClient(0)
	c.newSDK = func(context.Context, string) (*genai.Client, error) {
		return nil, errors.New("api key is required")
	}
	_, err := c.Generate(context.Background(), "", "m", "p", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create GenAI client")
}
