package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	OK     bool           `json:"ok"`
	Result map[string]any `json:"result"`
	Error  string         `json:"error"`
}

func TestDecodeLastJSON(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantOK bool
		want   map[string]any
	}{
		{
			name:   "bare response",
			input:  `{"ok": true, "result": {"n": 1}}`,
			wantOK: true,
			want:   map[string]any{"n": float64(1)},
		},
		{
			name:   "banner before response",
			input:  "Using backend: cpu\nWARNING: tf deprecated\n{\"ok\": true, \"result\": {\"n\": 2}}\n",
			wantOK: true,
			want:   map[string]any{"n": float64(2)},
		},
		{
			name:   "trailing text after response",
			input:  "{\"ok\": true, \"result\": {\"n\": 3}} done\n",
			wantOK: true,
			want:   map[string]any{"n": float64(3)},
		},
		{
			name:   "pretty printed with nested objects",
			input:  "log line\n{\n  \"ok\": true,\n  \"result\": {\n    \"n\": 4\n  }\n}\n",
			wantOK: true,
			want:   map[string]any{"n": float64(4)},
		},
		{
			name:  "last object wins",
			input: "{\"ok\": true, \"result\": {\"n\": 5}}\n{\"ok\": false, \"error\": \"late failure\"}\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeLastJSON[envelope]([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, got.OK)
			if tt.wantOK {
				assert.Equal(t, tt.want, got.Result)
			}
		})
	}
}

func TestDecodeLastJSON_Errors(t *testing.T) {
	_, err := DecodeLastJSON[envelope]([]byte("Traceback (most recent call last):\n  boom\n"))
	assert.True(t, errors.Is(err, ErrNoJSON))

	_, err = DecodeLastJSON[envelope](nil)
	assert.True(t, errors.Is(err, ErrNoJSON))

	_, err = DecodeLastJSON[envelope]([]byte("{\"ok\": tru\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse JSON")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello", 5))
	assert.Equal(t, "he...", Truncate("hello world", 5))
	assert.Equal(t, "hé", Truncate("héllo", 2))
}

func TestTruncateTail(t *testing.T) {
	assert.Equal(t, "short", TruncateTail("short", 10))
	assert.Equal(t, "...Error", TruncateTail("Traceback: ValueError", 8))
	assert.Equal(t, "or", TruncateTail("Error", 2))
}
