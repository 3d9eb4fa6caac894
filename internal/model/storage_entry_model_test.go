package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStorageEntrySplitsJSONFromText(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		wantJSON bool
	}{
		{"message log", `[{"id":"msg-1","text":"hi","sender":"user","timestamp":1}]`, true},
		{"booking state", `{"bookingStatus":null,"bookingStep":null}`, true},
		{"activity stamp", "1740819600000", true},
		{"session id", "session_1740819600000_abc123def", false},
		{"corrupt blob", "{{{", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := NewStorageEntry("k", tt.value)
			if tt.wantJSON {
				assert.Nil(t, entry.Value)
				assert.True(t, json.Valid(entry.JSONValue))
			} else {
				require.NotNil(t, entry.Value)
				assert.Empty(t, entry.JSONValue)
			}
			assert.Equal(t, tt.value, entry.Raw())
		})
	}
}

func TestStorageEntryRawEmpty(t *testing.T) {
	assert.Equal(t, "", StorageEntry{Key: "k"}.Raw())
}
