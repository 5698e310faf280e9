package audit_repo

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangesCompressionRoundTrip(t *testing.T) {
	repo, err := NewRepo(nil)
	require.NoError(t, err)

	// A payload well above the threshold, with enough repetition to
	// actually shrink.
	notes := strings.Repeat("inspected and counted; ", 2000)
	payload, err := json.Marshal(changesPayload{
		After: json.RawMessage(`{"schemaVersion":1,"notes":"` + notes + `"}`),
	})
	require.NoError(t, err)
	require.Greater(t, len(payload), compressThreshold)

	compressed := repo.encoder.EncodeAll(payload, nil)
	assert.Less(t, len(compressed), len(payload))

	restored, err := repo.decoder.DecodeAll(compressed, nil)
	require.NoError(t, err)
	assert.Equal(t, payload, restored)
}

func TestChangesPayloadOmitsEmptySides(t *testing.T) {
	createOnly, err := json.Marshal(changesPayload{After: json.RawMessage(`{"id":"x"}`)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"after":{"id":"x"}}`, string(createOnly))

	deleteOnly, err := json.Marshal(changesPayload{Before: json.RawMessage(`{"id":"x"}`)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"before":{"id":"x"}}`, string(deleteOnly))

	var back changesPayload
	require.NoError(t, json.Unmarshal(createOnly, &back))
	assert.Empty(t, back.Before)
	assert.JSONEq(t, `{"id":"x"}`, string(back.After))
}
