package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDsAcceptStringsAndNumbers(t *testing.T) {
	var tr Track
	require.NoError(t, json.Unmarshal([]byte(`{"id": 3135556, "title": "x"}`), &tr))
	assert.Equal(t, TrackID("3135556"), tr.ID)

	require.NoError(t, json.Unmarshal([]byte(`{"id": "spotify:abc"}`), &tr))
	assert.Equal(t, TrackID("spotify:abc"), tr.ID)

	var u User
	require.NoError(t, json.Unmarshal([]byte(`{"id": 17, "name": "Alice"}`), &u))
	assert.Equal(t, UserID("17"), u.ID)

	require.NoError(t, json.Unmarshal([]byte(`{"id": null}`), &u))
	assert.Equal(t, UserID(""), u.ID)

	assert.Error(t, json.Unmarshal([]byte(`{"id": {"nested": true}}`), &tr))
}
