package domain

import (
	"bytes"
	"encoding/json"
	"errors"
)

var errBadID = errors.New("id must be a string or a number")

// Catalog and account ids arrive as JSON strings or numbers depending on the
// client; both decode to the same string form.
func decodeID(b []byte) (string, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return "", nil
	}
	if b[0] == '"' {
		var s string
		err := json.Unmarshal(b, &s)
		return s, err
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return "", errBadID
	}
	return n.String(), nil
}

func (id *TrackID) UnmarshalJSON(b []byte) error {
	s, err := decodeID(b)
	if err != nil {
		return err
	}
	*id = TrackID(s)
	return nil
}

func (id *UserID) UnmarshalJSON(b []byte) error {
	s, err := decodeID(b)
	if err != nil {
		return err
	}
	*id = UserID(s)
	return nil
}
