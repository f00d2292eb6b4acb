package utils

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"
)

var ErrInvalidCursor = errors.New("invalid cursor")

// Cursor is the keyset continuation point for task search. It records the
// sort binding it was issued under so that a cursor replayed with a
// different sort can be rejected instead of silently skipping rows.
//
// SortValue is the sort column's value on the last row of the previous
// page; a nil SortValue under a timestamp sort means the previous page
// ended inside the NULL tail of that column.
type Cursor struct {
	SortBy    string     `json:"s"`
	SortDesc  bool       `json:"d"`
	SortValue *time.Time `json:"v,omitempty"`
	ID        uint64     `json:"id"`
}

// EncodeCursor serializes a cursor into an opaque URL-safe token.
func EncodeCursor(c Cursor) string {
	raw, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor parses a token produced by EncodeCursor.
func DecodeCursor(token string) (Cursor, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, ErrInvalidCursor
	}

	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return Cursor{}, ErrInvalidCursor
	}
	if c.ID == 0 {
		return Cursor{}, ErrInvalidCursor
	}
	return c, nil
}
