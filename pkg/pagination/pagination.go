// Package pagination implements the opaque keyset cursors behind the order
// history and produce catalogue listings. Pages run newest first on
// (created_at, id); a cursor names the last row of the previous page.
package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultLimit applies when the caller does not ask for a page size.
	DefaultLimit = 25
	// MaxLimit caps the page size regardless of what the caller asks for.
	MaxLimit = 100

	cursorSeparator = "|"
)

// Params carries the raw pagination inputs from a request.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor is the decoded keyset position: the created_at and id of the last
// row already returned.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// NormalizeLimit clamps a requested page size to [1, MaxLimit], defaulting
// when unset.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// EncodeCursor renders the position as an opaque base64 token.
func EncodeCursor(cursor Cursor) string {
	raw := cursor.CreatedAt.UTC().Format(time.RFC3339Nano) + cursorSeparator + cursor.ID.String()
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// ParseCursor decodes a client-supplied token. An empty token means the first
// page and returns a nil cursor.
func ParseCursor(token string) (*Cursor, error) {
	if strings.TrimSpace(token) == "" {
		return nil, nil
	}

	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("cursor is not valid base64: %w", err)
	}

	timestampPart, idPart, found := strings.Cut(string(raw), cursorSeparator)
	if !found {
		return nil, fmt.Errorf("cursor is missing its separator")
	}

	createdAt, err := time.Parse(time.RFC3339Nano, timestampPart)
	if err != nil {
		return nil, fmt.Errorf("cursor timestamp: %w", err)
	}
	id, err := uuid.Parse(idPart)
	if err != nil {
		return nil, fmt.Errorf("cursor id: %w", err)
	}

	return &Cursor{CreatedAt: createdAt, ID: id}, nil
}
