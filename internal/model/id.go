package model

import (
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/mcoot/gameroom-go/internal/dependencies/random"
)

const (
	gameIDPrefix    = "game_"
	sessionIDPrefix = "session_"

	// Raw byte widths before encoding. Game IDs are short and human-shareable;
	// session IDs are long enough to be unguessable.
	gameIDWidth    = 4
	sessionIDWidth = 16
)

// idEncoding is unpadded base32; padding characters would make IDs awkward in
// URLs and ambiguous to validate.
var idEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// GameID identifies a live game. The value is always held in its canonical
// prefixed wire form ("game_" + base32).
type GameID string

// SessionID identifies a player's membership in a single game. Like GameID,
// always held in canonical wire form.
type SessionID string

func (id GameID) String() string {
	return string(id)
}

func (id SessionID) String() string {
	return string(id)
}

// NewGameID generates a random game ID
func NewGameID(rnd random.Random) GameID {
	return GameID(gameIDPrefix + idEncoding.EncodeToString(rnd.Bytes(gameIDWidth)))
}

// NewSessionID generates a random session ID
func NewSessionID(rnd random.Random) SessionID {
	return SessionID(sessionIDPrefix + idEncoding.EncodeToString(rnd.Bytes(sessionIDWidth)))
}

// ParseGameID validates the wire form of a game ID
func ParseGameID(s string) (GameID, error) {
	if err := validateID(s, gameIDPrefix, gameIDWidth); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidGameID, err)
	}
	return GameID(s), nil
}

// ParseSessionID validates the wire form of a session ID
func ParseSessionID(s string) (SessionID, error) {
	if err := validateID(s, sessionIDPrefix, sessionIDWidth); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSessionID, err)
	}
	return SessionID(s), nil
}

// validateID checks prefix, decodability and width, and rejects any encoding
// that is not the canonical one for its bytes. Without the re-encode check a
// single ID could have several accepted spellings, which would break map
// lookups keyed on the string form.
func validateID(s, prefix string, width int) error {
	encoded, ok := strings.CutPrefix(s, prefix)
	if !ok {
		return fmt.Errorf("missing %q prefix", prefix)
	}
	raw, err := idEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("malformed encoding: %v", err)
	}
	if len(raw) != width {
		return fmt.Errorf("expected %d bytes, got %d", width, len(raw))
	}
	if idEncoding.EncodeToString(raw) != encoded {
		return fmt.Errorf("non-canonical encoding")
	}
	return nil
}
