package models

import (
	"fmt"
	"strconv"
)

// Identity owns a cart: either an authenticated user or an anonymous
// session, never both. The zero value identifies nobody.
type Identity struct {
	userID    int
	sessionID string
}

func UserIdentity(userID int) Identity {
	return Identity{userID: userID}
}

func SessionIdentity(sessionID string) Identity {
	return Identity{sessionID: sessionID}
}

// UserID returns the user id when the identity is an authenticated user.
func (i Identity) UserID() (int, bool) {
	return i.userID, i.userID != 0
}

// SessionID returns the session id when the identity is anonymous.
func (i Identity) SessionID() (string, bool) {
	if i.userID != 0 {
		return "", false
	}
	return i.sessionID, i.sessionID != ""
}

func (i Identity) IsZero() bool {
	return i.userID == 0 && i.sessionID == ""
}

// Key is a stable string form, used for per-identity keys in caches and limiters.
func (i Identity) Key() string {
	if i.userID != 0 {
		return "user:" + strconv.Itoa(i.userID)
	}
	return "session:" + i.sessionID
}

func (i Identity) String() string {
	if i.userID != 0 {
		return fmt.Sprintf("user %d", i.userID)
	}
	return fmt.Sprintf("session %s", i.sessionID)
}
