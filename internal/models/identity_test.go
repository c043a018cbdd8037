package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIdentity(t *testing.T) {
	user := UserIdentity(42)
	id, ok := user.UserID()
	assert.True(t, ok)
	assert.Equal(t, 42, id)
	_, ok = user.SessionID()
	assert.False(t, ok)
	assert.Equal(t, "user:42", user.Key())

	session := SessionIdentity("abc")
	sid, ok := session.SessionID()
	assert.True(t, ok)
	assert.Equal(t, "abc", sid)
	_, ok = session.UserID()
	assert.False(t, ok)
	assert.Equal(t, "session:abc", session.Key())

	assert.True(t, Identity{}.IsZero())
	assert.False(t, session.IsZero())
	assert.NotEqual(t, UserIdentity(1), SessionIdentity("1"))
}

func TestOrderSetOwner(t *testing.T) {
	var o Order
	o.SetOwner(UserIdentity(7))
	if assert.NotNil(t, o.UserID) {
		assert.Equal(t, 7, *o.UserID)
	}
	assert.Nil(t, o.SessionID)

	var anon Order
	anon.SetOwner(SessionIdentity("s-1"))
	assert.Nil(t, anon.UserID)
	if assert.NotNil(t, anon.SessionID) {
		assert.Equal(t, "s-1", *anon.SessionID)
	}
}
