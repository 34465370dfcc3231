package randx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserIDIsValid(t *testing.T) {
	id := UserID()
	assert.Len(t, id, 32)
	assert.True(t, IsValidID(id))
	assert.NotEqual(t, id, UserID())
}

func TestMessageIDIsValid(t *testing.T) {
	assert.True(t, IsValidID(MessageID()))
}

func TestIsValidIDRejectsGarbage(t *testing.T) {
	assert.False(t, IsValidID(""))
	assert.False(t, IsValidID("not-an-id"))
	assert.False(t, IsValidID("zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz"))
}
