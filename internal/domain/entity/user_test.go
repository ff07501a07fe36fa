package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNameChunks(t *testing.T) {
	u := &User{Name: "Ada Lovelace King"}
	assert.Equal(t, "Ada", u.FirstName())
	assert.Equal(t, "Lovelace", u.LastName())

	u = &User{Name: "Plato"}
	assert.Equal(t, "Plato", u.FirstName())
	assert.Equal(t, "", u.LastName())

	u = &User{}
	assert.Equal(t, "", u.FirstName())
	assert.Equal(t, "", u.LastName())
}

func TestDaysOnSite(t *testing.T) {
	u := &User{DateJoined: time.Now().Add(-49 * time.Hour)}
	assert.Equal(t, 2, u.DaysOnSite())
}

func TestInviteConsumedAndURL(t *testing.T) {
	inv := &UserInvite{Code: "abcdefghijklmnopqrstuvwxyzabcd"}
	assert.False(t, inv.Consumed())
	assert.Equal(t,
		"https://tabbli.example/register?invite_code=abcdefghijklmnopqrstuvwxyzabcd",
		inv.RegistrationURL("https://tabbli.example"))

	inv.RegisteredUserID = "u1"
	assert.True(t, inv.Consumed())
}
