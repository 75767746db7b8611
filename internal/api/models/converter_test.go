package models

import (
	"testing"

	"github.com/dealerhub/dealerhub/internal/config"
	"github.com/dealerhub/dealerhub/internal/database"
	"github.com/stretchr/testify/assert"
)

func TestToUser(t *testing.T) {
	s := &database.Session{
		Token: "tok",
		User: database.User{
			Username:  "alice",
			FirstName: "Alice",
			LastName:  "Doe",
			Email:     "test@example.com",
		},
	}
	s.User.ID = 7

	u := ToUser(s, &config.GravatarConfig{Enabled: true})
	assert.Equal(t, uint(7), u.ID)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "tok", u.SessionToken)
	assert.Contains(t, u.GravatarURL, "https://www.gravatar.com/avatar/")

	assert.Empty(t, ToUser(s, nil).GravatarURL)
}

func TestToProfile(t *testing.T) {
	p := ToProfile(&User{ID: 1, Username: "bob", FirstName: "Bob", Email: "bob@example.com", SessionToken: "secret"})
	assert.Equal(t, Profile{UserName: "bob", FirstName: "Bob", Email: "bob@example.com"}, p)
}
