package models

import (
	"github.com/dealerhub/dealerhub/internal/config"
	"github.com/dealerhub/dealerhub/internal/database"
	"github.com/dealerhub/dealerhub/internal/gravatar"
)

// ToUser converts a stored session into the user placed on the request context.
func ToUser(s *database.Session, gravatarCfg *config.GravatarConfig) *User {
	return &User{
		ID:           s.User.ID,
		Username:     s.User.Username,
		FirstName:    s.User.FirstName,
		LastName:     s.User.LastName,
		Email:        s.User.Email,
		GravatarURL:  gravatar.URL(s.User.Email, gravatarCfg),
		SessionToken: s.Token,
	}
}

// ToProfile strips internal fields from a user.
func ToProfile(u *User) Profile {
	return Profile{
		UserName:    u.Username,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		GravatarURL: u.GravatarURL,
	}
}
