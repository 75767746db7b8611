// Package gravatar builds avatar URLs for user profiles.
package gravatar

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strconv"
	"strings"

	"github.com/dealerhub/dealerhub/internal/config"
)

const (
	baseURL = "https://www.gravatar.com/avatar/"

	defaultImage  = "robohash"
	defaultRating = "g"
	defaultSize   = 80
)

var (
	validDefaults = map[string]struct{}{
		"404": {}, "mp": {}, "identicon": {}, "monsterid": {},
		"wavatar": {}, "retro": {}, "robohash": {}, "blank": {},
	}
	validRatings = map[string]struct{}{"g": {}, "pg": {}, "r": {}, "x": {}}
)

// URL returns the avatar URL for email, or an empty string when avatars
// are disabled or the user has no email.
func URL(email string, cfg *config.GravatarConfig) string {
	if cfg == nil || !cfg.Enabled {
		return ""
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return ""
	}

	sum := sha256.Sum256([]byte(email))
	u := baseURL + hex.EncodeToString(sum[:])

	params := url.Values{}
	if cfg.DefaultImage != "" {
		params.Set("d", cfg.DefaultImage)
	}
	if cfg.Rating != "" {
		params.Set("r", cfg.Rating)
	}
	if cfg.Size > 0 {
		params.Set("s", strconv.Itoa(cfg.Size))
	}
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

func IsValidDefaultImage(v string) bool {
	_, ok := validDefaults[v]
	return ok
}

func IsValidRating(v string) bool {
	_, ok := validRatings[v]
	return ok
}

// IsValidSize reports whether size is within the 1-2048 pixel range.
func IsValidSize(size int) bool {
	return size >= 1 && size <= 2048
}

// Sanitize resets invalid values of an enabled config to their defaults and
// returns one warning per value it replaced.
func Sanitize(cfg *config.GravatarConfig) []string {
	if cfg == nil || !cfg.Enabled {
		return nil
	}

	var warnings []string
	if cfg.DefaultImage != "" && !IsValidDefaultImage(cfg.DefaultImage) {
		warnings = append(warnings, "invalid gravatar default image "+strconv.Quote(cfg.DefaultImage)+", using "+defaultImage)
		cfg.DefaultImage = defaultImage
	}
	if cfg.Rating != "" && !IsValidRating(cfg.Rating) {
		warnings = append(warnings, "invalid gravatar rating "+strconv.Quote(cfg.Rating)+", using "+defaultRating)
		cfg.Rating = defaultRating
	}
	if cfg.Size != 0 && !IsValidSize(cfg.Size) {
		warnings = append(warnings, "invalid gravatar size "+strconv.Itoa(cfg.Size)+", using "+strconv.Itoa(defaultSize))
		cfg.Size = defaultSize
	}
	return warnings
}
