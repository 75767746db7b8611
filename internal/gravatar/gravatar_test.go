package gravatar

import (
	"testing"

	"github.com/dealerhub/dealerhub/internal/config"
	"github.com/stretchr/testify/assert"
)

// sha256 of "test@example.com"
const testHash = "973dfe463ec85785f5f95af5ba3906eedb2d931c24e69824a89ea65dba4e813b"

func TestURL(t *testing.T) {
	tests := []struct {
		name   string
		email  string
		cfg    *config.GravatarConfig
		expect string
	}{
		{name: "nil config", email: "test@example.com"},
		{name: "disabled", email: "test@example.com", cfg: &config.GravatarConfig{}},
		{name: "no email", email: "  ", cfg: &config.GravatarConfig{Enabled: true}},
		{
			name:   "plain",
			email:  "test@example.com",
			cfg:    &config.GravatarConfig{Enabled: true},
			expect: baseURL + testHash,
		},
		{
			name:   "normalizes email",
			email:  "  Test@Example.COM ",
			cfg:    &config.GravatarConfig{Enabled: true},
			expect: baseURL + testHash,
		},
		{
			name:   "all parameters",
			email:  "test@example.com",
			cfg:    &config.GravatarConfig{Enabled: true, DefaultImage: "identicon", Rating: "pg", Size: 120},
			expect: baseURL + testHash + "?d=identicon&r=pg&s=120",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, URL(tt.email, tt.cfg))
		})
	}
}

func TestValidators(t *testing.T) {
	assert.True(t, IsValidDefaultImage("mp"))
	assert.False(t, IsValidDefaultImage("unicorn"))
	assert.True(t, IsValidRating("x"))
	assert.False(t, IsValidRating("nc17"))
	assert.True(t, IsValidSize(1))
	assert.True(t, IsValidSize(2048))
	assert.False(t, IsValidSize(0))
	assert.False(t, IsValidSize(4096))
}

func TestSanitize(t *testing.T) {
	cfg := &config.GravatarConfig{Enabled: true, DefaultImage: "unicorn", Rating: "nc17", Size: 5000}
	warnings := Sanitize(cfg)

	assert.Len(t, warnings, 3)
	assert.Equal(t, "robohash", cfg.DefaultImage)
	assert.Equal(t, "g", cfg.Rating)
	assert.Equal(t, 80, cfg.Size)

	valid := &config.GravatarConfig{Enabled: true, DefaultImage: "mp", Rating: "r", Size: 64}
	assert.Empty(t, Sanitize(valid))
	assert.Equal(t, "mp", valid.DefaultImage)

	disabled := &config.GravatarConfig{DefaultImage: "unicorn"}
	assert.Empty(t, Sanitize(disabled))
	assert.Equal(t, "unicorn", disabled.DefaultImage)
	assert.Nil(t, Sanitize(nil))
}
