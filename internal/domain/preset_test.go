package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSocialFormatByName(t *testing.T) {
	format, ok := SocialFormatByName("Instagram Portrait (4:5)")
	require.True(t, ok)
	assert.Equal(t, 1080, format.Width)
	assert.Equal(t, 1350, format.Height)
	assert.Equal(t, "4:5", format.AspectRatio)

	_, ok = SocialFormatByName("Nonexistent")
	assert.False(t, ok)
}

func TestSocialFormats_Catalog(t *testing.T) {
	require.Len(t, SocialFormats, 5)

	seen := map[string]bool{}
	for _, f := range SocialFormats {
		assert.False(t, seen[f.Name], "duplicate preset name %q", f.Name)
		seen[f.Name] = true
		assert.Positive(t, f.Width)
		assert.Positive(t, f.Height)
		assert.NotEmpty(t, f.AspectRatio)
	}
}
