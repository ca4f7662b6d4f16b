package version

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestVersionDefaults(t *testing.T) {
	assert.NotEmpty(t, Version)
	assert.NotContains(t, Version, "\x1b[", "the plain version keys the cache and must not carry escapes")
}

func TestColored(t *testing.T) {
	orig := Version
	origNoColor := color.NoColor
	t.Cleanup(func() {
		Version = orig
		color.NoColor = origNoColor
	})

	color.NoColor = true
	Version = "1.2.3-rc1"
	assert.Equal(t, "1.2.3-rc1", Colored())

	Version = "1.2.3"
	assert.Equal(t, "1.2.3", Colored())

	Version = "nightly"
	assert.Equal(t, "nightly", Colored())

	color.NoColor = false
	Version = "1.2.3"
	assert.Contains(t, Colored(), "\x1b[")
}
