package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowlistEmptyAllowsEverything(t *testing.T) {
	a, err := NewAllowlist(nil)
	require.NoError(t, err)

	assert.NoError(t, a.AllowsURL("https://anywhere.example"))
	assert.NoError(t, a.AllowsURL("http://localhost:8080/path"))
}

func TestAllowlistMatchesHostPatterns(t *testing.T) {
	a, err := NewAllowlist([]string{"*.example.com", "docs.internal"})
	require.NoError(t, err)

	tests := []struct {
		url     string
		allowed bool
	}{
		{"https://www.example.com/pricing", true},
		{"https://api.example.com", true},
		{"https://example.com", false}, // bare apex does not match *.example.com
		{"https://docs.internal/page", true},
		{"https://evil.com", false},
		{"https://example.com.evil.com", false},
	}

	for _, tt := range tests {
		err := a.AllowsURL(tt.url)
		if tt.allowed {
			assert.NoError(t, err, tt.url)
		} else {
			assert.Error(t, err, tt.url)
		}
	}
}

func TestAllowlistIsCaseInsensitive(t *testing.T) {
	a, err := NewAllowlist([]string{"*.Example.COM"})
	require.NoError(t, err)

	assert.NoError(t, a.AllowsURL("https://WWW.EXAMPLE.com"))
}

func TestAllowlistRejectsNonHTTPSchemes(t *testing.T) {
	a, err := NewAllowlist(nil)
	require.NoError(t, err)

	assert.Error(t, a.AllowsURL("file:///etc/passwd"))
	assert.Error(t, a.AllowsURL("javascript:alert(1)"))
	assert.Error(t, a.AllowsURL("ftp://example.com"))
}

func TestAllowlistRejectsInvalidPattern(t *testing.T) {
	_, err := NewAllowlist([]string{"[invalid"})
	assert.Error(t, err)
}
