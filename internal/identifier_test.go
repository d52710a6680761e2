package internal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveIdentifier(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Domains = []string{"gethopscotch", "example"}

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare id", "abc123", "https://community.gethopscotch.com/api/v1/projects/abc123"},
		{"community link", "https://community.gethopscotch.com/projects/abc123", "https://community.gethopscotch.com/api/v1/projects/abc123"},
		{"short link", "https://c.gethopscotch.com/p/abc123", "https://community.gethopscotch.com/api/v1/projects/abc123"},
		{"explore link", "http://explore.gethopscotch.com/p/abc123", "https://community.gethopscotch.com/api/v1/projects/abc123"},
		{"no subdomain", "https://gethopscotch.com/p/abc123", "https://community.gethopscotch.com/api/v1/projects/abc123"},
		{"other allowed domain", "https://c.example.com/p/xyz", "https://community.example.com/api/v1/projects/xyz"},
		{"link with query", "https://c.gethopscotch.com/p/abc123?ref=share", "https://community.gethopscotch.com/api/v1/projects/abc123"},
		{"project file url", "https://files.example.org/downloads/abc123.hopscotch", "https://community.gethopscotch.com/api/v1/projects/abc123"},
		{"link with fragment", "https://mirror.example.org/share/abc123#top", "https://community.gethopscotch.com/api/v1/projects/abc123"},
		{"file url with query and fragment", "https://mirror.example.org/share/abc123.hopscotch?dl=1#top", "https://community.gethopscotch.com/api/v1/projects/abc123"},
		{"trailing slash", "https://mirror.example.org/p/x/abc123/", "https://community.gethopscotch.com/api/v1/projects/abc123"},
		{"file url", "file:///tmp/project.hopscotch", "file:///tmp/project.hopscotch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveIdentifier(tt.input, cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveIdentifierDisallowedDomain(t *testing.T) {
	_, err := ResolveIdentifier("https://community.evil.com/projects/abc123", DefaultConfig())

	var domainErr *DisallowedDomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "evil", domainErr.Domain)
	assert.Equal(t, ExitDisallowedDomain, ExitCode(err))
}

func TestResolveIdentifierEmpty(t *testing.T) {
	_, err := ResolveIdentifier("  ", DefaultConfig())
	assert.Equal(t, ExitArguments, ExitCode(err))

	_, err = ResolveIdentifier("https://example.org/.hopscotch", DefaultConfig())
	assert.Equal(t, ExitArguments, ExitCode(err))
}
