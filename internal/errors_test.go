package internal

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"arguments", &ArgumentError{Msg: "usage"}, ExitArguments},
		{"domain", &DisallowedDomainError{Domain: "evil"}, ExitDisallowedDomain},
		{"runtime", fmt.Errorf("resolve: %w", ErrRuntimeNotFound), ExitRuntimeNotFound},
		{"fetch status", &FetchError{URL: "https://x", Status: 404}, ExitFetch},
		{"fetch wrapped", fmt.Errorf("player: %w", &FetchError{URL: "https://x", Err: io.ErrUnexpectedEOF}), ExitFetch},
		{"character art", ErrNoCharacterArt, ExitNoCharacterArt},
		{"destination", fmt.Errorf("copy template: %w", &DestinationExistsError{Path: "out"}), ExitDestinationExists},
		{"other", errors.New("disk full"), ExitOther},
		{"unsafe filename", &UnsafeFilenameError{Name: "../x"}, ExitOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestFetchErrorMessages(t *testing.T) {
	assert.Equal(t, "fetch https://x: status 404", (&FetchError{URL: "https://x", Status: 404}).Error())

	err := &FetchError{URL: "https://x", Err: io.EOF}
	assert.Equal(t, "fetch https://x: EOF", err.Error())
	assert.ErrorIs(t, err, io.EOF)
}
