package internal

import (
	"errors"
	"fmt"
)

// Process exit codes.
const (
	ExitArguments         = 1
	ExitDisallowedDomain  = 2
	ExitRuntimeNotFound   = 3
	ExitFetch             = 4
	ExitNoCharacterArt    = 5
	ExitDestinationExists = 7
	ExitOther             = 8
)

var (
	ErrRuntimeNotFound = errors.New("no compatible runtime build")
	ErrNoCharacterArt  = errors.New("no sample project yielded character art")
)

type ArgumentError struct {
	Msg string
}

func (e *ArgumentError) Error() string {
	return e.Msg
}

type DestinationExistsError struct {
	Path string
}

func (e *DestinationExistsError) Error() string {
	return fmt.Sprintf("destination %s already exists", e.Path)
}

type DisallowedDomainError struct {
	Domain string
}

func (e *DisallowedDomainError) Error() string {
	return fmt.Sprintf("domain %q is not in the allowed domain list", e.Domain)
}

// FetchError reports a failed or non-200 fetch.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.Status)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type UnsafeFilenameError struct {
	Name string
}

func (e *UnsafeFilenameError) Error() string {
	return fmt.Sprintf("refusing unsafe asset filename %q", e.Name)
}

// ExitCode maps an error from Generate to the process exit code.
func ExitCode(err error) int {
	var (
		argErr    *ArgumentError
		destErr   *DestinationExistsError
		domainErr *DisallowedDomainError
		fetchErr  *FetchError
	)
	switch {
	case err == nil:
		return 0
	case errors.As(err, &argErr):
		return ExitArguments
	case errors.As(err, &destErr):
		return ExitDestinationExists
	case errors.As(err, &domainErr):
		return ExitDisallowedDomain
	case errors.Is(err, ErrRuntimeNotFound):
		return ExitRuntimeNotFound
	case errors.Is(err, ErrNoCharacterArt):
		return ExitNoCharacterArt
	case errors.As(err, &fetchErr):
		return ExitFetch
	default:
		return ExitOther
	}
}
