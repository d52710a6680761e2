package internal

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	httpPattern        = regexp.MustCompile(`^https?://`)
	projectLinkPattern = regexp.MustCompile(`^https?://(?:c\.|community\.|explore\.)?([^./]+)\.com/p(?:rojects)?/([^/?#]+)`)
	filePattern        = regexp.MustCompile(`^file://`)
)

// ResolveIdentifier turns a project id, project link or file URL into the
// URL the project metadata is fetched from.
func ResolveIdentifier(input string, cfg *Config) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", &ArgumentError{Msg: "empty project identifier"}
	}
	switch {
	case projectLinkPattern.MatchString(input):
		m := projectLinkPattern.FindStringSubmatch(input)
		domain, id := m[1], m[2]
		if !cfg.DomainAllowed(domain) {
			return "", &DisallowedDomainError{Domain: domain}
		}
		return cfg.MetadataURL(domain, id), nil
	case httpPattern.MatchString(input):
		// '.' never appears in project ids, so anything after it is a file suffix.
		rest := input
		if i := strings.IndexAny(rest, "?#"); i >= 0 {
			rest = rest[:i]
		}
		segments := strings.Split(strings.TrimRight(rest, "/"), "/")
		id := strings.SplitN(segments[len(segments)-1], ".", 2)[0]
		if id == "" {
			return "", &ArgumentError{Msg: fmt.Sprintf("no project id in %s", input)}
		}
		return cfg.MetadataURL(cfg.DefaultDomain, id), nil
	case filePattern.MatchString(input):
		return input, nil
	}
	return cfg.MetadataURL(cfg.DefaultDomain, input), nil
}
