package internal

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const characterArtClass = "svg"

// FindCharacterSVG returns the markup of the first element with class "svg"
// found on the sample project pages, tried in order.
func FindCharacterSVG(ctx context.Context, f Fetcher, pages []string, logger *zap.Logger) (string, error) {
	for i, page := range pages {
		body, err := f.Fetch(ctx, page)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		if err != nil {
			logger.Debug("sample project unavailable", zap.String("url", page), zap.Error(err))
			continue
		}
		markup, err := extractCharacterSVG(body)
		if err == nil && markup != "" {
			return markup, nil
		}
		logger.Info("sample project had no character art, trying the next one", zap.Int("index", i), zap.String("url", page))
	}
	return "", ErrNoCharacterArt
}

func extractCharacterSVG(page []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return "", err
	}
	node := findByClass(doc, characterArtClass)
	if node == nil {
		return "", nil
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, node); err != nil {
		return "", fmt.Errorf("render character art: %w", err)
	}
	return buf.String(), nil
}

func findByClass(n *html.Node, class string) *html.Node {
	if n.Type == html.ElementNode && hasClass(n, class) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByClass(c, class); found != nil {
			return found
		}
	}
	return nil
}

func hasClass(n *html.Node, class string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}
