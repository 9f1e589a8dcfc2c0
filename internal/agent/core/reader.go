package core

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	readability "github.com/go-shiori/go-readability"
)

const maxExcerptLen = 2000

// PageReader fetches a URL and reduces it to readable text for verification
// prompts.
type PageReader func(ctx context.Context, pageURL string) (string, error)

// ReadabilityReader fetches pages over plain HTTP and extracts the main
// article text, truncated to a prompt-friendly excerpt.
func ReadabilityReader(client *http.Client) PageReader {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context, pageURL string) (string, error) {
		parsed, err := url.Parse(pageURL)
		if err != nil {
			return "", fmt.Errorf("parse url: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, "GET", pageURL, nil)
		if err != nil {
			return "", fmt.Errorf("request: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return "", fmt.Errorf("fetch: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("fetch status %d", resp.StatusCode)
		}

		article, err := readability.FromReader(resp.Body, parsed)
		if err != nil {
			return "", fmt.Errorf("readability: %w", err)
		}
		text := article.TextContent
		if len(text) > maxExcerptLen {
			text = text[:maxExcerptLen]
		}
		return text, nil
	}
}
