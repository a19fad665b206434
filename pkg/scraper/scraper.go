package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// maxBodyBytes caps how much of a page is read; anything past it is ignored.
const maxBodyBytes = 10 << 20

// Page is the text view of one fetched document.
type Page struct {
	URL   string
	Title string
	Text  string
}

type Scraper struct {
	client *http.Client
}

func New() *Scraper {
	return &Scraper{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch downloads url and reduces the HTML to plain text. Script and style
// bodies are dropped entirely; entities are decoded and whitespace collapsed.
func (s *Scraper) Fetch(ctx context.Context, url string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "sitechat-ingest/1.0")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	title, text := extractText(io.LimitReader(resp.Body, maxBodyBytes))
	return &Page{
		URL:   url,
		Title: title,
		Text:  text,
	}, nil
}

// extractText tokenizes the HTML and keeps only visible text. Elements whose
// content is never rendered (script, style, noscript, template, iframe) are
// skipped whole; the tokenizer already decodes entities in text tokens.
func extractText(r io.Reader) (title, text string) {
	var (
		out       strings.Builder
		titleBuf  strings.Builder
		skipDepth int
		inTitle   bool
	)

	tokenizer := html.NewTokenizer(r)
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			// io.EOF or malformed input past recovery; keep what we have.
			return collapseWhitespace(titleBuf.String()), collapseWhitespace(out.String())

		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			switch n := string(name); {
			case isSkippedElement(n):
				skipDepth++
			case n == "title":
				inTitle = true
			}
			out.WriteByte(' ')

		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			switch n := string(name); {
			case isSkippedElement(n):
				if skipDepth > 0 {
					skipDepth--
				}
			case n == "title":
				inTitle = false
			}
			out.WriteByte(' ')

		case html.SelfClosingTagToken:
			out.WriteByte(' ')

		case html.TextToken:
			switch {
			case inTitle:
				titleBuf.Write(tokenizer.Text())
			case skipDepth == 0:
				out.Write(tokenizer.Text())
			}
		}
	}
}

func isSkippedElement(name string) bool {
	switch name {
	case "script", "style", "noscript", "template", "iframe":
		return true
	}
	return false
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
