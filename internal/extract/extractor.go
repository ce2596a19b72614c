// Package extract turns a URL into a clean text document ready for judgment.
package extract

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
	"go.uber.org/zap"

	"github.com/TobiSchelling/SignalEngine/internal/textutil"
)

// MaxCleanTextChars caps the clean text handed to later stages.
const MaxCleanTextChars = 15000

// Status is the outcome of one extraction.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Mode selects how much of the page survives cleaning.
type Mode string

const (
	// ModeFull keeps all text outside the stripped regions.
	ModeFull Mode = "full"
	// ModeReadability keeps only the main article body.
	ModeReadability Mode = "readability"
)

// Document is the result of fetching and cleaning one URL.
type Document struct {
	URL       string
	Title     string
	CleanText string
	Status    Status
	Error     string
}

// Failed reports whether the extraction produced no usable document.
func (d Document) Failed() bool {
	return d.Status != StatusSuccess
}

// Extractor renders pages and reduces them to clean text.
type Extractor struct {
	renderer Renderer
	mode     Mode
}

// New creates an extractor on top of a renderer.
func New(renderer Renderer, mode Mode) *Extractor {
	if mode == "" {
		mode = ModeFull
	}
	return &Extractor{renderer: renderer, mode: mode}
}

// FetchAndClean renders rawURL and returns its cleaned text. Failures are
// reported through Document.Status and Document.Error, never as a panic or
// error return.
func (e *Extractor) FetchAndClean(ctx context.Context, rawURL string) Document {
	zap.S().Infof("Navigating to: %s", rawURL)

	markup, err := e.renderer.Render(ctx, rawURL)
	if err != nil {
		zap.S().Warnf("Navigation failed for %s: %v", rawURL, err)
		return Document{URL: rawURL, Status: StatusFailed, Error: fmt.Sprintf("navigation error: %v", err)}
	}

	title, text, err := Clean(markup)
	if err != nil {
		return Document{URL: rawURL, Status: StatusFailed, Error: fmt.Sprintf("extraction error: %v", err)}
	}

	if e.mode == ModeReadability {
		if article := e.readable(markup, rawURL); article != "" {
			text = article
		}
	}

	return Document{
		URL:       rawURL,
		Title:     title,
		CleanText: textutil.Truncate(text, MaxCleanTextChars),
		Status:    StatusSuccess,
	}
}

// readable returns the main-article text, or "" when readability cannot
// find one.
func (e *Extractor) readable(markup, rawURL string) string {
	parsedURL, _ := url.Parse(rawURL)
	article, err := readability.FromReader(strings.NewReader(markup), parsedURL)
	if err != nil {
		zap.S().Debugf("Readability failed for %s, keeping full text: %v", rawURL, err)
		return ""
	}
	return NormalizeLines(article.TextContent)
}
