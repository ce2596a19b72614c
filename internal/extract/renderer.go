package extract

import (
	"context"
	"time"
)

const (
	// DefaultUserAgent identifies as a desktop Chrome so simple bot filters
	// serve the normal page.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// DefaultTimeout bounds a single navigation.
	DefaultTimeout = 15 * time.Second
)

// Renderer navigates to a URL and returns the rendered document markup.
// Implementations own a rendering session per call and must release it on
// every return path, including timeouts.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}
