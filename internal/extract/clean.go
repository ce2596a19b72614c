package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// UntitledTitle is used when the document has no usable <title>.
const UntitledTitle = "untitled"

// noiseSelector lists regions that never carry article content.
const noiseSelector = "script, style, nav, footer, header, aside, form, iframe, noscript"

// Clean parses markup, drops non-content regions and returns the title and
// the remaining text as one trimmed line per text node.
func Clean(markup string) (title, text string, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", "", fmt.Errorf("parsing markup: %w", err)
	}

	doc.Find(noiseSelector).Remove()

	title = strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = UntitledTitle
	}

	var lines []string
	for _, n := range doc.Selection.Nodes {
		collectText(n, &lines)
	}
	return title, NormalizeLines(strings.Join(lines, "\n")), nil
}

func collectText(n *html.Node, lines *[]string) {
	if n.Type == html.TextNode {
		if s := strings.TrimSpace(n.Data); s != "" {
			*lines = append(*lines, s)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, lines)
	}
}

// NormalizeLines trims every line and drops blank ones, keeping order.
func NormalizeLines(text string) string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
