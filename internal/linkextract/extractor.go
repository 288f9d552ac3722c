// Package linkextract pulls candidate link targets out of rendered HTML.
// The crawl scheduler feeds every extracted value through href resolution,
// so extraction itself applies no filtering beyond attribute presence.
package linkextract

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Links holds the raw link targets found in one rendered document.
type Links struct {
	// Anchors is the href of every <a> element that carries one, in
	// document order.
	Anchors []string
	// Frames is the src of every <frame> and <iframe> element that
	// carries one, in document order.
	Frames []string
}

// All returns anchors followed by frames. This is the order discovered
// paths are scheduled in.
func (l Links) All() []string {
	out := make([]string, 0, len(l.Anchors)+len(l.Frames))
	out = append(out, l.Anchors...)
	out = append(out, l.Frames...)
	return out
}

// Count returns the total number of extracted targets.
func (l Links) Count() int { return len(l.Anchors) + len(l.Frames) }

// Extractor yields candidate link targets from a rendered document.
type Extractor interface {
	Extract(source string) (Links, error)
}

// HTMLExtractor parses documents with the HTML5 parsing algorithm. The
// zero value is ready to use.
type HTMLExtractor struct{}

// Extract parses source and collects anchor hrefs and frame srcs. The
// parser recovers from malformed markup, so errors are rare; they are
// reported rather than swallowed because a page we cannot parse is a page
// whose links we silently lost.
func (HTMLExtractor) Extract(source string) (Links, error) {
	doc, err := html.Parse(strings.NewReader(source))
	if err != nil {
		return Links{}, fmt.Errorf("parse rendered html: %w", err)
	}
	var links Links
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "a":
				if href, ok := attrVal(n, "href"); ok {
					links.Anchors = append(links.Anchors, href)
				}
			case "frame", "iframe":
				if src, ok := attrVal(n, "src"); ok {
					links.Frames = append(links.Frames, src)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return links, nil
}

func attrVal(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
