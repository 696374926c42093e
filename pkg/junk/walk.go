package junk

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/jmylchreest/repost/internal/logger"
)

// Block-like tags eligible for whole-element removal.
var candidateTags = map[string]bool{
	"p": true, "div": true, "span": true, "font": true, "time": true,
	"td": true, "li": true, "dt": true, "dd": true, "header": true,
	"footer": true, "aside": true, "section": true, "article": true,
}

// Text-holding parents that may be dropped once inline removal empties them.
var collapsibleParents = map[string]bool{
	"p": true, "div": true, "span": true, "strong": true, "em": true,
	"b": true, "i": true, "font": true, "time": true, "li": true,
	"dt": true, "dd": true,
}

// Children that keep an otherwise empty parent alive.
var meaningfulChildren = map[string]bool{
	"img": true, "br": true, "hr": true, "iframe": true, "table": true,
	"ul": true, "ol": true, "dl": true,
}

// Text inside these elements is never rewritten.
var skipTextIn = map[string]bool{
	"script": true, "style": true, "textarea": true, "pre": true,
	"code": true, "title": true,
}

// decomposeMatching removes candidate elements under root whose text trips a
// rule. Each pass snapshots the candidates, marks matches, then detaches
// them; passes repeat until nothing else matches.
func decomposeMatching(root *html.Node, rules []compiledRule) int {
	removed := 0
	for {
		var marked []*html.Node
		markedSet := make(map[*html.Node]bool)

		for _, n := range collectElements(root, candidateTags) {
			if hasMarkedAncestor(n, root, markedSet) {
				continue
			}
			text := strippedText(n)
			if text == "" {
				continue
			}
			for _, r := range rules {
				if r.matches(text) {
					logger.Debug("decomposing junk element",
						"tag", n.Data, "text", preview(text), "pattern", r.source)
					marked = append(marked, n)
					markedSet[n] = true
					break
				}
			}
		}

		if len(marked) == 0 {
			return removed
		}
		for _, n := range marked {
			if n.Parent != nil {
				n.Parent.RemoveChild(n)
				removed++
			}
		}
	}
}

// removeInline deletes inline matches from every eligible text node.
func removeInline(root *html.Node, patterns []*regexp.Regexp) int {
	edits := 0
	for _, tn := range collectText(root) {
		if !attachedTo(tn, root) || insideSkipped(tn, root) {
			continue
		}

		original := tn.Data
		modified := original
		for _, re := range patterns {
			modified = re.ReplaceAllString(modified, "")
		}
		modified = collapseLines(modified)

		if modified == strings.TrimSpace(original) {
			continue
		}
		edits++

		parent := tn.Parent
		if modified != "" {
			parent.InsertBefore(&html.Node{Type: html.TextNode, Data: modified}, tn)
			parent.RemoveChild(tn)
			continue
		}

		if parent != root && parent.Type == html.ElementNode &&
			collapsibleParents[parent.Data] &&
			strippedTextExcept(parent, tn) == "" &&
			!hasDescendant(parent, meaningfulChildren) {
			logger.Debug("decomposing element emptied by inline removal", "tag", parent.Data)
			if parent.Parent != nil {
				parent.Parent.RemoveChild(parent)
			}
			continue
		}
		parent.RemoveChild(tn)
	}
	return edits
}

// collapseLines drops blank lines and trims the result.
func collapseLines(s string) string {
	lines := strings.FieldsFunc(s, isLineBreak)
	kept := lines[:0]
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			kept = append(kept, line)
		}
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', 0x1c, 0x1d, 0x1e, 0x85, 0x2028, 0x2029:
		return true
	}
	return false
}

// collectElements returns element descendants of root (root excluded) whose
// tag is in tags, in document order.
func collectElements(root *html.Node, tags map[string]bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && tags[c.Data] {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(root)
	return out
}

func collectText(root *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				out = append(out, c)
				continue
			}
			walk(c)
		}
	}
	walk(root)
	return out
}

func hasMarkedAncestor(n, root *html.Node, marked map[*html.Node]bool) bool {
	for p := n.Parent; p != nil && p != root; p = p.Parent {
		if marked[p] {
			return true
		}
	}
	return false
}

func attachedTo(n, root *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p == root {
			return true
		}
	}
	return false
}

func insideSkipped(n, root *html.Node) bool {
	for p := n.Parent; p != nil && p != root.Parent; p = p.Parent {
		if p.Type == html.ElementNode && skipTextIn[p.Data] {
			return true
		}
	}
	return false
}

func hasDescendant(n *html.Node, tags map[string]bool) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (tags[c.Data] || hasDescendant(c, tags)) {
			return true
		}
	}
	return false
}

// strippedText concatenates the trimmed text of every descendant text node,
// ignoring script and style bodies.
func strippedText(n *html.Node) string {
	return strippedTextExcept(n, nil)
}

func strippedTextExcept(n, skip *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch {
			case c == skip:
			case c.Type == html.TextNode:
				b.WriteString(strings.TrimSpace(c.Data))
			case c.Type == html.ElementNode && (c.Data == "script" || c.Data == "style"):
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return b.String()
}

func preview(s string) string {
	r := []rune(s)
	if len(r) > 70 {
		return string(r[:70]) + "..."
	}
	return s
}
