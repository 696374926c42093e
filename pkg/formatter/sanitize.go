package formatter

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/jmylchreest/repost/internal/logger"
)

// AllowedTags maps each permitted tag to its permitted attributes. Tags not
// listed are unwrapped. Read-only.
var AllowedTags = map[string]map[string]bool{
	"a":          set("title", "name", "href", "target", "rel"),
	"img":        set("src", "alt", "title", "style", "width", "height", "border"),
	"p":          set(),
	"br":         set(),
	"hr":         set(),
	"strong":     set(),
	"b":          set(),
	"em":         set(),
	"i":          set(),
	"u":          set(),
	"s":          set(),
	"strike":     set(),
	"del":        set(),
	"sup":        set(),
	"sub":        set(),
	"code":       set(),
	"pre":        set(),
	"ul":         set("type"),
	"ol":         set("type", "start", "reversed"),
	"li":         set("value"),
	"h1":         set(),
	"h2":         set(),
	"h3":         set(),
	"h4":         set(),
	"h5":         set(),
	"h6":         set(),
	"blockquote": set("style", "cite", "class", "data-dnt", "data-theme", "data-align"),
	"q":          set("cite"),
	"iframe":     set("src", "width", "height", "frameborder", "allowfullscreen", "style", "title", "allow"),
	"table":      set("border", "cellpadding", "cellspacing", "width", "style", "summary"),
	"caption":    set(),
	"thead":      set(),
	"tbody":      set(),
	"tfoot":      set(),
	"tr":         set(),
	"th":         set("colspan", "rowspan"),
	"td":         set("colspan", "rowspan"),
	"div":        set("style"),
}

func set(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, s := range items {
		m[s] = true
	}
	return m
}

// RemovedTags are deleted together with their content.
var RemovedTags = []string{
	"script", "style", "form", "link", "meta", "noscript", "embed", "object",
	"applet", "header", "footer", "nav", "aside", "figure", "figcaption", "title",
}

// Paragraphs holding one of these are never pruned as empty.
var meaningfulInParagraph = set("img", "br", "hr", "iframe", "blockquote")

// Text in these is left alone by replacement rules.
var replacementSkip = set("script", "style")

var headingTags = []string{"h1", "h2", "h3", "h4", "h5", "h6"}

// isApprovedEmbedSrc reports whether src is a video embed we keep.
func isApprovedEmbedSrc(src string) bool {
	src = strings.ToLower(src)
	return strings.Contains(src, "youtube.com/embed") || strings.Contains(src, "youtu.be/")
}

// applyReplacements runs the rule chain over every text node.
func (f *Formatter) applyReplacements(root *html.Node, in *Input, result *Result) {
	if len(in.Rules.ReplacementRules()) == 0 {
		return
	}
	for _, tn := range textNodes(root) {
		if insideAny(tn, root, replacementSkip) {
			continue
		}
		f.guard(result, "replacements", func() {
			replaced := in.Rules.Apply(tn.Data)
			if replaced == tn.Data {
				return
			}
			replaceWith(tn, newText(replaced))
			result.Stats.TextRulesApplied++
		})
	}
}

// removeStructural deletes non-content elements, foreign iframes and
// comments.
func (f *Formatter) removeStructural(root *html.Node, result *Result) {
	for _, n := range elements(root, RemovedTags...) {
		if !attached(n, root) {
			continue
		}
		result.Stats.RecordRemoval(n.Data)
		detach(n)
	}

	for _, n := range elements(root, "iframe") {
		if isApprovedIframe(n) {
			continue
		}
		logger.Debug("removing iframe", "src", getAttr(n, "src"))
		result.Stats.RecordRemoval("iframe")
		detach(n)
	}

	var comments []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.CommentNode {
				comments = append(comments, c)
				continue
			}
			walk(c)
		}
	}
	walk(root)
	for _, c := range comments {
		detach(c)
	}
	result.Stats.ElementsRemoved["#comment"] += len(comments)
	if len(comments) == 0 {
		delete(result.Stats.ElementsRemoved, "#comment")
	}
}

// isEmbedAnchor reports whether a sits inside a tweet blockquote or a video
// iframe.
func isEmbedAnchor(a, root *html.Node) bool {
	return closest(a, root, func(p *html.Node) bool {
		switch {
		case isElement(p, "blockquote"):
			return hasClass(p, "twitter-tweet")
		case isElement(p, "iframe"):
			return strings.Contains(strings.ToLower(getAttr(p, "src")), "youtube.com/embed")
		}
		return false
	}) != nil
}

// stripLinks drops href from anchors that are not part of an embed.
func (f *Formatter) stripLinks(root *html.Node, result *Result) {
	for _, a := range elements(root, "a") {
		if !hasAttr(a, "href") || isEmbedAnchor(a, root) {
			continue
		}
		removeAttr(a, "href")
		result.Stats.LinksStripped++
	}
}

// whitelist strips disallowed attributes and unwraps disallowed tags. The
// root itself is never unwrapped.
func (f *Formatter) whitelist(root *html.Node, result *Result) {
	for _, n := range elements(root) {
		f.guard(result, "whitelist", func() {
			allowed, ok := AllowedTags[n.Data]
			if !ok {
				unwrap(n)
				result.Stats.ElementsUnwrapped++
				return
			}
			kept := n.Attr[:0]
			for _, a := range n.Attr {
				if a.Namespace == "" && allowed[strings.ToLower(a.Key)] {
					kept = append(kept, a)
					continue
				}
				result.Stats.AttributesRemoved++
			}
			n.Attr = kept
		})
	}
}

// prune removes empty paragraphs and headings, demotes h1 to h2 and adds the
// optional trailing break to paragraphs.
func (f *Formatter) prune(root *html.Node, result *Result) {
	for _, p := range elements(root, "p") {
		if !attached(p, root) {
			continue
		}
		if !hasText(p) && !hasDescendant(p, meaningfulInParagraph) {
			result.Stats.RecordRemoval("p")
			detach(p)
			continue
		}
		// Breaks separate text. Image-only paragraphs, the prepended
		// feature image among them, stay bare.
		if f.cfg.ExtraBreakAfterParagraph && hasText(p) {
			f.appendBreak(p)
		}
	}

	for _, h := range elements(root, headingTags...) {
		if !attached(h, root) {
			continue
		}
		if !hasText(h) {
			result.Stats.RecordRemoval(h.Data)
			detach(h)
			continue
		}
		if h.DataAtom == atom.H1 {
			h.Data = "h2"
			h.DataAtom = atom.H2
		}
	}
}

// appendBreak adds a trailing <br> to p when something other than a <br>
// follows it and p does not already end in one.
func (f *Formatter) appendBreak(p *html.Node) {
	next := p.NextSibling
	if next == nil || isElement(next, "br") {
		return
	}
	if isElement(lastSignificantChild(p), "br") {
		return
	}
	p.AppendChild(newElement("br"))
}
