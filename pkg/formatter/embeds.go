package formatter

import (
	"fmt"
	"regexp"
	"sort"

	"golang.org/x/net/html"
)

// EmbedKind names an embed pattern family.
type EmbedKind string

const (
	EmbedYouTube EmbedKind = "youtube"
	EmbedTweet   EmbedKind = "tweet"
)

var (
	youtubeWatchRe = regexp.MustCompile(`(?i)https?://(?:www\.)?youtube\.com/watch\?v=([\w-]+)(?:&[^\s]*)?`)
	youtubeShortRe = regexp.MustCompile(`(?i)https?://youtu\.be/([\w-]+)(?:\?[^\s]*)?`)
	tweetRe        = regexp.MustCompile(`(?i)(https?://(?:www\.)?(?:twitter\.com|x\.com)/(\w+)/status/(\d+))(?:\?[^\s]*)?`)
)

const (
	youtubeWrapperStyle = "position:relative;padding-bottom:56.25%;padding-top:30px;height:0;overflow:hidden;max-width:100%;margin:10px 0;"
	youtubeFrameStyle   = "position:absolute;top:0;left:0;width:100%;height:100%;"
	youtubeAllow        = "accelerometer;autoplay;clipboard-write;encrypted-media;gyroscope;picture-in-picture"
)

// Text inside these elements is never rewritten.
var embedSkipAncestors = map[string]bool{
	"script":   true,
	"style":    true,
	"a":        true,
	"pre":      true,
	"code":     true,
	"textarea": true,
	"title":    true,
}

type embedMatch struct {
	start, end int
	kind       EmbedKind
	// groups holds the captured ids: video id, or url/handle/status id.
	groups []string
}

// findEmbeds returns the non-overlapping embed matches in text, ordered by
// start offset. A match that starts before the previous one ends is dropped.
func findEmbeds(text string) []embedMatch {
	var all []embedMatch
	collect := func(re *regexp.Regexp, kind EmbedKind) {
		for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
			m := embedMatch{start: loc[0], end: loc[1], kind: kind}
			for g := 2; g+1 < len(loc); g += 2 {
				if loc[g] < 0 {
					m.groups = append(m.groups, "")
					continue
				}
				m.groups = append(m.groups, text[loc[g]:loc[g+1]])
			}
			all = append(all, m)
		}
	}
	collect(youtubeWatchRe, EmbedYouTube)
	collect(youtubeShortRe, EmbedYouTube)
	collect(tweetRe, EmbedTweet)
	if len(all) == 0 {
		return nil
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].start < all[j].start })

	out := all[:0]
	lastEnd := -1
	for _, m := range all {
		if m.start < lastEnd {
			continue
		}
		out = append(out, m)
		lastEnd = m.end
	}
	return out
}

func youtubeEmbed(videoID string) *html.Node {
	wrapper := newElement("div", attr("style", youtubeWrapperStyle))
	wrapper.AppendChild(newElement("iframe",
		attr("style", youtubeFrameStyle),
		attr("src", "https://www.youtube.com/embed/"+videoID),
		attr("title", "YouTube video player"),
		attr("frameborder", "0"),
		attr("allow", youtubeAllow),
		attr("allowfullscreen", ""),
	))
	return wrapper
}

func tweetEmbed(url, handle, statusID string) *html.Node {
	bq := newElement("blockquote",
		attr("class", "twitter-tweet"),
		attr("data-dnt", "true"),
		attr("data-theme", "light"),
		attr("data-align", "center"),
	)
	p := newElement("p", attr("lang", "und"), attr("dir", "auto"))
	p.AppendChild(newText(" "))
	bq.AppendChild(p)
	bq.AppendChild(newText("— @" + handle + " "))
	a := newElement("a",
		attr("href", url),
		attr("target", "_blank"),
		attr("rel", "noopener noreferrer ugc"),
	)
	a.AppendChild(newText(fmt.Sprintf("Loading Tweet (%s)...", statusID)))
	bq.AppendChild(a)
	return bq
}

func (m embedMatch) node() *html.Node {
	switch m.kind {
	case EmbedTweet:
		return tweetEmbed(m.groups[0], m.groups[1], m.groups[2])
	default:
		return youtubeEmbed(m.groups[0])
	}
}

// rewriteEmbeds replaces bare media URLs in text nodes with embed markup.
// It returns the number of embeds inserted.
func (f *Formatter) rewriteEmbeds(root *html.Node, result *Result) int {
	inserted := 0
	for _, tn := range textNodes(root) {
		if insideAny(tn, root, embedSkipAncestors) {
			continue
		}
		f.guard(result, "embeds", func() {
			text := tn.Data
			matches := findEmbeds(text)
			if len(matches) == 0 {
				return
			}

			var nodes []*html.Node
			pos := 0
			for _, m := range matches {
				if m.start > pos {
					nodes = append(nodes, newText(text[pos:m.start]))
				}
				nodes = append(nodes, m.node())
				result.Stats.EmbedsInserted[string(m.kind)]++
				pos = m.end
			}
			if pos < len(text) {
				nodes = append(nodes, newText(text[pos:]))
			}
			replaceWith(tn, nodes...)
			inserted += len(matches)
		})
	}
	return inserted
}

// isApprovedIframe reports whether an iframe points at a video embed.
func isApprovedIframe(n *html.Node) bool {
	return isApprovedEmbedSrc(getAttr(n, "src"))
}
