package cleaner

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/jmylchreest/repost/pkg/rules"
)

var (
	parentheticalRe = regexp.MustCompile(`\s*\(.*?\)`)
	titleWordRe     = regexp.MustCompile(`[\p{L}\p{N}_]+`)
)

// publishedMarker prefixes the "published on:" line some sources leave in
// the body.
const publishedMarker = "تم النشر في:"

// Words that carry no meaning in a headline.
var titleStopwords = map[string]bool{
	"عاجل": true, "تفاصيل": true, "خبر": true, "اليوم": true, "كامل": true,
	"فيديو": true, "شاهد": true, "بالصور": true, "بالفيديو": true, "خاص": true,
}

// PostCleaner tidies posts that are already published: it cleans titles,
// fills missing image alt text and applies the cleaning rule set to every
// text node.
type PostCleaner struct {
	rules *rules.RuleSet
	title string
}

// NewPostCleaner creates a cleaner for one post. title is the original
// (uncleaned) post title; it feeds the image alt text.
func NewPostCleaner(rs *rules.RuleSet, title string) *PostCleaner {
	return &PostCleaner{rules: rs, title: title}
}

// Name returns the cleaner type.
func (c *PostCleaner) Name() string {
	return "post"
}

// CleanTitle drops parenthesised asides and the configured symbols.
func CleanTitle(title string, rs *rules.RuleSet) string {
	title = strings.TrimSpace(parentheticalRe.ReplaceAllString(title, ""))
	return rs.Strip(title)
}

// TitleKeywords returns up to six meaningful words of a title, joined by
// spaces.
func TitleKeywords(title string) string {
	var words []string
	for _, w := range titleWordRe.FindAllString(title, -1) {
		if titleStopwords[w] || utf8.RuneCountInString(w) <= 2 {
			continue
		}
		words = append(words, w)
		if len(words) == 6 {
			break
		}
	}
	return strings.Join(words, " ")
}

// Clean rewrites the post body.
func (c *PostCleaner) Clean(content string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return "", err
	}
	body := doc.Find("body")

	alt := TitleKeywords(c.title)
	body.Find("img").Each(func(_ int, img *goquery.Selection) {
		if v, _ := img.Attr("alt"); v == "" {
			img.SetAttr("alt", alt)
		}
		if v, _ := img.Attr("title"); v == "" {
			img.SetAttr("title", alt)
		}
	})

	body.Find("time").Remove()
	body.Find("component").FilterFunction(func(_ int, s *goquery.Selection) bool {
		h, _ := goquery.OuterHtml(s)
		return strings.Contains(h, "googletag.cmd.push")
	}).Remove()

	for _, root := range body.Nodes {
		c.rewriteText(root)
	}

	return body.Html()
}

// rewriteText drops "published on" lines and runs replacements then symbol
// removal over every remaining text node.
func (c *PostCleaner) rewriteText(root *html.Node) {
	var nodes []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			if ch.Type == html.TextNode {
				nodes = append(nodes, ch)
				continue
			}
			walk(ch)
		}
	}
	walk(root)

	for _, n := range nodes {
		if strings.Contains(n.Data, publishedMarker) {
			n.Parent.RemoveChild(n)
			continue
		}
		text := c.rules.Strip(c.rules.Apply(n.Data))
		if text != n.Data {
			n.Parent.InsertBefore(&html.Node{Type: html.TextNode, Data: text}, n)
			n.Parent.RemoveChild(n)
		}
	}
}

// CleanPost cleans both title and body and reports whether either changed.
func (c *PostCleaner) CleanPost(content string) (title, body string, changed bool, err error) {
	title = CleanTitle(c.title, c.rules)
	body, err = c.Clean(content)
	if err != nil {
		return c.title, content, false, err
	}
	return title, body, title != c.title || body != content, nil
}
