package scraper

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var articleTypes = map[string]bool{
	"NewsArticle": true,
	"Article":     true,
	"BlogPosting": true,
}

// jsonLDArticles returns the article objects from every ld+json script, in
// document order. Top-level arrays and @graph containers are flattened.
func jsonLDArticles(doc *goquery.Document) []map[string]any {
	var out []map[string]any
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var data any
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return
		}
		for _, obj := range flattenLD(data) {
			if isArticleType(obj["@type"]) {
				out = append(out, obj)
			}
		}
	})
	return out
}

func flattenLD(data any) []map[string]any {
	switch v := data.(type) {
	case []any:
		var out []map[string]any
		for _, item := range v {
			out = append(out, flattenLD(item)...)
		}
		return out
	case map[string]any:
		if graph, ok := v["@graph"]; ok {
			return append([]map[string]any{v}, flattenLD(graph)...)
		}
		return []map[string]any{v}
	}
	return nil
}

func isArticleType(t any) bool {
	switch v := t.(type) {
	case string:
		return articleTypes[v]
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && articleTypes[s] {
				return true
			}
		}
	}
	return false
}

// ldImage extracts the image URL from a JSON-LD article: a string, an
// ImageObject, or a list of either (first wins).
func ldImage(obj map[string]any) string {
	img := obj["image"]
	if list, ok := img.([]any); ok {
		if len(list) == 0 {
			return ""
		}
		img = list[0]
	}
	switch v := img.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]any:
		if u, ok := v["url"].(string); ok {
			return strings.TrimSpace(u)
		}
	}
	return ""
}

// resolve joins ref to base.
func resolve(base *url.URL, ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	if base != nil {
		u = base.ResolveReference(u)
	}
	return u.String()
}

// contentImages lists the images inside the container. The query string is
// dropped before resolving; only http(s) URLs are kept.
func contentImages(container *goquery.Selection, base *url.URL, title string) []ImageRef {
	var refs []ImageRef
	container.Find("img").Each(func(_ int, img *goquery.Selection) {
		src := strings.TrimSpace(img.AttrOr("src", ""))
		if src == "" {
			src = strings.TrimSpace(img.AttrOr("data-src", ""))
		}
		if src == "" {
			return
		}

		u, err := url.Parse(src)
		if err != nil {
			return
		}
		u.RawQuery = ""
		u.ForceQuery = false
		full := resolve(base, u.String())
		if !strings.HasPrefix(full, "http") {
			return
		}

		alt, ok := img.Attr("alt")
		if !ok {
			alt = title
		}
		refs = append(refs, ImageRef{OriginalSrc: src, FullURL: full, AltText: alt})
	})
	return refs
}

// featureImage picks the article's main image: JSON-LD, og:image,
// twitter:image, then the first content image.
func featureImage(doc *goquery.Document, ld []map[string]any, base *url.URL, images []ImageRef) string {
	for _, obj := range ld {
		if img := ldImage(obj); img != "" {
			return resolve(base, img)
		}
	}
	for _, sel := range []string{
		`meta[property="og:image"]`,
		`meta[name="twitter:image"]`,
		`meta[name="twitter:image:src"]`,
	} {
		if c := strings.TrimSpace(doc.Find(sel).First().AttrOr("content", "")); c != "" {
			return resolve(base, c)
		}
	}
	if len(images) > 0 {
		return images[0].FullURL
	}
	return ""
}
