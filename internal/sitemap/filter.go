package sitemap

import (
	"net/url"
	"strings"
)

var excludedPathSegments = []string{
	"/category/", "/tag/", "/tags/", "/author/", "/user/", "/search/", "/portfolio", "/gallery",
	"/wp-admin/", "/wp-content/", "/wp-includes/", "/admin/", "/login", "/register", "/profile",
	"/feed/", "/rss/", "/atom/", "/comments/feed/", "/trackback/", "/sitemap", "/page/",
	"/cart/", "/checkout/", "/my-account/", "/wishlist/", "/shop/", "/product/",
	"/privacy-policy", "/terms-of-service", "/contact", "/about", "/faq", "/documentation", "/amp/",
}

var excludedFilenames = map[string]bool{
	"sitemap.xml": true, "sitemap_index.xml": true, "robots.txt": true, "ads.txt": true,
	"wp-cron.php": true, "xmlrpc.php": true, "favicon.ico": true,
}

var excludedExtensions = []string{
	".xml", ".txt", ".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx",
	".jpg", ".jpeg", ".png", ".gif", ".bmp", ".svg", ".webp", ".ico",
	".css", ".js", ".json", ".zip", ".rar", ".tar.gz", ".exe", ".dmg", ".pkg",
	".mp3", ".wav", ".ogg", ".mp4", ".avi", ".mov", ".wmv", ".flv",
	".php", ".asp", ".aspx", ".cgi", ".pl",
}

// Query parameters that disqualify a URL when the name matches exactly.
var excludedParams = map[string]bool{
	"replytocom": true, "add-to-cart": true, "preview": true, "ical": true,
	"subscribe": true, "unsubscribe": true, "share": true, "print": true,
	"download": true, "amp": true, "feed": true,
	"attachment_id": true, "paged": true, "page_id": true,
	"s": true, "search": true, "query": true,
}

// Query parameters that disqualify a URL when their name contains one of
// these fragments.
var excludedParamFragments = []string{"utm_", "gclid", "fbclid", "msclkid"}

// Name=value pairs that disqualify a URL.
var excludedParamPairs = map[string]bool{
	"format=pdf": true, "action=edit": true, "action=delete": true,
}

// IsArticleURL reports whether raw looks like an article on baseHost: an
// http(s) URL on the same host whose path and query do not point at
// listings, feeds, accounts, assets or the site root.
func IsArticleURL(raw, baseHost string) bool {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		decoded = raw
	}
	u, err := url.Parse(decoded)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	if u.Host != baseHost {
		return false
	}

	path := strings.ToLower(u.Path)
	query := strings.ToLower(u.RawQuery)

	for _, seg := range excludedPathSegments {
		if strings.Contains(path, seg) {
			return false
		}
	}
	if excludedFilenames[path[strings.LastIndex(path, "/")+1:]] {
		return false
	}
	for _, ext := range excludedExtensions {
		if strings.HasSuffix(path, ext) {
			return false
		}
	}

	if query != "" {
		for _, part := range strings.Split(query, "&") {
			name, _, _ := strings.Cut(part, "=")
			if excludedParams[name] || excludedParamPairs[part] {
				return false
			}
			for _, frag := range excludedParamFragments {
				if strings.Contains(name, frag) {
					return false
				}
			}
		}
	}

	if (path == "" || path == "/") && query == "" {
		return false
	}
	return true
}
