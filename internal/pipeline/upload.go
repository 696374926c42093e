package pipeline

import (
	"context"

	"github.com/jmylchreest/repost/internal/logger"
	"github.com/jmylchreest/repost/internal/scraper"
	"github.com/jmylchreest/repost/pkg/formatter"
)

// Uploader re-hosts an image and returns its new URL.
type Uploader interface {
	Upload(ctx context.Context, imageURL string) (string, error)
}

// PassthroughUploader keeps images where they are: the hosted URL is the
// resolved source URL.
type PassthroughUploader struct{}

// Upload returns imageURL unchanged.
func (PassthroughUploader) Upload(_ context.Context, imageURL string) (string, error) {
	return imageURL, nil
}

// hostImages uploads the feature image and every content image once and
// returns the image map keyed by the src found in the markup, plus the
// hosted feature image URL. Failed uploads are logged and left out of the
// map, so the formatter drops those images.
func hostImages(ctx context.Context, up Uploader, article *scraper.Article) (*formatter.ImageMap, string) {
	images := formatter.NewImageMap()
	var feature string

	if article.FeatureImageURL != "" {
		hosted, err := up.Upload(ctx, article.FeatureImageURL)
		if err != nil || hosted == "" {
			logger.Warn("feature image upload failed", "url", article.FeatureImageURL, "error", err)
		} else {
			images.Set(article.FeatureImageURL, hosted)
			feature = hosted
		}
	}

	for _, img := range article.Images {
		if _, ok := images.Get(img.OriginalSrc); ok {
			continue
		}
		if img.FullURL == article.FeatureImageURL && feature != "" {
			images.Set(img.OriginalSrc, feature)
			continue
		}
		hosted, err := up.Upload(ctx, img.FullURL)
		if err != nil || hosted == "" {
			logger.Warn("content image upload failed", "src", img.OriginalSrc, "error", err)
			continue
		}
		images.Set(img.OriginalSrc, hosted)
	}
	return images, feature
}
