// Package media implements the two request flows of the service: previewing
// the formats of a video and proxying a chosen format as a download.
package media

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ytfetch/ytfetch/internal/extractor"
	"github.com/ytfetch/ytfetch/internal/formats"
)

// Source hands out the extractor once it is ready.
type Source interface {
	Get() (extractor.Extractor, bool)
}

// VideoPreview is the preview response. It is built per request and never
// cached.
type VideoPreview struct {
	Title     string          `json:"title"`
	Thumbnail string          `json:"thumbnail"`
	Duration  float64         `json:"duration"`
	Author    string          `json:"author"`
	Formats   formats.Catalog `json:"formats"`
}

type MetadataService struct {
	source Source
	logger zerolog.Logger
}

func NewMetadataService(source Source, logger zerolog.Logger) *MetadataService {
	return &MetadataService{source: source, logger: logger}
}

// Preview fetches metadata for url and returns its format catalog.
func (s *MetadataService) Preview(ctx context.Context, url string) (*VideoPreview, error) {
	if url == "" {
		return nil, newError(KindInvalidRequest, MsgURLRequired, nil)
	}
	ext, ok := s.source.Get()
	if !ok {
		return nil, newError(KindNotReady, MsgNotReady, nil)
	}

	logger := loggerFrom(ctx, s.logger)
	meta, err := ext.FetchMetadata(ctx, url)
	if err != nil {
		logger.Error().Err(err).Str("url", url).Msg("error getting video info")
		return nil, newError(KindMetadataUnavailable, MsgMetadataUnavailable, err)
	}

	preview := &VideoPreview{
		Title:     meta.Title,
		Thumbnail: meta.Thumbnail,
		Duration:  meta.Duration,
		Author:    meta.Uploader,
		Formats:   formats.Build(meta.Formats),
	}
	logger.Debug().
		Str("url", url).
		Int("raw_formats", len(meta.Formats)).
		Int("video", len(preview.Formats.Video)).
		Int("audio", len(preview.Formats.Audio)).
		Msg("preview built")
	return preview, nil
}

// loggerFrom prefers the request-scoped logger carried by ctx.
func loggerFrom(ctx context.Context, fallback zerolog.Logger) zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return *l
	}
	return fallback
}
