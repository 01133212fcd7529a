package extractor

import (
	"encoding/json"
	"fmt"
)

// Fallbacks for optional info JSON fields.
const (
	DefaultTitle    = "Untitled"
	DefaultUploader = "Unknown"
)

// yt-dlp omits or nulls most fields depending on the site, so every field is
// optional on the wire.
type ytDlpInfo struct {
	Title     *string        `json:"title"`
	Thumbnail *string        `json:"thumbnail"`
	Duration  *float64       `json:"duration"`
	Uploader  *string        `json:"uploader"`
	Formats   *[]ytDlpFormat `json:"formats"`
}

type ytDlpFormat struct {
	FormatID       *string  `json:"format_id"`
	VCodec         *string  `json:"vcodec"`
	ACodec         *string  `json:"acodec"`
	Ext            *string  `json:"ext"`
	FormatNote     *string  `json:"format_note"`
	Resolution     *string  `json:"resolution"`
	ABR            *float64 `json:"abr"`
	FileSize       *float64 `json:"filesize"`
	FileSizeApprox *float64 `json:"filesize_approx"`
}

func decodeMetadata(data []byte) (*Metadata, error) {
	var info ytDlpInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("yt-dlp metadata parse error: %w", err)
	}
	if info.Formats == nil {
		return nil, ErrNoFormats
	}

	meta := &Metadata{
		Title:     stringOr(info.Title, DefaultTitle),
		Thumbnail: stringOr(info.Thumbnail, ""),
		Duration:  floatOr(info.Duration, 0),
		Uploader:  stringOr(info.Uploader, DefaultUploader),
		Formats:   make([]Format, 0, len(*info.Formats)),
	}
	for _, f := range *info.Formats {
		meta.Formats = append(meta.Formats, Format{
			FormatID:       stringOr(f.FormatID, ""),
			VCodec:         stringOr(f.VCodec, ""),
			ACodec:         stringOr(f.ACodec, ""),
			Ext:            stringOr(f.Ext, ""),
			FormatNote:     stringOr(f.FormatNote, ""),
			Resolution:     stringOr(f.Resolution, ""),
			ABR:            floatOr(f.ABR, 0),
			FileSize:       floatOr(f.FileSize, 0),
			FileSizeApprox: floatOr(f.FileSizeApprox, 0),
		})
	}
	return meta, nil
}

func stringOr(v *string, fallback string) string {
	if v == nil || *v == "" {
		return fallback
	}
	return *v
}

func floatOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}
