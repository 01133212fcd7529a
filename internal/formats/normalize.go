// Package formats turns yt-dlp format descriptors into the user-facing
// catalog: combined video+audio choices and audio-only choices, each
// deduplicated by quality label, ranked and capped.
package formats

import (
	"strconv"
	"strings"

	"github.com/ytfetch/ytfetch/internal/extractor"
)

const (
	UnknownQuality = "Unknown"
	NotAvailable   = "N/A"

	codecNone = "none"
)

// Format is a normalized, client-facing format entry. FormatID must be sent
// back verbatim to download it.
type Format struct {
	FormatID   string `json:"format_id"`
	Quality    string `json:"quality"`
	Container  string `json:"format"`
	Size       string `json:"size"`
	Resolution string `json:"resolution,omitempty"`
}

// Normalize splits raw descriptors into combined video formats and audio-only
// formats. Video-only streams and entries without an id are dropped. Order is
// preserved; nothing is deduplicated or truncated here.
func Normalize(raw []extractor.Format) (video, audio []Format) {
	for _, f := range raw {
		if f.FormatID == "" {
			continue
		}
		switch {
		case hasCodec(f.VCodec) && hasCodec(f.ACodec):
			video = append(video, normalizeVideo(f))
		case f.VCodec == codecNone && hasCodec(f.ACodec):
			audio = append(audio, normalizeAudio(f))
		}
	}
	return video, audio
}

func hasCodec(codec string) bool {
	return codec != "" && codec != codecNone
}

func normalizeVideo(f extractor.Format) Format {
	quality := f.FormatNote
	if quality == "" {
		quality = f.Resolution
	}
	if quality == "" {
		quality = UnknownQuality
	}
	resolution := f.Resolution
	if resolution == "" {
		resolution = NotAvailable
	}
	return Format{
		FormatID:   f.FormatID,
		Quality:    quality,
		Container:  container(f.Ext),
		Size:       FormatSize(sizeOf(f)),
		Resolution: resolution,
	}
}

// normalizeAudio labels by average bitrate. A missing bitrate yields
// "Unknownkbps"; clients already display that string.
func normalizeAudio(f extractor.Format) Format {
	bitrate := UnknownQuality
	if f.ABR > 0 {
		bitrate = strconv.FormatFloat(f.ABR, 'f', -1, 64)
	}
	return Format{
		FormatID:  f.FormatID,
		Quality:   bitrate + "kbps",
		Container: container(f.Ext),
		Size:      FormatSize(sizeOf(f)),
	}
}

func container(ext string) string {
	if ext == "" {
		return strings.ToLower(UnknownQuality)
	}
	return strings.ToLower(ext)
}

func sizeOf(f extractor.Format) float64 {
	if f.FileSize > 0 {
		return f.FileSize
	}
	return f.FileSizeApprox
}
