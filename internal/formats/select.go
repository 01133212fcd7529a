package formats

import (
	"sort"
	"strconv"
	"strings"

	"github.com/ytfetch/ytfetch/internal/extractor"
)

const (
	MaxVideoFormats = 10
	MaxAudioFormats = 5
)

// Catalog is the ranked set of choices offered for one video.
type Catalog struct {
	Video []Format `json:"video"`
	Audio []Format `json:"audio"`
}

// Build normalizes and selects in one step.
func Build(raw []extractor.Format) Catalog {
	video, audio := Normalize(raw)
	return Select(video, audio)
}

// Select deduplicates each list by quality label (last entry wins), sorts
// video by descending height and audio by descending bitrate, and caps both.
// Sorting is stable, so ties keep their deduplicated order.
func Select(video, audio []Format) Catalog {
	v := dedupe(video)
	sort.SliceStable(v, func(i, j int) bool {
		return resolutionHeight(v[i].Resolution) > resolutionHeight(v[j].Resolution)
	})

	a := dedupe(audio)
	sort.SliceStable(a, func(i, j int) bool {
		return leadingInt(a[i].Quality) > leadingInt(a[j].Quality)
	})

	return Catalog{
		Video: truncate(v, MaxVideoFormats),
		Audio: truncate(a, MaxAudioFormats),
	}
}

// dedupe keeps one entry per quality label. A label keeps the slot of its
// first occurrence but takes the value of its last.
func dedupe(in []Format) []Format {
	index := make(map[string]int, len(in))
	out := make([]Format, 0, len(in))
	for _, f := range in {
		if i, ok := index[f.Quality]; ok {
			out[i] = f
			continue
		}
		index[f.Quality] = len(out)
		out = append(out, f)
	}
	return out
}

func truncate(in []Format, max int) []Format {
	if len(in) > max {
		return in[:max]
	}
	return in
}

// resolutionHeight parses H out of "WxH"; anything else is 0.
func resolutionHeight(resolution string) int {
	i := strings.LastIndexByte(resolution, 'x')
	if i < 0 {
		return 0
	}
	h, err := strconv.Atoi(resolution[i+1:])
	if err != nil || h < 0 {
		return 0
	}
	return h
}

// leadingInt parses the run of digits at the start of s: "129.5kbps" -> 129.
func leadingInt(s string) int {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
