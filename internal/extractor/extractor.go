// Package extractor drives the yt-dlp command line tool. It fetches video
// metadata as JSON and streams a chosen format to stdout, and holds the
// process-wide handle that request handlers read once it is ready.
package extractor

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
)

// Format is one encoding variant of a source video as reported by yt-dlp.
// Absent optional fields are left at their zero value.
type Format struct {
	FormatID       string
	VCodec         string
	ACodec         string
	Ext            string
	FormatNote     string
	Resolution     string
	ABR            float64
	FileSize       float64
	FileSizeApprox float64
}

// Metadata is the subset of yt-dlp's info JSON the service consumes.
type Metadata struct {
	Title     string
	Thumbnail string
	Duration  float64
	Uploader  string
	Formats   []Format
}

// Lookup returns the format with the given id.
func (m *Metadata) Lookup(formatID string) (Format, bool) {
	for _, f := range m.Formats {
		if f.FormatID == formatID {
			return f, true
		}
	}
	return Format{}, false
}

// ErrNoFormats is returned when the info JSON carries no format list.
var ErrNoFormats = errors.New("metadata has no format list")

// Stream is the stdout of a running extraction process. Wait must be called
// once reading stops; it reaps the process and reports how it exited.
type Stream interface {
	io.Reader
	Wait() error
}

// Extractor is the capability the service needs from yt-dlp.
type Extractor interface {
	FetchMetadata(ctx context.Context, url string) (*Metadata, error)
	// StreamFormat starts a process writing the format's bytes to its stdout.
	// Canceling ctx kills the process.
	StreamFormat(ctx context.Context, url, formatID string) (Stream, error)
}

type handle struct {
	ext Extractor
}

// Capability is the two-state readiness value shared by all requests: empty
// until Publish succeeds, then read-only.
type Capability struct {
	ready atomic.Pointer[handle]
}

// Publish stores ext as the ready handle. Only the first call wins.
func (c *Capability) Publish(ext Extractor) bool {
	if ext == nil {
		return false
	}
	return c.ready.CompareAndSwap(nil, &handle{ext: ext})
}

// Get returns the handle and whether it has been published.
func (c *Capability) Get() (Extractor, bool) {
	h := c.ready.Load()
	if h == nil {
		return nil, false
	}
	return h.ext, true
}

func (c *Capability) Ready() bool {
	return c.ready.Load() != nil
}
