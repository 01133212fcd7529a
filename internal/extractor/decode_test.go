package extractor

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMetadata(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
		check   func(t *testing.T, meta *Metadata)
	}{
		{
			name: "full payload",
			input: `{"title":"A","thumbnail":"t.jpg","duration":61,"uploader":"U","formats":[
				{"format_id":"18","vcodec":"avc1.42001E","acodec":"mp4a.40.2","ext":"mp4","format_note":"360p",
				 "resolution":"640x360","filesize":null,"filesize_approx":2048.5},
				{"format_id":"140","vcodec":"none","acodec":"mp4a.40.2","ext":"m4a","abr":129.478}]}`,
			check: func(t *testing.T, meta *Metadata) {
				assert.Equal(t, "A", meta.Title)
				assert.Equal(t, float64(61), meta.Duration)
				require.Len(t, meta.Formats, 2)
				assert.Equal(t, float64(0), meta.Formats[0].FileSize)
				assert.Equal(t, 2048.5, meta.Formats[0].FileSizeApprox)
				assert.Equal(t, "none", meta.Formats[1].VCodec)
				assert.Equal(t, 129.478, meta.Formats[1].ABR)
			},
		},
		{
			name:  "missing optional fields fall back",
			input: `{"title":null,"formats":[{"format_id":"x"}]}`,
			check: func(t *testing.T, meta *Metadata) {
				assert.Equal(t, DefaultTitle, meta.Title)
				assert.Equal(t, DefaultUploader, meta.Uploader)
				assert.Equal(t, "", meta.Thumbnail)
				require.Len(t, meta.Formats, 1)
				assert.Equal(t, "", meta.Formats[0].VCodec)
			},
		},
		{
			name:  "empty format list is valid",
			input: `{"title":"A","formats":[]}`,
			check: func(t *testing.T, meta *Metadata) {
				assert.Empty(t, meta.Formats)
			},
		},
		{
			name:    "no format list",
			input:   `{"title":"playlist","entries":[]}`,
			wantErr: ErrNoFormats,
		},
		{
			name:    "null format list",
			input:   `{"title":"A","formats":null}`,
			wantErr: ErrNoFormats,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, err := decodeMetadata([]byte(tt.input))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			tt.check(t, meta)
		})
	}
}

func TestDecodeMetadataMalformed(t *testing.T) {
	_, err := decodeMetadata([]byte(`{"title":`))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoFormats))

	_, err = decodeMetadata([]byte(`{"formats":"not a list"}`))
	require.Error(t, err)
}

func TestMetadataLookup(t *testing.T) {
	meta := &Metadata{Formats: []Format{{FormatID: "18", Ext: "mp4"}, {FormatID: "251", Ext: "webm"}}}

	f, ok := meta.Lookup("251")
	require.True(t, ok)
	assert.Equal(t, "webm", f.Ext)

	_, ok = meta.Lookup("999")
	assert.False(t, ok)
}

type nopExtractor struct{ Extractor }

func TestCapabilityPublishOnce(t *testing.T) {
	var c Capability
	_, ok := c.Get()
	assert.False(t, ok)
	assert.False(t, c.Ready())
	assert.False(t, c.Publish(nil))

	first := &nopExtractor{}
	second := &nopExtractor{}

	var wg sync.WaitGroup
	wins := make(chan bool, 2)
	for _, ext := range []Extractor{first, second} {
		wg.Add(1)
		go func(ext Extractor) {
			defer wg.Done()
			wins <- c.Publish(ext)
		}(ext)
	}
	wg.Wait()
	close(wins)

	won := 0
	for w := range wins {
		if w {
			won++
		}
	}
	assert.Equal(t, 1, won)

	got, ok := c.Get()
	require.True(t, ok)
	assert.True(t, got == Extractor(first) || got == Extractor(second))
	assert.True(t, c.Ready())
}
