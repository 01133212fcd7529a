package media

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/ytfetch/ytfetch/internal/extractor"
)

const (
	DefaultContainer = "mp4"
	defaultFilename  = "download"
	chunkSize        = 32 << 10
)

type DownloadRequest struct {
	URL      string
	FormatID string
}

// DownloadState tracks one download through
// Idle -> Resolving -> HeadersCommitted -> Streaming -> Completed|Aborted.
type DownloadState int

const (
	StateIdle DownloadState = iota
	StateResolving
	StateHeadersCommitted
	StateStreaming
	StateCompleted
	StateAborted
)

func (s DownloadState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StateHeadersCommitted:
		return "headers_committed"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// DownloadResult reports how far a download got.
type DownloadResult struct {
	State    DownloadState
	Filename string
	Bytes    int64
}

// DownloadProxy pipes yt-dlp's stdout for a chosen format into an HTTP
// response.
type DownloadProxy struct {
	source    Source
	logger    zerolog.Logger
	chunkSize int
}

func NewDownloadProxy(source Source, logger zerolog.Logger) *DownloadProxy {
	return &DownloadProxy{source: source, logger: logger, chunkSize: chunkSize}
}

// Download resolves req against fresh metadata, declares the attachment
// headers and streams the format into w.
//
// Errors returned before the first body byte leave w untouched apart from
// its header map, so the caller may still write an error response. Once a
// byte has been written the error wraps ErrAborted and the caller must drop
// the connection instead of writing anything else. Canceling ctx, or a
// failed write to w, kills the extraction process.
func (p *DownloadProxy) Download(ctx context.Context, w http.ResponseWriter, req DownloadRequest) (DownloadResult, error) {
	res := DownloadResult{State: StateIdle}
	if req.URL == "" || req.FormatID == "" {
		return res, newError(KindInvalidRequest, MsgDownloadParams, nil)
	}
	ext, ok := p.source.Get()
	if !ok {
		return res, newError(KindNotReady, MsgNotReady, nil)
	}

	logger := loggerFrom(ctx, p.logger).With().
		Str("url", req.URL).
		Str("format_id", req.FormatID).
		Logger()

	res.State = StateResolving
	meta, err := ext.FetchMetadata(ctx, req.URL)
	if err != nil {
		logger.Error().Err(err).Msg("error resolving download metadata")
		return res, newError(KindMetadataUnavailable, MsgDownloadFailed, err)
	}
	container := DefaultContainer
	if f, ok := meta.Lookup(req.FormatID); ok {
		if c := SanitizeTitle(f.Ext); c != "" {
			container = c
		}
	}
	res.Filename = Filename(meta.Title, container)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	header := w.Header()
	header.Set("Content-Disposition", `attachment; filename="`+res.Filename+`"`)
	header.Set("Content-Type", "application/octet-stream")
	res.State = StateHeadersCommitted

	stream, err := ext.StreamFormat(ctx, req.URL, req.FormatID)
	if err != nil {
		withdrawHeaders(header)
		logger.Error().Err(err).Msg("error starting download stream")
		return res, newError(KindStreamFailure, MsgDownloadFailed, err)
	}

	rc := http.NewResponseController(w)
	buf := make([]byte, p.chunkSize)
	var readErr error
	for {
		n, err := stream.Read(buf)
		if n > 0 {
			res.State = StateStreaming
			if _, werr := w.Write(buf[:n]); werr != nil {
				return p.abort(logger, cancel, stream, res, werr)
			}
			res.Bytes += int64(n)
			if ferr := rc.Flush(); ferr != nil && !errors.Is(ferr, http.ErrNotSupported) {
				return p.abort(logger, cancel, stream, res, ferr)
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				readErr = err
			}
			break
		}
	}

	waitErr := stream.Wait()
	if readErr == nil && waitErr == nil {
		if res.Bytes == 0 {
			w.WriteHeader(http.StatusOK)
		}
		res.State = StateCompleted
		logger.Info().Int64("bytes", res.Bytes).Str("filename", res.Filename).Msg("download completed")
		return res, nil
	}

	cause := errors.Join(readErr, waitErr)
	if res.Bytes == 0 {
		withdrawHeaders(header)
		logger.Error().Err(cause).Msg("download stream failed before any data")
		return res, newError(KindStreamFailure, MsgDownloadFailed, cause)
	}
	res.State = StateAborted
	logger.Error().Err(cause).Int64("bytes", res.Bytes).Msg("download stream failed mid-transfer")
	return res, aborted(cause)
}

// abort stops the process after a write to the client failed. Write has
// already committed the status line, so this is always an abort. The pipe is
// not drained; killing the process group unblocks Wait.
func (p *DownloadProxy) abort(logger zerolog.Logger, cancel context.CancelFunc, stream extractor.Stream, res DownloadResult, cause error) (DownloadResult, error) {
	cancel()
	waitErr := stream.Wait()
	res.State = StateAborted
	logger.Warn().
		Err(cause).
		AnErr("process", waitErr).
		Int64("bytes", res.Bytes).
		Msg("client went away, download process terminated")
	return res, aborted(cause)
}

func withdrawHeaders(h http.Header) {
	h.Del("Content-Disposition")
	h.Del("Content-Type")
}

// SanitizeTitle drops every rune that is not an ASCII letter, digit,
// underscore, hyphen or whitespace; whitespace becomes a plain space.
func SanitizeTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// Filename builds the attachment name "<sanitized title>.<container>".
func Filename(title, container string) string {
	name := SanitizeTitle(title)
	if strings.TrimSpace(name) == "" {
		name = defaultFilename
	}
	if container == "" {
		container = DefaultContainer
	}
	return name + "." + container
}
