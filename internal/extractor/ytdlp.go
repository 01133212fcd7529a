package extractor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultKillGrace bounds how long Wait blocks on pipes after the process
	// group has been killed.
	DefaultKillGrace = 2 * time.Second

	stderrTailBytes = 8 << 10
)

// YtDlp runs a located yt-dlp binary.
type YtDlp struct {
	path      string
	version   string
	killGrace time.Duration
	logger    zerolog.Logger
}

type Option func(*YtDlp)

func WithKillGrace(d time.Duration) Option {
	return func(y *YtDlp) {
		if d > 0 {
			y.killGrace = d
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(y *YtDlp) {
		y.logger = logger
	}
}

// New resolves binary on PATH and checks that it answers --version.
func New(ctx context.Context, binary string, opts ...Option) (*YtDlp, error) {
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("locating %s: %w", binary, err)
	}

	y := &YtDlp{
		path:      path,
		killGrace: DefaultKillGrace,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(y)
	}

	cmd := y.command(ctx, "--version")
	stderr := newTailBuffer(stderrTailBytes)
	cmd.Stderr = stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("yt-dlp --version: %w | %s", err, stderr.String())
	}
	y.version = strings.TrimSpace(string(out))
	return y, nil
}

func (y *YtDlp) Path() string    { return y.path }
func (y *YtDlp) Version() string { return y.version }

// FetchMetadata runs yt-dlp -J and decodes the info JSON. The call is bounded
// only by ctx.
func (y *YtDlp) FetchMetadata(ctx context.Context, url string) (*Metadata, error) {
	cmd := y.command(ctx, "-J", "--no-playlist", "--no-warnings", "--", url)
	var stdout bytes.Buffer
	stderr := newTailBuffer(stderrTailBytes)
	cmd.Stdout = &stdout
	cmd.Stderr = stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("yt-dlp metadata error: %w | %s", err, stderr.String())
	}
	y.logger.Debug().
		Str("url", url).
		Dur("elapsed", time.Since(start)).
		Int("bytes", stdout.Len()).
		Msg("metadata fetched")

	return decodeMetadata(stdout.Bytes())
}

// StreamFormat starts yt-dlp writing formatID to stdout.
func (y *YtDlp) StreamFormat(ctx context.Context, url, formatID string) (Stream, error) {
	cmd := y.command(ctx, "-f", formatID, "-o", "-", "--no-progress", "--", url)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr := newTailBuffer(stderrTailBytes)
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting yt-dlp: %w", err)
	}
	y.logger.Debug().
		Str("url", url).
		Str("format_id", formatID).
		Int("pid", cmd.Process.Pid).
		Msg("stream process started")

	return &process{cmd: cmd, stdout: stdout, stderr: stderr}, nil
}

func (y *YtDlp) command(ctx context.Context, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, y.path, args...)
	setProcessGroup(cmd)
	cmd.WaitDelay = y.killGrace
	return cmd
}

type process struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *tailBuffer

	waitOnce sync.Once
	waitErr  error
}

func (p *process) Read(b []byte) (int, error) {
	return p.stdout.Read(b)
}

func (p *process) Wait() error {
	p.waitOnce.Do(func() {
		err := p.cmd.Wait()
		if err == nil {
			return
		}
		if tail := p.stderr.String(); tail != "" {
			p.waitErr = fmt.Errorf("yt-dlp exited: %w | %s", err, tail)
			return
		}
		p.waitErr = fmt.Errorf("yt-dlp exited: %w", err)
	})
	return p.waitErr
}

// tailBuffer keeps the last cap bytes written to it. exec copies stderr into
// it from its own goroutine; read it only after the command has been waited.
type tailBuffer struct {
	buf []byte
	cap int
}

func newTailBuffer(capacity int) *tailBuffer {
	return &tailBuffer{buf: make([]byte, 0, capacity), cap: capacity}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	if len(p) >= t.cap {
		t.buf = append(t.buf[:0], p[len(p)-t.cap:]...)
		return len(p), nil
	}
	if over := len(t.buf) + len(p) - t.cap; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	t.buf = append(t.buf, p...)
	return len(p), nil
}

func (t *tailBuffer) String() string {
	return strings.TrimSpace(string(t.buf))
}
