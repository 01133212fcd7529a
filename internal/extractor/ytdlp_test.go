package extractor

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeYtDlp writes a shell script that answers --version and otherwise runs body.
func fakeYtDlp(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in requires a unix shell")
	}
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}

	script := "#!/bin/sh\nif [ \"$1\" = \"--version\" ]; then echo 2025.01.15; exit 0; fi\n" + body + "\n"
	path := filepath.Join(t.TempDir(), "yt-dlp")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestNewChecksVersion(t *testing.T) {
	path := fakeYtDlp(t, "exit 0")

	y, err := New(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, path, y.Path())
	assert.Equal(t, "2025.01.15", y.Version())
}

func TestNewMissingBinary(t *testing.T) {
	_, err := New(context.Background(), filepath.Join(t.TempDir(), "does-not-exist"))
	require.Error(t, err)
}

func TestFetchMetadata(t *testing.T) {
	path := fakeYtDlp(t, `cat <<'JSON'
{"title":"Clip","uploader":"Someone","duration":12.5,"thumbnail":"https://img/1.jpg",
 "formats":[{"format_id":"18","vcodec":"avc1","acodec":"mp4a","ext":"mp4","format_note":"360p","resolution":"640x360","filesize":1024}]}
JSON`)

	y, err := New(context.Background(), path)
	require.NoError(t, err)

	meta, err := y.FetchMetadata(context.Background(), "https://example.com/watch?v=1")
	require.NoError(t, err)
	assert.Equal(t, "Clip", meta.Title)
	assert.Equal(t, "Someone", meta.Uploader)
	assert.Equal(t, 12.5, meta.Duration)
	require.Len(t, meta.Formats, 1)
	assert.Equal(t, "360p", meta.Formats[0].FormatNote)
}

func TestFetchMetadataProcessFailure(t *testing.T) {
	path := fakeYtDlp(t, `echo "ERROR: Unsupported URL" >&2; exit 1`)

	y, err := New(context.Background(), path)
	require.NoError(t, err)

	_, err = y.FetchMetadata(context.Background(), "https://example.com/nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unsupported URL")
}

func TestStreamFormatPassesArguments(t *testing.T) {
	path := fakeYtDlp(t, `printf '%s\n' "$@"`)

	y, err := New(context.Background(), path)
	require.NoError(t, err)

	stream, err := y.StreamFormat(context.Background(), "https://example.com/v", "22")
	require.NoError(t, err)
	out, err := io.ReadAll(stream)
	require.NoError(t, err)
	require.NoError(t, stream.Wait())

	args := strings.Fields(string(out))
	assert.Equal(t, []string{"-f", "22", "-o", "-"}, args[:4])
	assert.Equal(t, []string{"--", "https://example.com/v"}, args[len(args)-2:])
}

func TestStreamFormatReportsExitFailure(t *testing.T) {
	path := fakeYtDlp(t, `echo "ERROR: Requested format is not available" >&2; exit 1`)

	y, err := New(context.Background(), path)
	require.NoError(t, err)

	stream, err := y.StreamFormat(context.Background(), "https://example.com/v", "999")
	require.NoError(t, err)
	out, err := io.ReadAll(stream)
	require.NoError(t, err)
	assert.Empty(t, out)

	err = stream.Wait()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Requested format is not available")
}

func TestStreamFormatKilledOnCancel(t *testing.T) {
	if _, err := os.Stat("/usr/bin/yes"); err != nil {
		if _, err := os.Stat("/bin/yes"); err != nil {
			t.Skip("yes not available")
		}
	}
	path := fakeYtDlp(t, `exec yes ytfetch`)

	y, err := New(context.Background(), path, WithKillGrace(time.Second))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	stream, err := y.StreamFormat(ctx, "https://example.com/v", "18")
	require.NoError(t, err)

	buf := make([]byte, 64<<10)
	_, err = io.ReadFull(stream, buf)
	require.NoError(t, err)

	cancel()

	done := make(chan error, 1)
	go func() {
		_, _ = io.Copy(io.Discard, stream)
		done <- stream.Wait()
	}()

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("process was not terminated after cancel")
	}
}

func TestTailBufferKeepsLastBytes(t *testing.T) {
	tb := newTailBuffer(8)
	_, _ = tb.Write([]byte("hello "))
	_, _ = tb.Write([]byte("world"))
	assert.Equal(t, "lo world", tb.String())

	_, _ = tb.Write([]byte("0123456789"))
	assert.Equal(t, "23456789", tb.String())
}
