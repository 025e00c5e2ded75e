package delivery

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxcoop/subscription-form/internal/form"
)

func TestUnsupportedSharer(t *testing.T) {
	err := UnsupportedSharer{}.Share(context.Background(), "f.pdf", []byte("x"), "title", "text")
	assert.ErrorIs(t, err, form.ErrShareUnsupported)
}

func TestFileDownloader(t *testing.T) {
	dir := t.TempDir()
	d, err := NewFileDownloader(dir)
	require.NoError(t, err)

	data := []byte("%PDF-1.4 payload")
	path, err := d.Download("MAXCOOP_Doe_1754042400000.pdf", data)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "MAXCOOP_Doe_1754042400000.pdf"), path)
	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, written)
}

func TestFileDownloaderCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "not", "yet", "there")
	d, err := NewFileDownloader(dir)
	require.NoError(t, err)

	path, err := d.Download("out.pdf", []byte("x"))
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestFileDownloaderStripsTraversal(t *testing.T) {
	dir := t.TempDir()
	d, err := NewFileDownloader(dir)
	require.NoError(t, err)

	// Only the base name survives; the write stays inside the directory.
	path, err := d.Download("../../etc/evil.pdf", []byte("x"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "evil.pdf"), path)
}

func TestComposeURL(t *testing.T) {
	raw := ComposeURL("maxcoopforms@gmail.com", "Mrs Okafor Adaeze")

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "mail.google.com", u.Host)
	assert.Equal(t, "/mail/", u.Path)

	q := u.Query()
	assert.Equal(t, "cm", q.Get("view"))
	assert.Equal(t, "1", q.Get("fs"))
	assert.Equal(t, "maxcoopforms@gmail.com", q.Get("to"))
	assert.Equal(t, "MAXCOOP Subscription - Mrs Okafor Adaeze", q.Get("su"))
	assert.Contains(t, q.Get("body"), "Dear MAXCOOP Admin")
	assert.Contains(t, q.Get("body"), "Name: Mrs Okafor Adaeze")
}

func TestInstructions(t *testing.T) {
	text := Instructions("MAXCOOP_Doe_123.pdf", "maxcoopforms@gmail.com")
	assert.Contains(t, text, "NEXT STEPS")
	assert.Contains(t, text, "MAXCOOP_Doe_123.pdf")
	assert.Contains(t, text, "TO: maxcoopforms@gmail.com")
}

func TestWire(t *testing.T) {
	dir := t.TempDir()
	d, err := Wire(dir, "maxcoopforms@gmail.com", 250*time.Millisecond)
	require.NoError(t, err)

	assert.Equal(t, "maxcoopforms@gmail.com", d.Recipient)
	assert.Equal(t, 250*time.Millisecond, d.FollowupDelay)
	assert.ErrorIs(t, d.Sharer.Share(context.Background(), "f", nil, "", ""), form.ErrShareUnsupported)

	path, err := d.Downloader.Download("wired.pdf", []byte("x"))
	require.NoError(t, err)
	assert.FileExists(t, path)

	assert.Contains(t, d.ComposeURL("Jane Doe"), "Jane+Doe")
	assert.Contains(t, d.Instructions("wired.pdf"), "wired.pdf")
}

func TestOutputGuardRejectsEmpty(t *testing.T) {
	_, err := NewOutputGuard("")
	require.Error(t, err)

	g, err := NewOutputGuard(t.TempDir())
	require.NoError(t, err)
	_, err = g.ResolveTarget("")
	require.Error(t, err)
}

func TestOutputGuardResolveTarget(t *testing.T) {
	dir := t.TempDir()
	g, err := NewOutputGuard(dir)
	require.NoError(t, err)

	target, err := g.ResolveTarget("form.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "form.pdf"), target)

	target, err = g.ResolveTarget("sub/../../escape.pdf")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "escape.pdf"), target, "traversal segments are dropped with the directories")
}
