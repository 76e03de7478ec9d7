package pdf

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLazyDirectoryScanner(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "site", "deep"), 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".hidden"), 0o750))
	for _, f := range []string{"a.pdf", "B.PDF", "notes.txt", "site/c.pdf", "site/deep/d.pdf", ".hidden/e.pdf"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("%PDF"), 0o600))
	}

	result, err := NewLazyDirectoryScanner(0, 0, 0).ScanDirectory(context.Background(), dir)
	require.NoError(t, err)

	var names []string
	for _, f := range result.Files {
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{"a.pdf", "B.PDF", "c.pdf", "d.pdf"}, names)
	assert.False(t, result.Truncated)

	result, err = NewLazyDirectoryScanner(2, 0, 0).ScanDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Len(t, result.Files, 3, "deep/ is beyond the depth limit")

	result, err = NewLazyDirectoryScanner(0, 2, 0).ScanDirectory(context.Background(), dir)
	require.NoError(t, err)
	assert.Len(t, result.Files, 2)
	assert.True(t, result.Truncated)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewLazyDirectoryScanner(0, 0, 0).ScanDirectory(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDirectoryCache(t *testing.T) {
	c := NewDirectoryCache(time.Minute)
	assert.Nil(t, c.Get("/x"))

	c.Set("/x", []FileInfo{{Name: "a.pdf"}}, true)
	entry := c.Get("/x")
	require.NotNil(t, entry)
	assert.Len(t, entry.files, 1)
	assert.True(t, entry.truncated)

	c.Clear()
	assert.Nil(t, c.Get("/x"))

	expired := NewDirectoryCache(0)
	expired.Set("/x", nil, false)
	time.Sleep(time.Millisecond)
	assert.Nil(t, expired.Get("/x"))
}

func TestService_ServerInfo(t *testing.T) {
	dir := t.TempDir()
	writeReport(t, dir, reportPage("SP1", nil, nil, nil))
	s := newTestService(t, dir)

	info, err := s.ServerInfo(context.Background(), "mcp-sondage-reader", "1.0.0")
	require.NoError(t, err)

	assert.Equal(t, "mcp-sondage-reader", info.ServerName)
	assert.Equal(t, dir, info.DefaultDirectory)
	assert.Equal(t, []string{"Pf*", "Pl*", "Module"}, info.Keywords)
	assert.Equal(t, 15.0, info.MergeThreshold)
	require.Len(t, info.DirectoryContents, 1)
	assert.Equal(t, "report.pdf", info.DirectoryContents[0].Name)
	assert.NotEmpty(t, info.AvailableTools)
	assert.Contains(t, info.UsageGuidance, "sondage_extract")

	unrestricted := newTestService(t, "")
	info, err = unrestricted.ServerInfo(context.Background(), "x", "1")
	require.NoError(t, err)
	assert.Empty(t, info.DirectoryContents)
}
