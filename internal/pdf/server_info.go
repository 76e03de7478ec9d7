package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/a3tai/mcp-sondage-reader/internal/descriptions"
)

// DirectoryCache provides TTL-based caching for directory contents
type DirectoryCache struct {
	entries map[string]*CacheEntry
	ttl     time.Duration
	mu      sync.RWMutex
}

// CacheEntry represents a cached directory scan result
type CacheEntry struct {
	files      []FileInfo
	truncated  bool
	lastUpdate time.Time
}

// NewDirectoryCache creates a new directory cache with specified TTL
func NewDirectoryCache(ttl time.Duration) *DirectoryCache {
	return &DirectoryCache{
		entries: make(map[string]*CacheEntry),
		ttl:     ttl,
	}
}

// Get retrieves cached directory contents if still valid
func (c *DirectoryCache) Get(path string) *CacheEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[path]
	if !exists || time.Since(entry.lastUpdate) > c.ttl {
		return nil
	}
	return entry
}

// Set stores directory contents in cache
func (c *DirectoryCache) Set(path string, files []FileInfo, truncated bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[path] = &CacheEntry{
		files:      files,
		truncated:  truncated,
		lastUpdate: time.Now(),
	}
}

// Clear removes all cached entries
func (c *DirectoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*CacheEntry)
}

// LazyDirectoryScanner lists PDF reports under a directory with limits on
// depth, file count and time
type LazyDirectoryScanner struct {
	maxDepth  int
	fileLimit int
	timeLimit time.Duration
}

// ScanResult represents the result of a directory scan
type ScanResult struct {
	Files     []FileInfo
	Truncated bool
}

// NewLazyDirectoryScanner creates a scanner; zero disables a limit
func NewLazyDirectoryScanner(maxDepth, fileLimit int, timeLimit time.Duration) *LazyDirectoryScanner {
	return &LazyDirectoryScanner{
		maxDepth:  maxDepth,
		fileLimit: fileLimit,
		timeLimit: timeLimit,
	}
}

// ScanDirectory walks root, skipping hidden entries and symlinks
func (s *LazyDirectoryScanner) ScanDirectory(ctx context.Context, root string) (*ScanResult, error) {
	result := &ScanResult{Files: []FileInfo{}}
	start := time.Now()
	rootDepth := strings.Count(filepath.Clean(root), string(filepath.Separator))

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			// unreadable entries are skipped
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if s.timeLimit > 0 && time.Since(start) > s.timeLimit {
			result.Truncated = true
			return filepath.SkipAll
		}

		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		if d.IsDir() {
			depth := strings.Count(filepath.Clean(path), string(filepath.Separator)) - rootDepth
			if s.maxDepth > 0 && depth >= s.maxDepth {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.EqualFold(filepath.Ext(d.Name()), ".pdf") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		result.Files = append(result.Files, FileInfo{
			Name:         d.Name(),
			Path:         path,
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format("2006-01-02 15:04:05"),
		})
		if s.fileLimit > 0 && len(result.Files) >= s.fileLimit {
			result.Truncated = true
			return filepath.SkipAll
		}
		return nil
	})

	return result, err
}

// ServerInfo builds the server description with a cached directory listing
type ServerInfo struct {
	cache   *DirectoryCache
	scanner *LazyDirectoryScanner
	service *Service
}

// NewServerInfo creates a new server info handler
func NewServerInfo(service *Service) *ServerInfo {
	return &ServerInfo{
		cache:   NewDirectoryCache(5 * time.Minute),
		scanner: NewLazyDirectoryScanner(5, 100, 3*time.Second), // max 5 levels, 100 files, 3 seconds
		service: service,
	}
}

// GetServerInfo returns the server description. Without a configured
// directory the listing is empty.
func (p *ServerInfo) GetServerInfo(ctx context.Context, serverName, version string) (*ServerInfoResult, error) {
	settings := p.service.Settings()
	dir := p.service.ConfiguredDirectory()

	result := &ServerInfoResult{
		ServerName:        serverName,
		Version:           version,
		DefaultDirectory:  dir,
		MaxFileSize:       p.service.GetMaxFileSize(),
		Keywords:          settings.Labels(),
		MergeThreshold:    settings.MergeThreshold,
		NamePattern:       settings.NamePattern.String(),
		AvailableTools:    p.getAvailableTools(),
		DirectoryContents: []FileInfo{},
		UsageGuidance:     p.getUsageGuidance(),
	}

	if dir == "" {
		return result, nil
	}

	if cached := p.cache.Get(dir); cached != nil {
		result.DirectoryContents = cached.files
		result.Truncated = cached.truncated
		return result, nil
	}

	scanCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	scan, err := p.scanner.ScanDirectory(scanCtx, dir)
	if err != nil && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if scan != nil {
		p.cache.Set(dir, scan.Files, scan.Truncated)
		result.DirectoryContents = scan.Files
		result.Truncated = scan.Truncated
	}
	return result, nil
}

// ClearCache drops cached directory listings
func (p *ServerInfo) ClearCache() {
	p.cache.Clear()
}

func (p *ServerInfo) getAvailableTools() []ToolInfo {
	names := descriptions.GetAllToolNames()
	tools := make([]ToolInfo, 0, len(names))
	for _, name := range names {
		tools = append(tools, ToolInfo{Name: name, Description: descriptions.GetToolDescription(name)})
	}
	return tools
}

func (p *ServerInfo) getUsageGuidance() string {
	maxFileSizeMB := p.service.GetMaxFileSize() / (1024 * 1024)

	return fmt.Sprintf(`Sondage Reader Usage Guide:

1. DISCOVER: 'sondage_server_info' lists the PDF reports of the configured directory.
2. VALIDATE: 'sondage_validate_file' checks a report is readable.
3. EXTRACT: 'sondage_extract' with the report path and the depth ladder
   (depth_start < depth_end, depth_step > 0) applied to each new borehole.
4. REVIEW: 'sondage_show' a borehole, fix columns with 'sondage_edit'
   (delete, insert, append, null, set, move).
5. VALIDATE BOREHOLES: 'sondage_validate' once every column has the depth ladder's length.
6. EXPORT: 'sondage_export' writes the validated boreholes to an .xlsx workbook.

Review state can be saved to and loaded from YAML with 'sondage_save_session'
and 'sondage_load_session'.

NOTES:
- Relative paths are resolved against the configured directory
- Files up to %dMB are accepted
- Scanned reports without a text layer yield no keywords`, maxFileSizeMB)
}
