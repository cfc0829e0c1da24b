// Package audit keeps a local JSON Lines trail of admin mutations made
// through the CLI, with daily rotation, size caps, retention cleanup, and
// an in-memory cache of recent entries.
//
// This is the operator's own record of what they changed and when; the
// server keeps its authoritative audit log independently.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"sync"
	"time"
)

// Entry is one recorded CLI mutation.
type Entry struct {
	// Timestamp is when the command ran, UTC.
	Timestamp time.Time `json:"timestamp"`
	// Profile is the active profile the command targeted.
	Profile string `json:"profile"`
	// Command is the full CLI command path (e.g., "forms delete").
	Command string `json:"command"`
	// Resource and ResourceID identify what was changed, when known.
	Resource   string `json:"resource,omitempty"`
	ResourceID string `json:"resource_id,omitempty"`
	// Outcome is "success" or "error".
	Outcome string `json:"outcome"`
	// Error holds the failure message for error outcomes.
	Error string `json:"error,omitempty"`
}

// Config holds configuration for the file-based audit trail.
type Config struct {
	// Dir is the directory where audit files are stored.
	Dir string
	// RetentionDays is the number of days to keep audit files (default 30).
	RetentionDays int
	// MaxFileSizeMB is the maximum file size in megabytes before rotation
	// (default 50).
	MaxFileSizeMB int
	// CacheSize is the number of recent entries to keep in memory
	// (default 500).
	CacheSize int
}

// auditFilePattern matches trail filenames: audit-YYYY-MM-DD.log or
// audit-YYYY-MM-DD-N.log.
var auditFilePattern = regexp.MustCompile(`^audit-(\d{4}-\d{2}-\d{2})(?:-(\d+))?\.log$`)

// auditFileInfo holds parsed information about an audit file.
type auditFileInfo struct {
	name   string
	date   string
	suffix int
}

// parseAuditFilename parses an audit filename and returns its components.
func parseAuditFilename(name string) (auditFileInfo, bool) {
	matches := auditFilePattern.FindStringSubmatch(name)
	if matches == nil {
		return auditFileInfo{}, false
	}
	info := auditFileInfo{name: name, date: matches[1]}
	if matches[2] != "" {
		n, err := strconv.Atoi(matches[2])
		if err != nil {
			return auditFileInfo{}, false
		}
		info.suffix = n
	}
	return info, true
}

// sortAuditFiles sorts audit file info by date then suffix.
func sortAuditFiles(files []auditFileInfo) {
	sort.Slice(files, func(i, j int) bool {
		if files[i].date != files[j].date {
			return files[i].date < files[j].date
		}
		return files[i].suffix < files[j].suffix
	})
}

// Trail is a file-backed audit trail with rotation, retention, and cache.
type Trail struct {
	dir           string
	maxFileSize   int64
	retentionDays int
	currentFile   *os.File
	currentDate   string
	currentSize   int64
	currentSuffix int
	cache         *entryCache
	mu            sync.Mutex
	logger        *slog.Logger
	closed        bool
}

// Open creates the trail directory if needed, opens today's log file, runs
// retention cleanup, and populates the recent-entries cache. The CLI is a
// short-lived process, so cleanup runs once at open rather than on a timer.
func Open(cfg Config, logger *slog.Logger) (*Trail, error) {
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 30
	}
	if cfg.MaxFileSizeMB <= 0 {
		cfg.MaxFileSizeMB = 50
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 500
	}
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(cfg.Dir, 0700); err != nil {
		return nil, fmt.Errorf("create audit directory: %w", err)
	}

	t := &Trail{
		dir:           cfg.Dir,
		maxFileSize:   int64(cfg.MaxFileSizeMB) * 1024 * 1024,
		retentionDays: cfg.RetentionDays,
		cache:         newEntryCache(cfg.CacheSize),
		logger:        logger,
	}

	today := time.Now().UTC().Format("2006-01-02")
	if err := t.openCurrentFile(today); err != nil {
		return nil, fmt.Errorf("open audit file: %w", err)
	}

	t.runCleanup()
	t.populateCache()

	return t, nil
}

// Append stores entries as JSON Lines, rotating by date and size as needed.
func (t *Trail) Append(entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, e := range entries {
		if e.Timestamp.IsZero() {
			e.Timestamp = time.Now().UTC()
		}

		dateStr := e.Timestamp.UTC().Format("2006-01-02")
		if dateStr != t.currentDate {
			if err := t.rotateDateLocked(dateStr); err != nil {
				return fmt.Errorf("date rotation: %w", err)
			}
		}
		if t.currentSize >= t.maxFileSize {
			if err := t.rotateSizeLocked(); err != nil {
				return fmt.Errorf("size rotation: %w", err)
			}
		}

		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal audit entry: %w", err)
		}
		line := append(data, '\n')
		n, err := t.currentFile.Write(line)
		if err != nil {
			return fmt.Errorf("write audit entry: %w", err)
		}
		t.currentSize += int64(n)

		t.cache.Add(e)
	}

	return nil
}

// Recent returns the last n entries from the cache, newest first.
func (t *Trail) Recent(n int) []Entry {
	return t.cache.Recent(n)
}

// Close syncs and closes the current file.
func (t *Trail) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true

	if t.currentFile != nil {
		_ = t.currentFile.Sync()
		err := t.currentFile.Close()
		t.currentFile = nil
		return err
	}
	return nil
}

// openCurrentFile opens or creates the audit file for the given date,
// continuing from the highest existing suffix.
func (t *Trail) openCurrentFile(dateStr string) error {
	suffix := t.findHighestSuffix(dateStr)

	f, size, err := t.openFile(dateStr, suffix)
	if err != nil {
		return err
	}

	t.currentFile = f
	t.currentDate = dateStr
	t.currentSize = size
	t.currentSuffix = suffix
	return nil
}

// findHighestSuffix returns the highest existing suffix for a date, or 0.
func (t *Trail) findHighestSuffix(dateStr string) int {
	entries, err := os.ReadDir(t.dir)
	if err != nil {
		return 0
	}
	highest := 0
	for _, e := range entries {
		info, ok := parseAuditFilename(e.Name())
		if !ok || info.date != dateStr {
			continue
		}
		if info.suffix > highest {
			highest = info.suffix
		}
	}
	return highest
}

// openFile opens an audit file and returns the handle and current size.
func (t *Trail) openFile(dateStr string, suffix int) (*os.File, int64, error) {
	filename := t.buildFilename(dateStr, suffix)
	path := filepath.Join(t.dir, filename)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, 0, fmt.Errorf("open file %s: %w", filename, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("stat file %s: %w", filename, err)
	}
	return f, info.Size(), nil
}

// buildFilename constructs the audit filename for a date and suffix.
func (t *Trail) buildFilename(dateStr string, suffix int) string {
	if suffix == 0 {
		return fmt.Sprintf("audit-%s.log", dateStr)
	}
	return fmt.Sprintf("audit-%s-%d.log", dateStr, suffix)
}

// rotateDateLocked closes the current file and opens one for the new date.
// Must be called with t.mu held.
func (t *Trail) rotateDateLocked(dateStr string) error {
	if t.currentFile != nil {
		_ = t.currentFile.Sync()
		_ = t.currentFile.Close()
		t.currentFile = nil
	}

	t.currentSuffix = 0
	t.currentSize = 0
	t.currentDate = dateStr

	f, size, err := t.openFile(dateStr, 0)
	if err != nil {
		return err
	}
	t.currentFile = f
	t.currentSize = size
	return nil
}

// rotateSizeLocked closes the current file and opens one with an
// incremented suffix. Must be called with t.mu held.
func (t *Trail) rotateSizeLocked() error {
	if t.currentFile != nil {
		_ = t.currentFile.Sync()
		_ = t.currentFile.Close()
		t.currentFile = nil
	}

	t.currentSuffix++
	t.currentSize = 0

	f, size, err := t.openFile(t.currentDate, t.currentSuffix)
	if err != nil {
		return err
	}
	t.currentFile = f
	t.currentSize = size
	return nil
}

// runCleanup deletes audit files older than the retention period.
func (t *Trail) runCleanup() {
	entries, err := os.ReadDir(t.dir)
	if err != nil {
		t.logger.Error("audit cleanup: failed to read directory", "dir", t.dir, "error", err)
		return
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -t.retentionDays)
	deleted := 0

	for _, e := range entries {
		info, ok := parseAuditFilename(e.Name())
		if !ok {
			continue
		}
		fileDate, err := time.Parse("2006-01-02", info.date)
		if err != nil {
			continue
		}
		if fileDate.Before(cutoff) {
			path := filepath.Join(t.dir, e.Name())
			if err := os.Remove(path); err != nil {
				t.logger.Error("audit cleanup: failed to delete file",
					"file", e.Name(), "error", err)
			} else {
				deleted++
			}
		}
	}

	if deleted > 0 {
		t.logger.Info("audit cleanup completed", "deleted", deleted)
	}
}

// populateCache reads the most recent audit file and fills the cache.
func (t *Trail) populateCache() {
	mostRecent := t.findMostRecentFile()
	if mostRecent == "" {
		return
	}

	path := filepath.Join(t.dir, mostRecent)
	f, err := os.Open(path)
	if err != nil {
		t.logger.Error("audit cache: failed to open file", "file", mostRecent, "error", err)
		return
	}
	defer func() { _ = f.Close() }()

	var records []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 256*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.logger.Warn("audit cache: skipping malformed line",
				"file", mostRecent, "error", err)
			continue
		}
		records = append(records, e)
	}
	if err := scanner.Err(); err != nil {
		t.logger.Error("audit cache: error reading file", "file", mostRecent, "error", err)
	}

	start := 0
	if len(records) > t.cache.size {
		start = len(records) - t.cache.size
	}
	// Chronological order so the newest ends up most recent in the cache.
	for _, e := range records[start:] {
		t.cache.Add(e)
	}
}

// findMostRecentFile returns the filename of the most recent non-empty
// audit file, or an empty string if none exist.
func (t *Trail) findMostRecentFile() string {
	entries, err := os.ReadDir(t.dir)
	if err != nil {
		return ""
	}

	var files []auditFileInfo
	for _, e := range entries {
		info, ok := parseAuditFilename(e.Name())
		if !ok {
			continue
		}
		finfo, err := e.Info()
		if err != nil || finfo.Size() == 0 {
			continue
		}
		files = append(files, info)
	}

	if len(files) == 0 {
		return ""
	}
	sortAuditFiles(files)
	return files[len(files)-1].name
}

// entryCache is a ring buffer of recent audit entries.
type entryCache struct {
	entries []Entry
	size    int
	head    int
	count   int
	mu      sync.RWMutex
}

func newEntryCache(size int) *entryCache {
	if size <= 0 {
		size = 500
	}
	return &entryCache{
		entries: make([]Entry, size),
		size:    size,
	}
}

// Add adds an entry, overwriting the oldest when full.
func (c *entryCache) Add(e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[c.head] = e
	c.head = (c.head + 1) % c.size
	if c.count < c.size {
		c.count++
	}
}

// Recent returns the last n entries, newest first.
func (c *entryCache) Recent(n int) []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if n <= 0 || c.count == 0 {
		return nil
	}
	if n > c.count {
		n = c.count
	}
	result := make([]Entry, n)
	for i := 0; i < n; i++ {
		idx := (c.head - 1 - i + c.size) % c.size
		result[i] = c.entries[idx]
	}
	return result
}
