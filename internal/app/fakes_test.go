package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"assetopt/internal/domain"
)

// mockFS is an in-memory tree keyed by cleaned path. Directories are implied
// by the files below them unless added explicitly.
type mockFS struct {
	mu    sync.Mutex
	files map[string][]byte
	dirs  map[string]bool
}

func newMockFS(files map[string]string) *mockFS {
	m := &mockFS{files: map[string][]byte{}, dirs: map[string]bool{}}
	for path, content := range files {
		m.add(path, []byte(content))
	}
	return m
}

func (m *mockFS) add(path string, data []byte) {
	path = filepath.Clean(path)
	m.files[path] = data
	for dir := filepath.Dir(path); dir != "/" && dir != "."; dir = filepath.Dir(dir) {
		m.dirs[dir] = true
	}
}

func (m *mockFS) isDir(path string) bool {
	return m.dirs[filepath.Clean(path)]
}

func (m *mockFS) WalkDir(root string, fn fs.WalkDirFunc) error {
	m.mu.Lock()
	root = filepath.Clean(root)
	if !m.isDir(root) {
		m.mu.Unlock()
		return fn(root, nil, fs.ErrNotExist)
	}
	var paths []string
	for dir := range m.dirs {
		if dir == root || strings.HasPrefix(dir, root+string(filepath.Separator)) {
			paths = append(paths, dir)
		}
	}
	for file := range m.files {
		if strings.HasPrefix(file, root+string(filepath.Separator)) {
			paths = append(paths, file)
		}
	}
	sort.Strings(paths)
	m.mu.Unlock()

	for _, path := range paths {
		entry := mockDirEntry{name: filepath.Base(path), isDir: m.isDir(path)}
		if err := fn(path, entry, nil); err != nil {
			if errors.Is(err, filepath.SkipDir) {
				continue
			}
			return err
		}
	}
	return nil
}

func (m *mockFS) ReadDir(path string) ([]fs.DirEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	if !m.isDir(path) {
		return nil, fs.ErrNotExist
	}
	seen := map[string]bool{}
	var entries []fs.DirEntry
	collect := func(child string) {
		if filepath.Dir(child) != path || seen[child] {
			return
		}
		seen[child] = true
		entries = append(entries, mockDirEntry{name: filepath.Base(child), isDir: m.isDir(child)})
	}
	for dir := range m.dirs {
		collect(dir)
	}
	for file := range m.files {
		collect(file)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

func (m *mockFS) Stat(path string) (fs.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	if data, ok := m.files[path]; ok {
		return mockFileInfo{name: filepath.Base(path), size: int64(len(data))}, nil
	}
	if m.isDir(path) {
		return mockFileInfo{name: filepath.Base(path), isDir: true}, nil
	}
	return nil, fs.ErrNotExist
}

func (m *mockFS) Open(path string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[filepath.Clean(path)]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *mockFS) Exists(path string) (bool, error) {
	_, err := m.Stat(path)
	return err == nil, nil
}

func (m *mockFS) MkdirAll(path string, perm fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for dir := filepath.Clean(path); dir != "/" && dir != "."; dir = filepath.Dir(dir) {
		m.dirs[dir] = true
	}
	return nil
}

func (m *mockFS) CopyFile(src, dst string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[filepath.Clean(src)]
	if !ok {
		return fs.ErrNotExist
	}
	m.add(dst, append([]byte(nil), data...))
	return nil
}

func (m *mockFS) WriteFile(path string, data []byte, perm fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.add(path, append([]byte(nil), data...))
	return nil
}

func (m *mockFS) remove(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, filepath.Clean(path))
}

func (m *mockFS) read(path string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[filepath.Clean(path)]
	return string(data), ok
}

type mockDirEntry struct {
	name  string
	isDir bool
}

func (m mockDirEntry) Name() string      { return m.name }
func (m mockDirEntry) IsDir() bool       { return m.isDir }
func (m mockDirEntry) Type() fs.FileMode { return 0 }
func (m mockDirEntry) Info() (fs.FileInfo, error) {
	return mockFileInfo{name: m.name, isDir: m.isDir}, nil
}

type mockFileInfo struct {
	name  string
	size  int64
	isDir bool
}

func (m mockFileInfo) Name() string       { return m.name }
func (m mockFileInfo) Size() int64        { return m.size }
func (m mockFileInfo) Mode() fs.FileMode  { return 0 }
func (m mockFileInfo) ModTime() time.Time { return time.Time{} }
func (m mockFileInfo) IsDir() bool        { return m.isDir }
func (m mockFileInfo) Sys() interface{}   { return nil }

// mockCodec "encodes" by writing a marker into the mock filesystem. Sources
// whose content is "corrupt" fail to decode; widths come from the widths map.
type mockCodec struct {
	fs      *mockFS
	widths  map[string]int
	delays  map[string]time.Duration
	mu      sync.Mutex
	encoded []string
}

func (c *mockCodec) Dimensions(ctx context.Context, path string) (int, int, error) {
	content, ok := c.fs.read(path)
	if !ok || content == "corrupt" {
		return 0, 0, errors.New("decode config: unknown format")
	}
	width := c.widths[path]
	return width, width / 2, nil
}

func (c *mockCodec) Encode(ctx context.Context, src, dst string, width, quality int) (domain.Output, error) {
	if err := ctx.Err(); err != nil {
		return domain.Output{}, err
	}
	content, ok := c.fs.read(src)
	if !ok || content == "corrupt" {
		return domain.Output{}, errors.New("decode image: unknown format")
	}
	if delay := c.delays[src]; delay > 0 {
		time.Sleep(delay)
	}
	out := width
	if w, ok := c.widths[src]; ok && w < width {
		out = w
	}
	payload := fmt.Sprintf("webp:%s:%d:%d", content, out, quality)
	if err := c.fs.WriteFile(dst, []byte(payload), 0o644); err != nil {
		return domain.Output{}, err
	}

	c.mu.Lock()
	c.encoded = append(c.encoded, dst)
	c.mu.Unlock()
	return domain.Output{Path: dst, Format: domain.OutputFormat, Width: out, Bytes: int64(len(payload))}, nil
}

func (c *mockCodec) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.encoded)
}

type memoryLedger struct {
	mu      sync.Mutex
	entries map[string]domain.LedgerEntry
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{entries: map[string]domain.LedgerEntry{}}
}

func (l *memoryLedger) Lookup(ctx context.Context, sourcePath string) (domain.LedgerEntry, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.entries[sourcePath]
	return entry, ok, nil
}

func (l *memoryLedger) Record(ctx context.Context, entry domain.LedgerEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[entry.SourcePath] = entry
	return nil
}
