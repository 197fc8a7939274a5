package app

import (
	"context"
	"io"
	"io/fs"

	"assetopt/internal/domain"
)

type FileSystem interface {
	WalkDir(root string, fn fs.WalkDirFunc) error
	ReadDir(path string) ([]fs.DirEntry, error)
	Stat(path string) (fs.FileInfo, error)
	Open(path string) (io.ReadCloser, error)
	Exists(path string) (bool, error)
	MkdirAll(path string, perm fs.FileMode) error
	CopyFile(src, dst string) error
	WriteFile(path string, data []byte, perm fs.FileMode) error
}

type ImageCodec interface {
	Dimensions(ctx context.Context, path string) (int, int, error)
	Encode(ctx context.Context, src, dst string, width, quality int) (domain.Output, error)
}

type Ledger interface {
	Lookup(ctx context.Context, sourcePath string) (domain.LedgerEntry, bool, error)
	Record(ctx context.Context, entry domain.LedgerEntry) error
}

type Uploader interface {
	Upload(ctx context.Context, key, path, contentType string) error
}
