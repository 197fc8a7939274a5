package app

import (
	"context"
	"errors"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	appErrors "assetopt/internal/errors"
	"assetopt/internal/logging"
)

// Publisher mirrors the destination tree into object storage.
type Publisher struct {
	FS       FileSystem
	Uploader Uploader
	Prefix   string
	OnUpload func(key string)
	Logger   logging.Logger
}

type PublishResult struct {
	Uploaded int
	Bytes    int64
}

// Publish uploads every file under root except dot files (ledger, temp files).
// The first failed upload stops the run.
func (p *Publisher) Publish(ctx context.Context, root string) (PublishResult, error) {
	var result PublishResult
	if p.FS == nil || p.Uploader == nil {
		return result, errors.New("publisher requires FS and Uploader")
	}

	stop := p.Logger.Measure("Publishing")
	defer stop()

	err := p.FS.WalkDir(root, func(filePath string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && filePath != root {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		key := ObjectKey(p.Prefix, relativeTo(root, filePath))
		if err := p.Uploader.Upload(ctx, key, filePath, ContentType(filePath)); err != nil {
			return appErrors.Wrap(appErrors.IOFailure, "upload", filePath, err)
		}
		if info, err := d.Info(); err == nil && info != nil {
			result.Bytes += info.Size()
		}
		result.Uploaded++
		if p.OnUpload != nil {
			p.OnUpload(key)
		}
		return nil
	})
	if err != nil {
		return result, enumerationError(root, err)
	}
	return result, nil
}

// ObjectKey joins prefix and a relative file path into a slash-separated key.
func ObjectKey(prefix, rel string) string {
	return strings.TrimPrefix(path.Join(strings.Trim(prefix, "/"), filepath.ToSlash(rel)), "/")
}

func ContentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".webp":
		return "image/webp"
	case ".svg":
		return "image/svg+xml"
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
