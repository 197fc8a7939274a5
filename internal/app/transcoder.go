package app

import (
	"context"
	"errors"
	"path/filepath"

	"assetopt/internal/domain"
	appErrors "assetopt/internal/errors"
)

// Transcoder converts a single planned job into its destination file.
type Transcoder struct {
	FS    FileSystem
	Codec ImageCodec
}

// Transcode writes job's destination. Vector sources are copied unchanged;
// rasters are resized to the preset width (never enlarged) and re-encoded.
// Errors are wrapped with their kind and left for the caller to record.
func (t Transcoder) Transcode(ctx context.Context, job domain.Job) (domain.Output, error) {
	if t.FS == nil || t.Codec == nil {
		return domain.Output{}, errors.New("transcoder requires FS and Codec")
	}

	src := job.Source.Path
	dest := job.Destination.Path
	if err := t.FS.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return domain.Output{}, appErrors.Wrap(appErrors.IOFailure, "mkdir", filepath.Dir(dest), err)
	}

	if job.Classification.Passthrough {
		if err := t.FS.CopyFile(src, dest); err != nil {
			return domain.Output{}, appErrors.Wrap(appErrors.IOFailure, "copy", src, err)
		}
		out := domain.Output{Path: dest, Format: job.Destination.Format}
		if info, err := t.FS.Stat(dest); err == nil {
			out.Bytes = info.Size()
		}
		return out, nil
	}

	out, err := t.Codec.Encode(ctx, src, dest, job.Preset.Width, job.Preset.Quality)
	if err != nil {
		if isCanceled(err) {
			return domain.Output{}, appErrors.Wrap(appErrors.Canceled, "transcode", src, err)
		}
		return domain.Output{}, appErrors.Wrap(appErrors.CodecFailure, "transcode", src, err)
	}
	return out, nil
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
