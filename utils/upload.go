package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"
)

// ImageUploader is the media-hosting boundary. CloudinaryUploader is the
// production implementation.
type ImageUploader interface {
	Upload(ctx context.Context, file io.Reader) (string, error)
	Destroy(ctx context.Context, imageURL string) error
}

// UploadMany uploads every file concurrently and returns the hosted URLs in
// the same order as files. If any upload fails no URLs are returned.
func UploadMany(ctx context.Context, up ImageUploader, files [][]byte) ([]string, error) {
	urls := make([]string, len(files))
	if len(files) == 0 {
		return urls, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, file := range files {
		g.Go(func() error {
			u, err := up.Upload(gctx, bytes.NewReader(file))
			if err != nil {
				return fmt.Errorf("image %d: %w", i+1, err)
			}
			urls[i] = u
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return urls, nil
}

// DiscardImages removes hosted images, attempting every URL even when some fail.
func DiscardImages(ctx context.Context, up ImageUploader, urls []string) error {
	var errs []error
	for _, u := range urls {
		if err := up.Destroy(ctx, u); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", u, err))
		}
	}
	return errors.Join(errs...)
}
