package utils

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

var versionSegment = regexp.MustCompile(`^v\d+$`)

// CloudinaryUploader stores event images in a single Cloudinary folder.
type CloudinaryUploader struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryUploader(cloudName, apiKey, apiSecret, folder string) (*CloudinaryUploader, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary config error: %w", err)
	}
	return &CloudinaryUploader{cld: cld, folder: folder}, nil
}

// Upload sends one image and returns its https URL.
func (u *CloudinaryUploader) Upload(ctx context.Context, file io.Reader) (string, error) {
	uploadResp, err := u.cld.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder:       u.folder,
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("upload error: %w", err)
	}
	if uploadResp.Error.Message != "" {
		return "", fmt.Errorf("upload error: %s", uploadResp.Error.Message)
	}

	return uploadResp.SecureURL, nil
}

// Destroy deletes a previously uploaded image using its full URL.
func (u *CloudinaryUploader) Destroy(ctx context.Context, imageURL string) error {
	publicID, err := ExtractPublicID(imageURL)
	if err != nil {
		return fmt.Errorf("could not extract public ID: %w", err)
	}

	resp, err := u.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID: publicID,
	})
	if err != nil {
		return fmt.Errorf("delete error: %w", err)
	}
	if resp.Error.Message != "" {
		return fmt.Errorf("delete error: %s", resp.Error.Message)
	}

	return nil
}

// ExtractPublicID turns a delivery URL into the public ID Cloudinary expects.
//
//	https://res.cloudinary.com/demo/image/upload/v1234567890/events/abc123.jpg -> events/abc123
func ExtractPublicID(imageURL string) (string, error) {
	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return "", err
	}

	parts := strings.Split(strings.Trim(parsedURL.Path, "/"), "/")
	start := -1
	for i, p := range parts {
		if p == "upload" {
			start = i + 1
			break
		}
	}
	if start < 0 || start >= len(parts) {
		return "", fmt.Errorf("invalid cloudinary URL format")
	}

	rest := parts[start:]
	if len(rest) > 1 && versionSegment.MatchString(rest[0]) {
		rest = rest[1:]
	}

	last := rest[len(rest)-1]
	rest[len(rest)-1] = strings.TrimSuffix(last, path.Ext(last))
	return path.Join(rest...), nil
}
