package backend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/kozaktomas/faceswap/internal/constants"
)

// ErrUnsupportedFormat is returned for files the backend refuses by extension.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// UploadResult is the backend's answer to an upload.
type UploadResult struct {
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
}

// UploadVideo uploads the target video.
func (c *Client) UploadVideo(ctx context.Context, path string) (*UploadResult, error) {
	return c.upload(ctx, "/api/upload/video", path, constants.VideoExtensions)
}

// UploadImage uploads the source face image.
func (c *Client) UploadImage(ctx context.Context, path string) (*UploadResult, error) {
	return c.upload(ctx, "/api/upload/image", path, constants.ImageExtensions)
}

// CheckExtension verifies that the file name has one of the allowed extensions.
func CheckExtension(path string, allowed []string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !slices.Contains(allowed, ext) {
		return fmt.Errorf("%w: %q, expected one of %s", ErrUnsupportedFormat, filepath.Base(path), strings.Join(allowed, " "))
	}
	return nil
}

func (c *Client) upload(ctx context.Context, endpoint, path string, allowed []string) (*UploadResult, error) {
	if err := CheckExtension(path, allowed); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("could not open file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	c.log.WithField("file", filepath.Base(path)).WithField("size", info.Size()).Debug("uploading file")

	var result UploadResult
	resp, err := c.http.R().
		SetContext(ctx).
		SetFile("file", path).
		SetResult(&result).
		Post(endpoint)
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	if err := checkResponse(resp); err != nil {
		return nil, err
	}
	if result.FileID == "" {
		return nil, errors.New("upload response carries no file_id")
	}
	return &result, nil
}
