package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
)

// Download stores the file behind outputURL at dest. When dest is empty or an
// existing directory the file name is taken from the URL. It returns the
// written path and its size.
func (c *Client) Download(ctx context.Context, outputURL, dest string) (string, int64, error) {
	if outputURL == "" {
		return "", 0, errors.New("empty output url")
	}
	target := c.ResolveURL(outputURL)

	dest, err := downloadPath(target, dest)
	if err != nil {
		return "", 0, err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(target)
	if err != nil {
		return "", 0, fmt.Errorf("could not send request: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.IsError() {
		detail, _ := io.ReadAll(io.LimitReader(body, 4096))
		return "", 0, &APIError{StatusCode: resp.StatusCode(), Detail: errorDetail(detail)}
	}

	f, err := os.Create(dest) //nolint:gosec // user-provided destination
	if err != nil {
		return "", 0, fmt.Errorf("could not create file: %w", err)
	}
	n, err := io.Copy(f, body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dest)
		return "", 0, fmt.Errorf("could not write file: %w", err)
	}

	c.log.WithField("file", dest).WithField("size", n).Debug("download finished")
	return dest, n, nil
}

func downloadPath(target, dest string) (string, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("invalid output url: %w", err)
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" {
		return "", fmt.Errorf("output url %q has no file name", target)
	}

	if dest == "" {
		return name, nil
	}
	if info, err := os.Stat(dest); err == nil && info.IsDir() {
		return filepath.Join(dest, name), nil
	}
	return dest, nil
}
