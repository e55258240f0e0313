// Package loader reads descriptor documents from disk, an fs.FS or an
// HTTP(S) endpoint.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"

	"github.com/goliatone/go-gravityforms/pkg/descriptor"
)

// maxRemoteBytes caps a descriptor fetched over HTTP.
const maxRemoteBytes = 8 << 20

var errHTTPDisabled = errors.New("http support disabled")

// Loader implements descriptor.Loader. URL sources need an HTTP client,
// either passed in or built by WithHTTPFallback.
type Loader struct {
	files  fs.FS
	client *http.Client
}

var _ descriptor.Loader = (*Loader)(nil)

func New(opts descriptor.LoaderOptions) *Loader {
	l := &Loader{files: opts.FileSystem}
	switch {
	case opts.HTTPClient != nil:
		client := *opts.HTTPClient
		if client.Timeout == 0 {
			client.Timeout = opts.RequestTimeout
		}
		l.client = &client
	case opts.AllowHTTPFallback:
		l.client = &http.Client{Timeout: opts.RequestTimeout}
	}
	return l
}

func NewWithOptions(options ...descriptor.LoaderOption) *Loader {
	return New(descriptor.NewLoaderOptions(options...))
}

func (l *Loader) Load(ctx context.Context, src descriptor.Source) (descriptor.Document, error) {
	if src == nil {
		return descriptor.Document{}, errors.New("descriptor loader: source is nil")
	}
	if err := ctx.Err(); err != nil {
		return descriptor.Document{}, err
	}

	location := src.Location()
	if location == "" {
		return descriptor.Document{}, fmt.Errorf("descriptor loader: empty %s location", src.Kind())
	}

	var (
		raw []byte
		err error
	)
	switch src.Kind() {
	case descriptor.SourceKindFile:
		raw, err = os.ReadFile(location)
	case descriptor.SourceKindFS:
		if l.files == nil {
			err = errors.New("no filesystem configured")
		} else {
			raw, err = fs.ReadFile(l.files, location)
		}
	case descriptor.SourceKindURL:
		raw, err = l.fetch(ctx, location)
	default:
		err = fmt.Errorf("unsupported source kind %q", src.Kind())
	}
	if err != nil {
		return descriptor.Document{}, fmt.Errorf("descriptor loader: %s: %w", location, err)
	}
	return descriptor.NewDocument(src, raw)
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	if l.client == nil {
		return nil, errHTTPDisabled
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9, */*;q=0.5")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteBytes+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxRemoteBytes {
		return nil, fmt.Errorf("document larger than %d bytes", maxRemoteBytes)
	}
	return body, nil
}
