package descriptor

import (
	"context"
	"io/fs"
	"net/http"
	"time"
)

// Loader fetches a descriptor Document. internal/loader has the stock
// implementation; NewLoader in the root package builds it.
type Loader interface {
	Load(ctx context.Context, src Source) (Document, error)
}

// LoaderOptions is the resolved configuration of a Loader.
type LoaderOptions struct {
	FileSystem        fs.FS         // read by SourceFromFS
	HTTPClient        *http.Client  // nil leaves URL sources disabled
	AllowHTTPFallback bool          // build a client when HTTPClient is nil
	RequestTimeout    time.Duration // applied to clients without a Timeout
}

type LoaderOption func(*LoaderOptions)

func WithFileSystem(files fs.FS) LoaderOption {
	return func(o *LoaderOptions) { o.FileSystem = files }
}

func WithHTTPClient(client *http.Client) LoaderOption {
	return func(o *LoaderOptions) { o.HTTPClient = client }
}

// WithHTTPFallback turns URL sources on with a default client bounded by
// timeout.
func WithHTTPFallback(timeout time.Duration) LoaderOption {
	return func(o *LoaderOptions) {
		o.AllowHTTPFallback = true
		o.RequestTimeout = timeout
	}
}

func NewLoaderOptions(options ...LoaderOption) LoaderOptions {
	var opts LoaderOptions
	for _, apply := range options {
		if apply != nil {
			apply(&opts)
		}
	}
	return opts
}
