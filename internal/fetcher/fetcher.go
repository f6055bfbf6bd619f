package fetcher

import (
	"context"
	"io"
)

// Fetcher defines the interface for downloading remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}

// Opener opens a data source by location. The caller must close the reader.
type Opener interface {
	Open(ctx context.Context, source string) (io.ReadCloser, error)
}
