package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// SourceOpener resolves a source location to a reader: http(s) URLs go to
// the HTTP fetcher, ftp URLs to the FTP fetcher, everything else is a local path.
type SourceOpener struct {
	HTTP Fetcher
	FTP  Fetcher
}

// NewSourceOpener creates a SourceOpener with HTTP and FTP fetchers built from the given options.
func NewSourceOpener(httpOpts HTTPOptions, ftpOpts FTPOptions) *SourceOpener {
	return &SourceOpener{
		HTTP: NewHTTPFetcher(httpOpts),
		FTP:  NewFTPFetcher(ftpOpts),
	}
}

// Open implements Opener.
func (o *SourceOpener) Open(ctx context.Context, source string) (io.ReadCloser, error) {
	switch sourceScheme(source) {
	case "http", "https":
		if o.HTTP == nil {
			return nil, eris.Errorf("fetcher: no http fetcher configured for %s", source)
		}
		return o.HTTP.Download(ctx, source)
	case "ftp":
		if o.FTP == nil {
			return nil, eris.Errorf("fetcher: no ftp fetcher configured for %s", source)
		}
		return o.FTP.Download(ctx, source)
	case "file":
		u, err := url.Parse(source)
		if err != nil {
			return nil, eris.Wrap(err, "fetcher: parse file url")
		}
		return openFile(u.Path)
	default:
		return openFile(source)
	}
}

func openFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: open %s", path)
	}
	return f, nil
}

// sourceScheme returns the lower-cased URL scheme of source, or "" for plain
// paths. Single-letter schemes are Windows drive letters, not URLs.
func sourceScheme(source string) string {
	i := strings.Index(source, "://")
	if i <= 1 {
		return ""
	}
	return strings.ToLower(source[:i])
}
