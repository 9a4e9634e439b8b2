package corpus

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// Size limits keep a bad source from exhausting memory.
const (
	MaxFileSizeBytes = 200 * 1024 * 1024
	MaxHTTPSizeBytes = 200 * 1024 * 1024
)

// HTTPRequestTimeout bounds the whole download of a remote corpus.
const HTTPRequestTimeout = 60 * time.Second

var (
	httpDialTimeout           = HTTPRequestTimeout / 6
	httpTLSTimeout            = HTTPRequestTimeout / 6
	httpResponseHeaderTimeout = HTTPRequestTimeout / 2
)

// limitedReadCloser fails reads once more than N bytes have been consumed.
type limitedReadCloser struct {
	io.ReadCloser
	N      int64
	source string
}

func (l *limitedReadCloser) Read(p []byte) (n int, err error) {
	if l.N <= 0 {
		return 0, fmt.Errorf("corpus %q exceeds size limit", l.source)
	}
	if int64(len(p)) > l.N {
		p = p[0:l.N]
	}
	n, err = l.ReadCloser.Read(p)
	l.N -= int64(n)
	return
}

var httpClient = &http.Client{
	Timeout: HTTPRequestTimeout,
	Transport: &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: httpDialTimeout,
		}).DialContext,
		TLSHandshakeTimeout:   httpTLSTimeout,
		ResponseHeaderTimeout: httpResponseHeaderTimeout,
	},
}

// Open returns a reader for a corpus source:
//   - "-" reads from standard input
//   - "http://" and "https://" sources are downloaded
//   - everything else is a local file path
func Open(ctx context.Context, source string) (io.ReadCloser, error) {
	switch {
	case source == "":
		return nil, fmt.Errorf("empty corpus source")
	case source == "-":
		return &limitedReadCloser{
			ReadCloser: io.NopCloser(os.Stdin),
			N:          MaxFileSizeBytes,
			source:     "stdin",
		}, nil
	case strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://"):
		return openURL(ctx, source)
	default:
		return openFile(source)
	}
}

// Load opens and parses a corpus source.
func Load(ctx context.Context, source string) (Corpus, []RowWarning, error) {
	rc, err := Open(ctx, source)
	if err != nil {
		return nil, nil, err
	}
	defer rc.Close()

	c, warnings, err := Read(rc)
	if err != nil {
		return nil, warnings, fmt.Errorf("corpus %q: %w", source, err)
	}
	return c, warnings, nil
}

func openURL(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for URL %q: %w", url, err)
	}
	req.Header.Set("User-Agent", "spamsift/0.1")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL %q: %w", url, err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP request failed for URL %q: status %d", url, resp.StatusCode)
	}

	if contentLength := resp.Header.Get("Content-Length"); contentLength != "" {
		if size, err := strconv.ParseInt(contentLength, 10, 64); err == nil && size > MaxHTTPSizeBytes {
			resp.Body.Close()
			return nil, fmt.Errorf("corpus at %q too large (%d bytes > %d bytes limit)", url, size, MaxHTTPSizeBytes)
		}
	}

	return &limitedReadCloser{
		ReadCloser: resp.Body,
		N:          MaxHTTPSizeBytes,
		source:     url,
	}, nil
}

func openFile(path string) (io.ReadCloser, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("corpus file %q does not exist", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to access corpus file %q: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("corpus path %q is a directory", path)
	}
	if info.Size() > MaxFileSizeBytes {
		return nil, fmt.Errorf("corpus file %q is too large (%d bytes > %d bytes limit)",
			path, info.Size(), MaxFileSizeBytes)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus file %q: %w", path, err)
	}
	return f, nil
}
