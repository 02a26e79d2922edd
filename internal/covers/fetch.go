package covers

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SaveFrom stores an image given as a data: URI or an http(s) URL. filename
// is optional; without it the name is taken from the URL or generated.
func (s *Store) SaveFrom(ctx context.Context, src, filename string) (*Cover, error) {
	var (
		data []byte
		ext  string
		err  error
	)
	if strings.HasPrefix(src, "data:") {
		data, ext, err = DecodeDataURI(src)
	} else {
		data, ext, err = s.fetch(ctx, src)
	}
	if err != nil {
		return nil, err
	}
	if filename == "" {
		filename = filenameFromURL(src, ext)
	}
	return s.Save(filename, data)
}

// DecodeDataURI parses a data:<mediatype>;base64,<data> URI and returns the
// bytes and the extension implied by the media type.
func DecodeDataURI(uri string) ([]byte, string, error) {
	rest := strings.TrimPrefix(uri, "data:")
	meta, encoded, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("covers: invalid data URI: missing comma separator")
	}
	if !strings.Contains(meta, ";base64") {
		return nil, "", fmt.Errorf("covers: only base64 data URIs are supported")
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, "", fmt.Errorf("covers: invalid base64 data: %w", err)
		}
	}

	mime := strings.Split(strings.TrimSuffix(meta, ";base64"), ";")[0]
	ext := mimeToExt[mime]
	if ext == "" {
		return nil, "", fmt.Errorf("%w: MIME type %s", ErrUnsupported, mime)
	}
	return data, ext, nil
}

func newHTTPClient(hostCheck func(string) error) *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("covers: too many redirects (max 5)")
			}
			return hostCheck(req.URL.Hostname())
		},
	}
}

func (s *Store) fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("covers: invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, "", fmt.Errorf("covers: unsupported scheme %q (only http/https)", parsed.Scheme)
	}
	if err := s.hostCheck(parsed.Hostname()); err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("covers: build request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("covers: download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("covers: download failed: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("covers: read body failed: %w", err)
	}
	if len(data) > MaxSize {
		return nil, "", fmt.Errorf("%w: exceeds %d bytes", ErrTooLarge, MaxSize)
	}

	ext := mimeToExt[strings.Split(resp.Header.Get("Content-Type"), ";")[0]]
	return data, ext, nil
}

// CheckBlockedHost rejects hosts that resolve to loopback, private,
// link-local or unspecified addresses, and known cloud metadata names.
func CheckBlockedHost(host string) error {
	if host == "metadata.google.internal" {
		return fmt.Errorf("covers: blocked host: %s", host)
	}

	ips := []net.IP{net.ParseIP(host)}
	if ips[0] == nil {
		resolved, lookupErr := net.LookupIP(host)
		if lookupErr != nil || len(resolved) == 0 {
			return nil //nolint:nilerr // the HTTP client reports DNS failures
		}
		ips = resolved
	}

	for _, ip := range ips {
		switch {
		case ip.IsLoopback():
			return fmt.Errorf("covers: blocked host: loopback address %s", host)
		case ip.IsLinkLocalUnicast(), ip.IsLinkLocalMulticast():
			// Includes 169.254.169.254, the cloud metadata endpoint.
			return fmt.Errorf("covers: blocked host: link-local address %s", host)
		case ip.IsPrivate():
			return fmt.Errorf("covers: blocked host: private address %s", host)
		case ip.IsUnspecified():
			return fmt.Errorf("covers: blocked host: unspecified address %s", host)
		}
	}
	return nil
}

// filenameFromURL takes the last path element of a URL, falling back to a
// random name with fallbackExt.
func filenameFromURL(rawURL, fallbackExt string) string {
	if fallbackExt == "" {
		fallbackExt = ".bin"
	}
	if strings.HasPrefix(rawURL, "data:") {
		return uuid.NewString() + fallbackExt
	}
	if parsed, err := url.Parse(rawURL); err == nil {
		base := path.Base(parsed.Path)
		if base != "" && base != "." && base != "/" && strings.Contains(base, ".") {
			return base
		}
	}
	return uuid.NewString() + fallbackExt
}
