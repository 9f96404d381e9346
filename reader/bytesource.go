package reader

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
)

// ByteSource is the reader's input abstraction (spec §4.3): a single
// fetch(offset, length) operation. The local-file and range-HTTP variants
// both implement it.
type ByteSource interface {
	Fetch(offset, length uint64) ([]byte, error)
}

// FetchError is the error the ByteSource implementations in this package
// return when a fetch fails; it records the requested range and wraps the
// underlying error.
type FetchError struct {
	Offset, Length uint64
	Err            error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("swtiles: fetch(offset=%d, length=%d) failed: %v", e.Offset, e.Length, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// FileByteSource fetches byte ranges from a local file via positioned reads.
type FileByteSource struct {
	file *os.File
}

// OpenFile opens filePath for random access.
func OpenFile(filePath string) (*FileByteSource, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	return &FileByteSource{file: f}, nil
}

func (s *FileByteSource) Fetch(offset, length uint64) ([]byte, error) {
	buf := make([]byte, length)
	n, err := s.file.ReadAt(buf, int64(offset))
	if err != nil && err != io.EOF {
		return nil, &FetchError{offset, length, err}
	}
	return buf[:n], nil
}

func (s *FileByteSource) Close() error {
	return s.file.Close()
}

// HTTPByteSource fetches byte ranges from a range-capable HTTP URL.
type HTTPByteSource struct {
	client *http.Client
	url    string
}

// NewHTTPByteSource creates a byte source against a remote URL. If client
// is nil, http.DefaultClient is used.
func NewHTTPByteSource(url string, client *http.Client) *HTTPByteSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPByteSource{client: client, url: url}
}

func (s *HTTPByteSource) Fetch(offset, length uint64) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, s.url, nil)
	if err != nil {
		return nil, &FetchError{offset, length, err}
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", offset, offset+length-1))

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &FetchError{offset, length, err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		return nil, &FetchError{offset, length, fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	// Accept a wildcard total in Content-Range (spec.md §9 open question):
	// "Content-Range: bytes {start}-{end}/*" is a valid response and must
	// not be treated as malformed.
	if cr := resp.Header.Get("Content-Range"); cr != "" {
		if _, err := parseContentRange(cr); err != nil {
			return nil, &FetchError{offset, length, err}
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{offset, length, err}
	}

	// A server that ignores the Range header and answers 200 sends the
	// whole object from byte 0; slice it down to the requested window so
	// the caller still sees fetch(offset, length)'s contract. A 206
	// response is already scoped to the range and is returned verbatim.
	if resp.StatusCode == http.StatusOK {
		start := offset
		if start > uint64(len(data)) {
			start = uint64(len(data))
		}
		end := start + length
		if end > uint64(len(data)) {
			end = uint64(len(data))
		}
		data = data[start:end]
	}

	return data, nil
}

func parseContentRange(cr string) (total string, err error) {
	const prefix = "bytes "
	if !strings.HasPrefix(cr, prefix) {
		return "", fmt.Errorf("malformed Content-Range: %q", cr)
	}
	parts := strings.SplitN(cr[len(prefix):], "/", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("malformed Content-Range: %q", cr)
	}
	total = parts[1]
	if total == "*" {
		return total, nil
	}
	if _, err := strconv.ParseUint(total, 10, 64); err != nil {
		return "", fmt.Errorf("malformed Content-Range total: %q", cr)
	}
	return total, nil
}
