package reddit

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
)

// decompressBody decodes body according to its Content-Encoding.
// Supports gzip and brotli (br); identity bodies are returned unchanged.
func decompressBody(body []byte, contentEncoding string) ([]byte, error) {
	encoding := strings.ToLower(strings.TrimSpace(contentEncoding))
	if len(body) == 0 || encoding == "" || encoding == "identity" {
		return body, nil
	}

	var reader io.Reader
	switch encoding {
	case "br":
		reader = brotli.NewReader(bytes.NewReader(body))
	case "gzip":
		gz, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip body: %w", err)
		}
		defer gz.Close()
		reader = gz
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", contentEncoding)
	}

	// Bounded read guards against compression bombs.
	decoded, err := readLimited(reader)
	if errors.Is(err, errBodyTooLarge) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decompress %s body: %w", encoding, err)
	}
	return decoded, nil
}
