package network

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

// AcceptEncoding lists the content codings Decode understands.
const AcceptEncoding = "gzip, deflate, br, zstd"

// Decode wraps body with a reader for the given Content-Encoding. Identity
// and unknown encodings return body unchanged with ok set to false.
func Decode(body io.Reader, encoding string) (r io.Reader, ok bool, err error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "br":
		return brotli.NewReader(body), true, nil
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(body)
		if err != nil {
			return nil, false, fmt.Errorf("gzip: %w", err)
		}
		return zr, true, nil
	case "deflate":
		// Servers disagree on whether deflate means zlib-wrapped or raw.
		br := bufio.NewReader(body)
		head, _ := br.Peek(2)
		if len(head) == 2 && head[0]&0x0f == 8 && (uint16(head[0])<<8|uint16(head[1]))%31 == 0 {
			zr, err := zlib.NewReader(br)
			if err != nil {
				return nil, false, fmt.Errorf("deflate: %w", err)
			}
			return zr, true, nil
		}
		return flate.NewReader(br), true, nil
	case "zstd":
		zr, err := zstd.NewReader(body)
		if err != nil {
			return nil, false, fmt.Errorf("zstd: %w", err)
		}
		return zr.IOReadCloser(), true, nil
	default:
		return body, false, nil
	}
}
