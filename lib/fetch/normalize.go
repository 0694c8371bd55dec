package fetch

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/go-resty/resty/v2"
)

// Normalize decodes a raw response body into clean UTF-8 text. The
// strategies advertise `Accept-Encoding: gzip, deflate, br`, which
// turns off Go's automatic gunzip, so all three codings are handled
// here. When decoding fails the fallback (the transport's own
// rendering of the body) is used rather than failing the fetch, and
// invalid UTF-8 sequences are replaced instead of rejected.
func Normalize(raw []byte, contentEncoding string, fallback string) string {
	text := fallback
	decoded, err := decodeBody(raw, contentEncoding)
	if err == nil {
		text = string(decoded)
	}
	return strings.ToValidUTF8(text, "�")
}

func decodeBody(raw []byte, contentEncoding string) ([]byte, error) {
	coding := strings.ToLower(contentEncoding)
	switch {
	case strings.Contains(coding, "br"):
		return io.ReadAll(brotli.NewReader(bytes.NewReader(raw)))
	case strings.Contains(coding, "gzip"):
		r, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case strings.Contains(coding, "deflate"):
		r := flate.NewReader(bytes.NewReader(raw))
		defer r.Close()
		return io.ReadAll(r)
	default:
		return raw, nil
	}
}

// resultFromResponse turns an HTTP response into a Result, rejecting
// error statuses and empty bodies so the chain moves on to the next
// strategy.
func resultFromResponse(resp *resty.Response, strategy string) (*Result, error) {
	if resp.IsError() {
		return nil, fmt.Errorf("status %s", resp.Status())
	}
	if len(resp.Body()) == 0 {
		return nil, fmt.Errorf("empty response body")
	}
	body := Normalize(resp.Body(), resp.Header().Get("Content-Encoding"), resp.String())
	return &Result{Body: body, Strategy: strategy}, nil
}
