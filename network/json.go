package network

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/anisan-cli/anistream/source"
	"github.com/anisan-cli/anistream/util"
)

// maxJSONBody caps how much of an upstream JSON payload is read.
const maxJSONBody = 32 << 20

// FetchJSON fetches req and decodes the JSON body into v. A body that is
// empty or not valid JSON is reported as source.ErrMalformed.
func (f *Fetcher) FetchJSON(ctx context.Context, req Request, v any) error {
	if req.Header == nil {
		req.Header = make(map[string][]string)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	data, err := f.FetchBytes(ctx, req)
	if err != nil {
		return err
	}

	if len(data) == 0 {
		return source.Malformed("%s: %v", req.URL, ErrEmptyBody)
	}

	if err := json.Unmarshal(data, v); err != nil {
		return source.Malformed("%s: %v", req.URL, err)
	}

	return nil
}

// FetchBytes fetches req and returns the decoded body.
func (f *Fetcher) FetchBytes(ctx context.Context, req Request) ([]byte, error) {
	resp, err := f.Fetch(ctx, req)
	if err != nil {
		return nil, err
	}
	defer util.Ignore(resp.Body.Close)

	body, _, err := Decode(resp.Body, resp.Header.Get("Content-Encoding"))
	if err != nil {
		return nil, source.Malformed("%s: %v", req.URL, err)
	}

	data, err := io.ReadAll(io.LimitReader(body, maxJSONBody))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", req.URL, err)
	}

	return data, nil
}
