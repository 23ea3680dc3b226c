// Package httpjson is the trivial one-shot JSON HTTP helper spec.md calls
// out as present in the source repo but explicitly not part of the
// Blizzard session protocol. It is deliberately minimal — stdlib
// net/http and encoding/json, no session/framing concepts involved.
package httpjson

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// PostJSON sends req (if non-nil) as a JSON body to url and decodes the
// JSON response body into resp (if non-nil). It is unrelated to
// Session/Server and exists only as the convenience the original repo
// carried alongside its protocol implementation.
func PostJSON(ctx context.Context, url string, req, resp any) error {
	var body io.Reader
	if req != nil {
		encoded, err := json.Marshal(req)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return fmt.Errorf("httpjson: unexpected status %s", httpResp.Status)
	}
	if resp == nil {
		return nil
	}
	return json.NewDecoder(httpResp.Body).Decode(resp)
}
