package capture

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxExternalFrameBytes = 16 << 20

// HTTPFrameFunc polls url for frames. The endpoint may answer with a data URI,
// bare base64 text, or raw image bytes.
func HTTPFrameFunc(url string, client *http.Client) FrameFunc {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return func(ctx context.Context) (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return "", err
		}

		resp, err := client.Do(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusNoContent {
			return "", nil
		}
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("frame source returned status %d", resp.StatusCode)
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxExternalFrameBytes))
		if err != nil {
			return "", err
		}

		if strings.HasPrefix(resp.Header.Get("Content-Type"), "image/") {
			return base64.StdEncoding.EncodeToString(body), nil
		}
		return strings.TrimSpace(string(body)), nil
	}
}
