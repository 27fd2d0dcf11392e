package utils

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jiaming2012/options-screener/src/eventmodels"
)

const maxErrorBodyLength = 256

// Get issues a GET with the given headers and returns the body. Any non-200
// status becomes an *eventmodels.ProviderError tagged with provider.
func Get(ctx context.Context, client *http.Client, provider, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", provider, err)
	}

	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return Do(client, provider, req)
}

func Do(client *http.Client, provider string, req *http.Request) ([]byte, error) {
	res, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to send request: %w", provider, err)
	}

	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read response body: %w", provider, err)
	}

	if res.StatusCode != http.StatusOK {
		msg := strings.TrimSpace(string(body))
		if len(msg) > maxErrorBodyLength {
			msg = msg[:maxErrorBodyLength]
		}

		return nil, eventmodels.NewProviderError(provider, res.StatusCode, msg)
	}

	return body, nil
}
