package collector

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/geoinv/internal/utils"
)

// maxBodyBytes caps a capabilities document; larger bodies fail to decode.
const maxBodyBytes = 64 << 20

func newHTTPClient(timeout time.Duration, skipTLS bool) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout: timeout,
			TLSClientConfig: &tls.Config{
				MinVersion:         tls.VersionTLS12,
				InsecureSkipVerify: skipTLS, //nolint:gosec // public geoservers often serve broken chains
			},
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// get performs one GET and returns the body and the time spent.
// Every failure is a *FetchError.
func get(ctx context.Context, client *http.Client, url string) ([]byte, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, 0, &FetchError{Kind: KindNetwork, URL: url, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/xml, text/xml;q=0.9, */*;q=0.1")

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, time.Since(start), &FetchError{Kind: KindNetwork, URL: url, Err: err}
	}
	defer utils.DrainClose(resp.Body, 4<<10)

	if resp.StatusCode != http.StatusOK {
		return nil, time.Since(start), &FetchError{Kind: KindStatus, URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, time.Since(start), &FetchError{Kind: KindNetwork, URL: url, Err: fmt.Errorf("failed to read body: %w", err)}
	}
	return body, time.Since(start), nil
}
