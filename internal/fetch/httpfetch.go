package fetch

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// HTTPFetcher is the last-resort strategy: a plain GET with a real browser
// user agent, exponential backoff, and a one-time unverified-TLS retry for
// venues running on expired certificates.
type HTTPFetcher struct {
	Proxy string
	Log   zerolog.Logger

	client         *http.Client
	insecureClient *http.Client
}

// NewHTTPFetcher builds the fetcher, routing through proxy when non-empty.
func NewHTTPFetcher(proxy string) *HTTPFetcher {
	f := &HTTPFetcher{Proxy: proxy}
	f.client = f.newClient(false)
	f.insecureClient = f.newClient(true)
	return f
}

func (f *HTTPFetcher) newClient(insecure bool) *http.Client {
	transport := &http.Transport{}
	if insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	if f.Proxy != "" {
		if u, err := url.Parse(f.Proxy); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{Timeout: 60 * time.Second, Transport: transport}
}

type httpResult struct {
	body        []byte
	contentType string
}

// Get fetches url, retrying transient failures up to three attempts. A TLS
// verification failure triggers a single retry without verification before
// giving up.
func (f *HTTPFetcher) Get(ctx context.Context, rawURL string) ([]byte, string, error) {
	res, err := backoff.RetryWithData(func() (httpResult, error) {
		return f.getOnce(ctx, f.client, rawURL)
	}, backoff.WithContext(newBackOff(2), ctx))
	if err == nil {
		return res.body, res.contentType, nil
	}

	if isTLSError(err) {
		f.Log.Warn().Str("url", rawURL).Msg("TLS verification failed, retrying without verification")
		res, retryErr := f.getOnce(ctx, f.insecureClient, rawURL)
		if retryErr == nil {
			return res.body, res.contentType, nil
		}
	}
	return nil, "", err
}

func (f *HTTPFetcher) getOnce(ctx context.Context, client *http.Client, rawURL string) (httpResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return httpResult{}, backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("User-Agent", browserUA)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/pdf;q=0.9,*/*;q=0.8")

	resp, err := client.Do(req)
	if err != nil {
		if isTLSError(err) {
			// Retrying with the same client cannot fix a cert problem.
			return httpResult{}, backoff.Permanent(err)
		}
		return httpResult{}, fmt.Errorf("get %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		err := fmt.Errorf("get %s: status %d", rawURL, resp.StatusCode)
		if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return httpResult{}, backoff.Permanent(err)
		}
		return httpResult{}, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 20<<20))
	if err != nil {
		return httpResult{}, fmt.Errorf("read body: %w", err)
	}
	return httpResult{body: body, contentType: resp.Header.Get("Content-Type")}, nil
}

func isTLSError(err error) bool {
	var certErr *tls.CertificateVerificationError
	var unknownAuth x509.UnknownAuthorityError
	var hostErr x509.HostnameError
	if errors.As(err, &certErr) || errors.As(err, &unknownAuth) || errors.As(err, &hostErr) {
		return true
	}
	return strings.Contains(err.Error(), "certificate")
}
