// Package wiki speaks the MediaWiki query API: batched langlinks lookups
// for cross-lingual title resolution and category-member listings for
// subject filtering. Paging runs as a bounded loop over opaque continue
// tokens; rate limiting is absorbed by randomized backoff.
package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	langfxcore "github.com/termfx/langfx/internal/core"
	"github.com/termfx/langfx/internal/model"
)

const (
	// DefaultBaseURL is a printf pattern taking the language subdomain.
	DefaultBaseURL = "https://%s.wikipedia.org/w/api.php"
	// BatchSize is the number of titles joined into one langlinks request.
	BatchSize = 40

	defaultTimeout = 5 * time.Second
	maxRetries     = 4
)

// Client is a stateless API client. The zero value is not usable; call
// NewClient.
type Client struct {
	// HTTPClient carries the request timeout.
	HTTPClient *http.Client
	// BaseURL is a printf pattern with one %s slot for the language code.
	BaseURL string
	// MaxRetries bounds 429 retry attempts per request.
	MaxRetries uint64
}

// NewClient returns a client with the production endpoint and a finite
// request timeout.
func NewClient() *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: defaultTimeout},
		BaseURL:    DefaultBaseURL,
		MaxRetries: maxRetries,
	}
}

func (c *Client) endpoint(lang string) string {
	return fmt.Sprintf(c.BaseURL, lang)
}

// apiResponse is the subset of the query API response the pipeline reads.
type apiResponse struct {
	Continue map[string]string `json:"continue"`
	Query    struct {
		Pages           []apiPage   `json:"pages"`
		CategoryMembers []apiMember `json:"categorymembers"`
	} `json:"query"`
}

type apiPage struct {
	Title     string        `json:"title"`
	Langlinks []apiLanglink `json:"langlinks"`
}

type apiLanglink struct {
	Lang  string `json:"lang"`
	Title string `json:"title"`
}

type apiMember struct {
	Title string `json:"title"`
}

// get performs one API request with retry on 429 and on transport errors.
// Other non-2xx statuses fail the batch permanently.
func (c *Client) get(ctx context.Context, lang string, params url.Values) (*apiResponse, error) {
	var res *apiResponse

	op := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(lang)+"?"+params.Encode(), nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			io.Copy(io.Discard, resp.Body)
			return model.ErrRateLimited
		}
		if resp.StatusCode != http.StatusOK {
			return backoff.Permanent(langfxcore.CLIError{
				Code:    langfxcore.ErrHTTP,
				Message: fmt.Sprintf("%s returned status %d", c.endpoint(lang), resp.StatusCode),
			})
		}

		var decoded apiResponse
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return backoff.Permanent(langfxcore.Wrap(langfxcore.ErrHTTP, "decoding response", err))
		}
		res = &decoded
		return nil
	}

	// each retry waits a uniformly random 1–10 s: 5.5 s ± 4.5 s, no growth
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 5500 * time.Millisecond
	bo.RandomizationFactor = 4.5 / 5.5
	bo.Multiplier = 1
	bo.MaxInterval = 10 * time.Second

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, c.retries()), ctx))
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) retries() uint64 {
	if c.MaxRetries == 0 {
		return maxRetries
	}
	return c.MaxRetries
}
