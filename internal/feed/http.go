package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/conn-castle/package-console/internal/messages"
)

const requestRetryCount = 1

var retryDelay = 250 * time.Millisecond

// HTTPOptions configures an HTTPClient.
type HTTPOptions struct {
	// Client overrides the HTTP client; nil uses a client with a 30s timeout.
	Client    *http.Client
	UserAgent string
}

// StatusError reports a non-success response from the feed.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf(messages.FeedStatusErrFmt, e.URL, e.Status)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// HTTPClient talks to a feed server.
//
//	GET {base}/search?q=&skip=&take=&prerelease=&delisted=&framework=
//	GET {base}/packages/{id}/versions?prerelease=&delisted=&framework=
type HTTPClient struct {
	base      *url.URL
	client    *http.Client
	userAgent string
}

// NewHTTPClient returns a client for the feed rooted at baseURL.
func NewHTTPClient(baseURL string, opts HTTPOptions) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf(messages.FeedInvalidBaseURLFmt, baseURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf(messages.FeedInvalidBaseURLFmt, baseURL, errors.New("scheme and host are required"))
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	agent := opts.UserAgent
	if agent == "" {
		agent = "pmc"
	}
	return &HTTPClient{base: u, client: client, userAgent: agent}, nil
}

type listResponse struct {
	Data []metadataJSON `json:"data"`
}

// Search implements Client.
func (c *HTTPClient) Search(ctx context.Context, query string, filter SearchFilter, skip int, take int) ([]Metadata, error) {
	params := filterQuery(filter)
	params.Set("q", query)
	params.Set("skip", strconv.Itoa(skip))
	params.Set("take", strconv.Itoa(take))
	return c.list(ctx, c.endpoint(params, "search"))
}

// Versions implements Client. An unknown package yields an empty list.
func (c *HTTPClient) Versions(ctx context.Context, id string, filter SearchFilter) ([]Metadata, error) {
	list, err := c.list(ctx, c.endpoint(filterQuery(filter), "packages", id, "versions"))
	if IsStatus(err, http.StatusNotFound) {
		return nil, nil
	}
	return list, err
}

func (c *HTTPClient) endpoint(params url.Values, segments ...string) string {
	u := c.base.JoinPath(segments...)
	u.RawQuery = params.Encode()
	return u.String()
}

func filterQuery(filter SearchFilter) url.Values {
	params := url.Values{}
	if filter.IncludePrerelease {
		params.Set("prerelease", "true")
	}
	if filter.IncludeDelisted {
		params.Set("delisted", "true")
	}
	for _, fw := range filter.TargetFrameworks {
		params.Add("framework", fw)
	}
	return params
}

func (c *HTTPClient) list(ctx context.Context, endpoint string) ([]Metadata, error) {
	for attempt := 0; attempt <= requestRetryCount; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, fmt.Errorf(messages.FeedCreateRequestErrFmt, err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.client.Do(req)
		if err != nil {
			if shouldRetry(err, 0, attempt) {
				time.Sleep(retryDelay)
				continue
			}
			return nil, fmt.Errorf(messages.FeedRequestErrFmt, endpoint, err)
		}

		if resp.StatusCode != http.StatusOK {
			statusErr := &StatusError{URL: endpoint, StatusCode: resp.StatusCode, Status: resp.Status}
			_ = resp.Body.Close()
			if shouldRetry(nil, statusErr.StatusCode, attempt) {
				time.Sleep(retryDelay)
				continue
			}
			return nil, statusErr
		}

		var payload listResponse
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			_ = resp.Body.Close()
			return nil, fmt.Errorf(messages.FeedDecodeErrFmt, endpoint, err)
		}
		_ = resp.Body.Close()
		entries, err := decodeAll(payload.Data)
		if err != nil {
			return nil, fmt.Errorf(messages.FeedDecodeErrFmt, endpoint, err)
		}
		return entries, nil
	}
	return nil, fmt.Errorf(messages.FeedRequestErrFmt, endpoint, errors.New(messages.FeedRetryExhausted))
}

func shouldRetry(err error, statusCode int, attempt int) bool {
	if attempt >= requestRetryCount {
		return false
	}
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false
		}
		var netErr net.Error
		return errors.As(err, &netErr)
	}
	return statusCode >= 500 && statusCode <= 599
}
