package fetch

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/net/html/charset"
)

// Options describes a single request. Zero values are usable: the method
// defaults to GET, an empty URL targets the client's current location, and
// nil callbacks are simply skipped.
type Options struct {
	URL    string
	Method string
	Body   string
	Header http.Header

	// Success receives the response body, decoded to UTF-8, when the
	// server answers with status 200. Any other outcome goes to Error.
	Success func(body string)
	// Error receives the status reason phrase for non-200 responses, or
	// the error text when the request never completed.
	Error func(status string)
}

func (o Options) succeed(body string) {
	if o.Success != nil {
		o.Success(body)
	}
}

func (o Options) fail(status string) {
	if o.Error != nil {
		o.Error(status)
	}
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithBaseURL sets the location relative URLs resolve against.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.base = base
	}
}

// WithUserAgent overrides the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// Client issues requests. Request is asynchronous and reports through the
// Options callbacks; Get is the synchronous convenience used by loaders.
type Client struct {
	httpClient *http.Client
	userAgent  string

	mu   sync.Mutex
	base string
}

// NewClient builds a Client, applying any options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		userAgent:  "Mozilla/5.0 (compatible; DominoBot/1.0; +https://example.com)",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetBaseURL records the current location. Subsequent requests with an
// empty or relative URL resolve against it.
func (c *Client) SetBaseURL(base string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.base = base
}

// BaseURL reports the current location.
func (c *Client) BaseURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.base
}

// Request fires opts on its own goroutine and returns immediately. There is
// no retry, timeout or cancellation; the outcome arrives only through the
// callbacks.
func (c *Client) Request(opts Options) {
	go c.do(opts)
}

func (c *Client) do(opts Options) {
	target, err := c.target(opts.URL)
	if err != nil {
		opts.fail(err.Error())
		return
	}
	method := strings.ToUpper(strings.TrimSpace(opts.Method))
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if opts.Body != "" {
		body = strings.NewReader(opts.Body)
	}
	req, err := http.NewRequest(method, target, body)
	if err != nil {
		opts.fail(err.Error())
		return
	}
	for k, values := range opts.Header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		opts.fail(err.Error())
		return
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		opts.fail(statusReason(resp))
		return
	}
	decoded, err := decodeBody(resp)
	if err != nil {
		opts.fail(err.Error())
		return
	}
	opts.succeed(decoded)
}

// Get fetches rawURL synchronously and returns the decoded body. Only a 200
// response counts as success, matching Request.
func (c *Client) Get(rawURL string) (string, error) {
	target, err := c.target(rawURL)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequest(http.MethodGet, target, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return "", fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}
	return decodeBody(resp)
}

// target turns the raw request URL into an absolute one, falling back to
// the recorded location for empty or relative inputs.
func (c *Client) target(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	base := c.BaseURL()
	if raw == "" {
		if base == "" {
			return "", fmt.Errorf("no url to request and no current location")
		}
		return base, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	if strings.TrimSpace(base) == "" {
		return "", fmt.Errorf("cannot resolve relative URL %q without a base", raw)
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	return baseURL.ResolveReference(u).String(), nil
}

func statusReason(resp *http.Response) string {
	if reason := http.StatusText(resp.StatusCode); reason != "" {
		return reason
	}
	return resp.Status
}

func decodeBody(resp *http.Response) (string, error) {
	defer resp.Body.Close()
	reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

var defaultClient = NewClient()

// Request issues opts through the package-level client.
func Request(opts Options) {
	defaultClient.Request(opts)
}

// Get fetches rawURL through the package-level client.
func Get(rawURL string) (string, error) {
	return defaultClient.Get(rawURL)
}

// SetBaseURL sets the package-level client's current location.
func SetBaseURL(base string) {
	defaultClient.SetBaseURL(base)
}
