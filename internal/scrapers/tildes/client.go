// client.go contains the transport every operation of the tildes scraper goes
// through, reads and mutations live in their own files.

package tildes

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
	"tildes-client/internal/assert"
	"tildes-client/internal/components/chrono"
	"tildes-client/internal/components/telemetry"
	"tildes-client/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

const DefaultBaseUrl = "https://tildes.net"

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

const (
	headerToken          = "X-CSRF-Token"
	headerAjax           = "X-IC-Request"
	headerMethodOverride = "X-HTTP-Method-Override"
	headerReferer        = "Referer"
	headerRetryAfter     = "Retry-After"
	headerRedirect       = "X-IC-Redirect"
)

const (
	report_client_exchange = "client.exchange"
	report_client_parse    = "client.parse"
)

type ClientOptions struct {
	// BaseUrl defaults to DefaultBaseUrl.
	BaseUrl string
	// Session defaults to a new, empty session.
	Session               *Session
	RespectServerCollapse bool
	// RequestsPerSecond of 0 or less disables rate limiting.
	RequestsPerSecond float64
	// Timeout defaults to 30 seconds.
	Timeout          time.Duration
	CloudflareBypass bool
	// GroupCacheTTL of 0 or less disables caching of the group listing.
	GroupCacheTTL time.Duration
	UserAgent     string
	// Dump receives every http exchange when it is not nil.
	Dump restyutil.Output
}

// Client is a scraping client for a single tildes.net account, it is safe
// for concurrent use.
type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client
	Session *Session

	origin                string
	respectServerCollapse bool
	groups                *expirable.LRU[string, []Group]
	extract               extractor

	tel   telemetry.API
	clock chrono.API
}

func NewClient(opts ClientOptions, clock chrono.API, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel)
	assert.NotNil(clock)

	tel = telemetry.NewScopedAPI("tildes", tel)

	baseUrl := opts.BaseUrl
	if baseUrl == "" {
		baseUrl = DefaultBaseUrl
	}
	baseUrl = strings.TrimSuffix(baseUrl, "/")
	parsedBaseUrl, err := url.Parse(baseUrl)
	if err != nil {
		return nil, err
	}
	if !parsedBaseUrl.IsAbs() {
		return nil, fmt.Errorf("base url must be absolute: %q", baseUrl)
	}

	session := opts.Session
	if session == nil {
		session = NewSession()
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(baseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)
	if opts.CloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	httpClient.SetHeader("user-agent", userAgent)
	httpClient.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(parsedBaseUrl.Hostname()))
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	httpClient.SetTimeout(timeout)

	if opts.RequestsPerSecond > 0 {
		// burst >= 1 means that no requests will be dropped
		burst := int(math.Max(1, math.Ceil(opts.RequestsPerSecond)))
		rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(httpClient, tel)
	restyutil.Instrument(httpClient, opts.Dump)

	c := &Client{
		BaseUrl:               parsedBaseUrl,
		Http:                  httpClient,
		Session:               session,
		origin:                baseUrl,
		respectServerCollapse: opts.RespectServerCollapse,
		extract:               newExtractor(baseUrl),
		tel:                   tel,
		clock:                 clock,
	}
	if opts.GroupCacheTTL > 0 {
		c.groups = expirable.NewLRU[string, []Group](1, nil, opts.GroupCacheTTL)
	}
	return c, nil
}

// absolute turns a path into the absolute url used as a referer.
func (c *Client) absolute(path string) string {
	if path == "" || path == "/" {
		return c.origin
	}
	return c.origin + path
}

// topicReferer is the topic page when both group and id are known, else
// the front page.
func (c *Client) topicReferer(group, id string) string {
	if group == "" || id == "" {
		return c.origin
	}
	return c.absolute(joinPath(group, id))
}

type request struct {
	op      string
	method  string
	path    string
	referer string
	form    url.Values
	// authenticated attaches the anti-forgery token, the request is never
	// sent without one.
	authenticated bool
	// ajax marks the request as expecting a partial fragment.
	ajax bool
	// methodOverride sends the request as a POST carrying the intended verb
	// in a header.
	methodOverride string
}

type response struct {
	status int
	header http.Header
	body   []byte
}

func (c *Client) token(op string) (string, error) {
	token, ok := c.Session.Token()
	if !ok {
		c.tel.ReportWarning(op, ErrMissingToken)
		return "", ErrMissingToken
	}
	return token, nil
}

// exchange performs a single http exchange, it never interprets the status.
func (c *Client) exchange(ctx context.Context, req request) (response, error) {
	r := c.Http.R().
		SetContext(ctx).
		SetHeader(headerReferer, req.referer)

	if req.authenticated {
		token, err := c.token(req.op)
		if err != nil {
			return response{}, err
		}
		r.SetHeader(headerToken, token)
	}
	if req.ajax {
		r.SetHeader(headerAjax, "true")
	}
	method := req.method
	if req.methodOverride != "" {
		r.SetHeader(headerMethodOverride, req.methodOverride)
		method = http.MethodPost
	}
	if req.form != nil {
		r.SetFormDataFromValues(req.form)
	}

	res, err := r.Execute(method, req.path)
	if err != nil {
		terr := &TransportError{Op: req.op, Err: err}
		c.tel.ReportBroken(
			report_client_exchange,
			terr,
			method,
			req.path,
		)
		return response{}, terr
	}

	return response{
		status: res.StatusCode(),
		header: res.Header(),
		body:   res.Body(),
	}, nil
}

// parse parses a document and keeps the anti-forgery token it carries.
func (c *Client) parse(op string, body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(body))
	if err != nil {
		c.tel.ReportBroken(
			report_client_parse,
			fmt.Errorf("%s: %w", op, err),
		)
		return nil, fmt.Errorf("%s: parse: %w", op, err)
	}
	if token, ok := extractToken(doc.Selection); ok {
		c.Session.SetToken(token)
	}
	return doc, nil
}

func (c *Client) fetchDocument(ctx context.Context, op, path, referer string) (int, *goquery.Document, error) {
	c.tel.ReportDebug(op, path)

	res, err := c.exchange(ctx, request{
		op:      op,
		method:  http.MethodGet,
		path:    path,
		referer: referer,
	})
	if err != nil {
		return 0, nil, err
	}
	doc, err := c.parse(op, res.body)
	if err != nil {
		return res.status, nil, err
	}
	if res.status != http.StatusOK {
		c.tel.ReportWarning(op, fmt.Errorf("unexpected status %d", res.status), path)
	}
	return res.status, doc, nil
}

func (c *Client) reportFailures(op string, failures []error) {
	for _, err := range failures {
		c.tel.ReportWarning(op, err)
	}
}
