package vtop

import (
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"
	"vtopassist-backend/lib/telemetry"
	"vtopassist-backend/lib/timezone"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("scrapers/vtop")

type Campus string

const (
	CampusVellore Campus = "vellore"
	CampusChennai Campus = "chennai"
)

func (c Campus) BaseUrl() string {
	if c == CampusChennai {
		return "https://vtopcc.vit.ac.in"
	}
	return "https://vtop.vit.ac.in"
}

// DefaultSemesterId returns the semester the portal currently serves
// data for. These identifiers change every term.
func (c Campus) DefaultSemesterId() string {
	if c == CampusChennai {
		return "CH20252605"
	}
	return "VL20252605"
}

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// Client is an isolated, logged-in connection to the portal. One
// instance per user session; the cookie jar and cached auth data must
// never be shared across sessions.
type Client struct {
	Campus  Campus
	BaseUrl *url.URL
	Http    *resty.Client

	solver Solver
	now    func() time.Time

	mu           sync.Mutex
	csrf         string
	authorizedID string

	cache *categoryCache
}

type ClientOptions struct {
	Campus Campus
	Solver Solver
	// BaseUrl overrides the campus portal URL, tests point this at a
	// local double
	BaseUrl string
	// Now overrides the clock, tests use this to age cache entries
	Now func() time.Time
}

func NewClient(opts ClientOptions) (*Client, error) {
	campus := opts.Campus
	if campus == "" {
		campus = CampusVellore
	}
	rawUrl := opts.BaseUrl
	if rawUrl == "" {
		rawUrl = campus.BaseUrl()
	}
	baseUrl, err := url.Parse(rawUrl)
	if err != nil {
		return nil, err
	}

	now := opts.Now
	if now == nil {
		now = timezone.Now
	}

	client := resty.New()
	client.SetBaseURL(baseUrl.String())
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", userAgent)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "scrapers/vtop/http")

	c := &Client{
		Campus:  campus,
		BaseUrl: baseUrl,
		Http:    client,
		solver:  opts.Solver,
		now:     now,
		cache:   newCategoryCache(now),
	}
	return c, nil
}

func (c *Client) setAuthData(csrf, authorizedID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.csrf = csrf
	c.authorizedID = authorizedID
}

func (c *Client) cachedAuthData() (AuthData, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.csrf == "" || c.authorizedID == "" {
		return AuthData{}, false
	}
	return AuthData{CsrfToken: c.csrf, AuthorizedID: c.authorizedID}, true
}
