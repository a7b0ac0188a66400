package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http/cookiejar"
	"time"

	"cardwatch-backend/lib/restyutil"
	"cardwatch-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"github.com/mazen160/go-random"
)

// the page is permanently gone (404/410), distinct from transient
// fetch failures
var ErrGone = errors.New("page gone")

type Result struct {
	Body       string
	StatusCode int
}

type Fetcher interface {
	Fetch(ctx context.Context, url string) (Result, error)
}

type Client struct {
	http *resty.Client
}

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.4 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:109.0) Gecko/20100101 Firefox/115.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
}

func randomUserAgent() string {
	i, err := random.IntRange(0, len(userAgents))
	if err != nil {
		i = 0
	}
	return userAgents[i]
}

func NewClient(timeout time.Duration) (Client, error) {
	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return Client{}, err
	}
	client.SetCookieJar(jar)
	// games-island.eu sits behind cloudflare
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("accept", "text/html,application/xhtml+xml,application/xml;q=0.9,application/json;q=0.8,*/*;q=0.7")
	client.SetHeader("accept-language", "de-DE,de;q=0.9,en-US;q=0.8,en;q=0.7")
	client.SetTimeout(timeout)

	telemetry.InstrumentResty(client, "lib/fetch")

	return Client{http: client}, nil
}

// SetDebugOutput dumps every raw request/response pair the client
// makes, see restyutil.NewFilesystemOutput
func (c Client) SetDebugOutput(output restyutil.InstrumentOutput) {
	restyutil.InstrumentClient(c.http, output)
}

func (c Client) Fetch(ctx context.Context, url string) (Result, error) {
	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("user-agent", randomUserAgent()).
		Get(url)
	if err != nil {
		return Result{}, fmt.Errorf("fetch %s: %w", url, err)
	}

	code := res.StatusCode()
	if code == 404 || code == 410 {
		return Result{StatusCode: code}, ErrGone
	}
	if code < 200 || code > 299 {
		return Result{StatusCode: code}, fmt.Errorf("fetch %s: status %d", url, code)
	}

	return Result{Body: res.String(), StatusCode: code}, nil
}
