package fetch

import (
	"context"
	"fmt"
	"net/http/cookiejar"

	"litterwatch/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

// DirectStrategy fetches with a plain HTTP client dressed up as a
// browser: cloudflare bypass transport, realistic Chrome headers and a
// cookie jar. Cheapest strategy, first in the default order.
type DirectStrategy struct {
	client *resty.Client
}

func NewDirectStrategy(opts ClientOptions) (*DirectStrategy, error) {
	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeaders(defaultHeaders(opts.userAgent()))
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	client.SetTimeout(opts.timeout())

	restyutil.InstrumentClient(client, "fetch/direct", restyInstrumentOutput)

	return &DirectStrategy{client: client}, nil
}

func (s *DirectStrategy) Name() string { return "direct" }

func (s *DirectStrategy) Fetch(ctx context.Context, res Resource) (*Result, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		Get(res.URL)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	return resultFromResponse(resp, s.Name())
}
