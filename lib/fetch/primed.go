package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"

	"litterwatch/lib/restyutil"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/http2"
	"golang.org/x/time/rate"
)

// PrimedStrategy behaves like a visitor arriving through the front
// door: it loads the site's landing page first, carries the session
// cookies over and then requests the target with an in-site referer.
type PrimedStrategy struct {
	client *resty.Client
}

func NewPrimedStrategy(opts ClientOptions) (*PrimedStrategy, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client := resty.NewWithClient(&http.Client{
		Transport: &http2.Transport{},
		Jar:       jar,
	})
	client.SetHeaders(defaultHeaders(opts.userAgent()))
	client.SetTimeout(opts.timeout())

	// 2 requests max per second with a single-token burst, the target
	// request trails the landing page visit by about half a second
	rateLimiter := rate.NewLimiter(2, 1)
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	restyutil.InstrumentClient(client, "fetch/primed", restyInstrumentOutput)

	return &PrimedStrategy{client: client}, nil
}

func (s *PrimedStrategy) Name() string { return "primed" }

func (s *PrimedStrategy) Fetch(ctx context.Context, res Resource) (*Result, error) {
	origin, err := originOf(res.URL)
	if err != nil {
		return nil, err
	}

	// an error status on the landing page is not fatal, the session
	// cookies it sets are all this visit is for
	_, err = s.client.R().
		SetContext(ctx).
		Get(origin)
	if err != nil {
		return nil, fmt.Errorf("prime %s: %w", origin, err)
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Referer", origin).
		SetHeader("Sec-Fetch-Site", "same-origin").
		Get(res.URL)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	return resultFromResponse(resp, s.Name())
}
