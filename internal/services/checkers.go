package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/proxy"
	"golang.org/x/time/rate"
)

// HTTPChecker asks a registry lookup endpoint whether a name is taken.
// The endpoint answers 404 for unknown names and 200 for registered ones.
type HTTPChecker struct {
	BaseURL string
	Param   string
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTPChecker creates a checker for GET {baseURL}?{param}=name lookups
func NewHTTPChecker(baseURL, param string, client *http.Client, limiter *rate.Limiter) *HTTPChecker {
	if client == nil {
		client = http.DefaultClient
	}
	if param == "" {
		param = "name"
	}
	return &HTTPChecker{BaseURL: baseURL, Param: param, client: client, limiter: limiter}
}

// Check performs the lookup
func (c *HTTPChecker) Check(ctx context.Context, name string) (bool, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return false, fmt.Errorf("invalid lookup URL: %w", err)
	}
	q := u.Query()
	q.Set(c.Param, name)
	u.RawQuery = q.Encode()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return false, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return false, fmt.Errorf("build lookup request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("lookup %s: %w", u.Host, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotFound:
		return true, nil
	case http.StatusOK:
		return false, nil
	default:
		return false, fmt.Errorf("lookup %s returned status %d", u.Host, resp.StatusCode)
	}
}

// SimulatedChecker stands in for a registry. Answers are derived from a hash
// of the name and the dimension, so the same name always gets the same answer.
type SimulatedChecker struct {
	Dimension Dimension
	Threshold float64 // a name is available when its draw exceeds this
	Latency   time.Duration
}

// simulatedThresholds mirror the availability odds of the public registries
var simulatedThresholds = map[Dimension]float64{
	DimensionDomain:    0.3,
	DimensionTrademark: 0.4,
	DimensionBusiness:  0.5,
	DimensionSocial:    0.6,
}

// NewSimulatedCheckers returns one simulated checker per dimension
func NewSimulatedCheckers(latency time.Duration) map[Dimension]Checker {
	checkers := make(map[Dimension]Checker, len(Dimensions))
	for _, dim := range Dimensions {
		checkers[dim] = &SimulatedChecker{
			Dimension: dim,
			Threshold: simulatedThresholds[dim],
			Latency:   latency,
		}
	}
	return checkers
}

// Check returns the simulated answer after the configured latency
func (s *SimulatedChecker) Check(ctx context.Context, name string) (bool, error) {
	if s.Latency > 0 {
		timer := time.NewTimer(s.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-timer.C:
		}
	}

	h := fnv.New64a()
	h.Write([]byte(s.Dimension))
	h.Write([]byte{0})
	h.Write([]byte(name))
	seed := h.Sum64()

	r := rand.New(rand.NewPCG(seed, seed>>1|1))
	return r.Float64() > s.Threshold, nil
}

// NewHTTPClient builds the client shared by the HTTP backends. When
// socksAddr is set all connections go through that SOCKS5 proxy.
func NewHTTPClient(timeout time.Duration, socksAddr string) (*http.Client, error) {
	client := &http.Client{Timeout: timeout}
	if socksAddr == "" {
		return client, nil
	}

	dialer, err := proxy.SOCKS5("tcp", socksAddr, nil, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("create SOCKS5 proxy: %w", err)
	}
	client.Transport = &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			if cd, ok := dialer.(proxy.ContextDialer); ok {
				return cd.DialContext(ctx, network, addr)
			}
			return dialer.Dial(network, addr)
		},
	}
	return client, nil
}

// NewLimiter returns a limiter allowing perSecond requests, or nil for no limit
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}
