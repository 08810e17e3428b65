package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"
)

// WhoisChecker reports a name as available when its domain is unregistered
type WhoisChecker struct {
	APIURL  string
	TLD     string
	client  *http.Client
	limiter *rate.Limiter
}

// NewWhoisChecker creates a domain checker backed by a WHOIS HTTP API
func NewWhoisChecker(apiURL, tld string, client *http.Client, limiter *rate.Limiter) *WhoisChecker {
	if client == nil {
		client = http.DefaultClient
	}
	if tld == "" {
		tld = "com"
	}
	return &WhoisChecker{
		APIURL:  apiURL,
		TLD:     strings.TrimPrefix(tld, "."),
		client:  client,
		limiter: limiter,
	}
}

// Check queries WHOIS for name.<tld>
func (s *WhoisChecker) Check(ctx context.Context, name string) (bool, error) {
	domain := strings.ToLower(name) + "." + s.TLD

	apiURL, err := url.Parse(s.APIURL)
	if err != nil {
		return false, fmt.Errorf("invalid API URL: %w", err)
	}
	params := url.Values{}
	params.Add("domain", domain)
	apiURL.RawQuery = params.Encode()

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return false, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL.String(), nil)
	if err != nil {
		return false, fmt.Errorf("build WHOIS request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to query WHOIS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return true, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("WHOIS API returned status %d", resp.StatusCode)
	}

	// API returns {code, msg, data}
	var apiResponse struct {
		Code int                    `json:"code"`
		Msg  string                 `json:"msg"`
		Data map[string]interface{} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResponse); err != nil {
		return false, fmt.Errorf("failed to parse WHOIS response: %w", err)
	}

	if apiResponse.Code != 0 {
		if isNotRegistered(apiResponse.Msg) {
			return true, nil
		}
		return false, fmt.Errorf("WHOIS API error: %s", apiResponse.Msg)
	}

	return !isRegistered(apiResponse.Data), nil
}

// isRegistered looks for the fields a registered domain always carries
func isRegistered(data map[string]interface{}) bool {
	if len(data) == 0 {
		return false
	}
	if available, ok := data["available"].(bool); ok {
		return !available
	}
	for _, key := range []string{"registrar", "creationDate", "expirationDate"} {
		if v, ok := data[key].(string); ok && v != "" {
			return true
		}
	}
	return false
}

func isNotRegistered(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "not found") || strings.Contains(msg, "no match") || strings.Contains(msg, "not registered")
}
