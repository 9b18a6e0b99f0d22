package upstream

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrorBody is the JSON error envelope returned by Google APIs.
type ErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Details []struct {
			Type       string            `json:"@type"`
			Reason     string            `json:"reason"`
			Metadata   map[string]string `json:"metadata"`
			RetryDelay string            `json:"retryDelay"`
		} `json:"details"`
		Errors []struct {
			Reason  string `json:"reason"`
			Message string `json:"message"`
		} `json:"errors"`
	} `json:"error"`
}

// ProviderError is what we could learn from a failed provider response.
type ProviderError struct {
	Message    string
	Reason     string
	RetryAfter time.Duration
}

// ParseProviderError extracts a displayable message, the first reason and any retry hint
// from a non-2xx provider response. fallback is used when the body carries no message.
func ParseProviderError(header http.Header, body []byte, fallback string) ProviderError {
	pe := ProviderError{Message: fallback, RetryAfter: parseRetryAfter(header.Get("Retry-After"))}

	var eb ErrorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return pe
	}
	if msg := strings.TrimSpace(eb.Error.Message); msg != "" {
		pe.Message = msg
	}
	for _, e := range eb.Error.Errors {
		if e.Reason != "" {
			pe.Reason = e.Reason
			break
		}
	}
	for _, d := range eb.Error.Details {
		if pe.Reason == "" && d.Reason != "" {
			pe.Reason = d.Reason
		}
		if pe.RetryAfter > 0 {
			continue
		}
		delay := d.RetryDelay
		if delay == "" && d.Metadata != nil {
			delay = d.Metadata["retryDelay"]
		}
		if dur, err := time.ParseDuration(delay); err == nil {
			pe.RetryAfter = dur
		}
	}
	return pe
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(v); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		return time.Until(t)
	}
	return 0
}
