package controllers

import (
	"net"
	"net/http"
	"strings"

	"github.com/emlakhub/emlakhub-backend/api/validators"
	"github.com/emlakhub/emlakhub-backend/pkg/pagination"
)

// pageParams reads ?limit= and ?cursor=. Limits above the maximum are rejected
// rather than clamped so clients notice.
func pageParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}

// visitorID identifies an anonymous client for view deduplication.
func visitorID(r *http.Request) string {
	ip := r.RemoteAddr
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		ip = strings.TrimSpace(strings.Split(forwarded, ",")[0])
	} else if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		ip = host
	}
	if ip == "" {
		return ""
	}
	return ip + "|" + r.UserAgent()
}
