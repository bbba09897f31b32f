// Package response holds the JSON envelope shared by all HTTP handlers.
package response

import (
	"net/url"
	"strconv"
)

// Response is the body of every API answer. List endpoints fill Count,
// Previous, Next and Results; errors only carry Detail.
type Response struct {
	Count    *int   `json:"count,omitempty"`
	Previous string `json:"previous,omitempty"`
	Next     string `json:"next,omitempty"`
	Results  any    `json:"results,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// IntPtr is a helper for Response.Count.
func IntPtr(n int) *int { return &n }

// BuildPageLinks returns the relative links to the previous and next pages of
// the request u, keeping its other query parameters. A link is empty when the
// page does not exist.
func BuildPageLinks(u *url.URL, page, pageSize, total int) (prev, next string) {
	if u == nil || pageSize <= 0 {
		return "", ""
	}
	link := func(p int) string {
		q := u.Query()
		q.Set("page", strconv.Itoa(p))
		q.Set("page_size", strconv.Itoa(pageSize))
		return u.Path + "?" + q.Encode()
	}
	if page > 1 {
		lastPage := (total + pageSize - 1) / pageSize
		// out of range pages link back to the last existing one
		if lastPage < 1 {
			lastPage = 1
		}
		prev = link(min(page-1, lastPage))
	}
	if page*pageSize < total {
		next = link(page + 1)
	}
	return prev, next
}
