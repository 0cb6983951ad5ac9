package service

import (
	"regexp"
	"strings"
	"time"

	"github.com/pmn-helpdesk/backend/internal/state"
)

// cacheablePatterns is an allowlist of canonical question shapes. The cache
// key space is this list, not the raw message, so different phrasings that
// match the same pattern share one answer. That coarseness is intended.
var cacheablePatterns = []*regexp.Regexp{
	regexp.MustCompile(`how (do i|to|can i) (add|create|post) (a )?(new )?job`),
	regexp.MustCompile(`how (do i|to|can i) (add|upload) (a )?(candidate|resume|cv)`),
	regexp.MustCompile(`how (do i|to|can i) reset (my )?password`),
	regexp.MustCompile(`how (do i|to|can i) (schedule|book) (an )?interview`),
	regexp.MustCompile(`how (do i|to|can i) (submit|file) (a )?(claim|timesheet)`),
	regexp.MustCompile(`how (do i|to|can i) (add|create) (a )?(new )?client`),
	regexp.MustCompile(`what (is|are) (the )?dashboard`),
	regexp.MustCompile(`how (do i|to|can i) export`),
}

type cachedResponse struct {
	Response string
}

// ResponseCache memoizes answers for the allowlisted question shapes only.
type ResponseCache struct {
	entries *state.Store[cachedResponse]
}

func NewResponseCache(ttl time.Duration) *ResponseCache {
	return &ResponseCache{entries: state.NewStore[cachedResponse](ttl)}
}

// Get returns the cached answer when the message matches a cacheable pattern
// and a non-expired entry exists for that pattern.
func (c *ResponseCache) Get(message string) (string, bool) {
	key, ok := cacheKey(message)
	if !ok {
		return "", false
	}
	entry, ok := c.entries.Get(key)
	if !ok {
		return "", false
	}
	return entry.Response, true
}

// Set stores the answer under the pattern key, if the message is cacheable.
func (c *ResponseCache) Set(message, response string) {
	key, ok := cacheKey(message)
	if !ok {
		return
	}
	c.entries.Set(key, cachedResponse{Response: response})
}

func (c *ResponseCache) Sweep() int {
	return c.entries.Sweep()
}

func cacheKey(message string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(message))
	for _, p := range cacheablePatterns {
		if p.MatchString(normalized) {
			return p.String(), true
		}
	}
	return "", false
}
