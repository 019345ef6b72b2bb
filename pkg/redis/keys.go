package redis

import "strings"

const defaultPrefix = "eh"

// key joins prefix, kind and the non-blank parts with ':'.
func (c *Client) key(kind string, parts ...string) string {
	prefix := c.prefix
	if prefix == "" {
		prefix = defaultPrefix
	}
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteByte(':')
	b.WriteString(kind)
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			b.WriteByte(':')
			b.WriteString(part)
		}
	}
	return b.String()
}

func (c *Client) IdempotencyKey(scope, id string) string {
	return c.key("idempotency", scope, id)
}

// ListingViewKey dedupes one visitor viewing one listing.
func (c *Client) ListingViewKey(listingID, visitor string) string {
	return c.key("view", "listing", listingID, visitor)
}

func (c *Client) rateLimitKey(scope string) string {
	return c.key("rate_limit", scope)
}

func (c *Client) lockKey(name string) string {
	return c.key("lock", name)
}
