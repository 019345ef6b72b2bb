package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only while owner still holds it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// FixedWindowAllow counts one hit against scope and reports whether the
// count is still within limit. The window starts at the first hit.
func (c *Client) FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error) {
	if c.cmd == nil {
		return false, 0, errNotInitialized
	}
	key := c.rateLimitKey(scope)
	count, err := c.cmd.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}
	// NX on every hit heals a key whose first EXPIRE was lost.
	if window > 0 {
		if err := c.cmd.ExpireNX(ctx, key, window).Err(); err != nil {
			return false, count, err
		}
	}
	return count <= limit, count, nil
}

// AcquireLock takes the named lock for owner until ttl passes.
func (c *Client) AcquireLock(ctx context.Context, name, owner string, ttl time.Duration) (bool, error) {
	return c.SetNX(ctx, c.lockKey(name), owner, ttl)
}

// ReleaseLock is a no-op when the lock expired or moved to another owner.
func (c *Client) ReleaseLock(ctx context.Context, name, owner string) error {
	if c.cmd == nil {
		return errNotInitialized
	}
	return releaseScript.Run(ctx, c.cmd, []string{c.lockKey(name)}, owner).Err()
}
