package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/turtacn/ClubDues/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/ClubDues/pkg/errors"
)

var (
	ErrLockNotAcquired = errors.New(errors.ErrCodeLockNotAcquired, "failed to acquire lock")
	ErrLockNotHeld     = errors.New(errors.ErrCodeLockNotAcquired, "lock not held by this owner")
)

const lockKeyPrefix = "clubdues:lock:"

type LockOption func(*lockConfig)

func WithLockTTL(ttl time.Duration) LockOption {
	return func(c *lockConfig) { c.ttl = ttl }
}

func WithRetryDelay(delay time.Duration) LockOption {
	return func(c *lockConfig) { c.retryDelay = delay }
}

func WithRetryCount(count int) LockOption {
	return func(c *lockConfig) { c.retryCount = count }
}

type lockConfig struct {
	ttl        time.Duration
	retryDelay time.Duration
	retryCount int
}

func defaultLockConfig(opts []LockOption) lockConfig {
	cfg := lockConfig{
		ttl:        30 * time.Second,
		retryDelay: 100 * time.Millisecond,
		retryCount: 30,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.retryCount < 1 {
		cfg.retryCount = 1
	}
	return cfg
}

// Mutex is a single-owner lock identified by a random token.  Only the owner
// can release it; an expired lock is simply gone.
type Mutex struct {
	client *Client
	key    string
	value  string
	config lockConfig
}

// NewMutex returns an unlocked mutex for name.
func NewMutex(client *Client, name string, opts ...LockOption) *Mutex {
	return &Mutex{
		client: client,
		key:    lockKeyPrefix + name,
		value:  uuid.NewString(),
		config: defaultLockConfig(opts),
	}
}

var mutexUnlockScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	else
		return 0
	end
`)

// Lock retries until the lock is taken, the retries run out or ctx ends.
func (m *Mutex) Lock(ctx context.Context) error {
	for i := 0; i < m.config.retryCount; i++ {
		ok, err := m.TryLock(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if i == m.config.retryCount-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(m.config.retryDelay):
		}
	}
	return ErrLockNotAcquired.WithDetail("key=" + m.key)
}

// TryLock makes a single attempt.
func (m *Mutex) TryLock(ctx context.Context) (bool, error) {
	ok, err := m.client.SetNX(ctx, m.key, m.value, m.config.ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeCacheError, "failed to set lock")
	}
	return ok, nil
}

func (m *Mutex) Unlock(ctx context.Context) error {
	res, err := mutexUnlockScript.Run(ctx, m.client.GetUnderlyingClient(), []string{m.key}, m.value).Int64()
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "failed to release lock")
	}
	if res == 0 {
		return ErrLockNotHeld
	}
	return nil
}

// DecisionLock serialises admin decisions per membership.
type DecisionLock struct {
	client *Client
	opts   []LockOption
	logger logging.Logger
}

// NewDecisionLock returns a lock whose entries expire after ttl.
func NewDecisionLock(client *Client, ttl time.Duration, log logging.Logger, opts ...LockOption) *DecisionLock {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if ttl > 0 {
		opts = append([]LockOption{WithLockTTL(ttl)}, opts...)
	}
	return &DecisionLock{client: client, opts: opts, logger: log}
}

// Acquire blocks until the membership's lock is held and returns its
// release function.  Release errors are logged; the TTL reclaims the key.
func (d *DecisionLock) Acquire(ctx context.Context, membershipID string) (func(), error) {
	m := NewMutex(d.client, "decision:"+membershipID, d.opts...)
	if err := m.Lock(ctx); err != nil {
		return nil, err
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := m.Unlock(ctx); err != nil {
			d.logger.Warn("failed to release decision lock", logging.MembershipID(membershipID), logging.Err(err))
		}
	}, nil
}

//Personal.AI order the ending
