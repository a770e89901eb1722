package client

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds automatic retries. Only network failures of GET requests are retried;
// the zero value never retries.
type RetryPolicy struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy retries a read twice, starting at 300ms.
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries:      2,
	InitialInterval: 300 * time.Millisecond,
	MaxInterval:     2 * time.Second,
}

// NoRetry is used for logins and every write.
var NoRetry = RetryPolicy{}

func (p RetryPolicy) run(ctx context.Context, op func() error) error {
	if p.MaxRetries == 0 {
		return op()
	}
	exp := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		exp.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		exp.MaxInterval = p.MaxInterval
	}
	exp.MaxElapsedTime = 0

	b := backoff.WithContext(backoff.WithMaxRetries(exp, p.MaxRetries), ctx)
	return backoff.Retry(func() error {
		err := op()
		var network *NetworkError
		if err != nil && !errors.As(err, &network) {
			return backoff.Permanent(err)
		}
		return err
	}, b)
}
