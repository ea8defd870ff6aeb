package worker

import (
	"math/rand"
	"time"

	"github.com/hibiken/asynq"
)

// RetryDelay builds the asynq retry schedule for throttled jobs:
// base * 2^attempt plus one to ten seconds of jitter, so a burst of
// rate-limited workers doesn't stampede the provider in lockstep.
func RetryDelay(base time.Duration) asynq.RetryDelayFunc {
	return func(n int, err error, task *asynq.Task) time.Duration {
		backoff := base * (1 << n)
		jitter := time.Duration(1+rand.Intn(10)) * time.Second
		return backoff + jitter
	}
}
