package worker

import (
	"testing"
	"time"
)

func TestRetryDelayDoublesWithJitter(t *testing.T) {
	base := 2 * time.Second
	delay := RetryDelay(base)

	for n := 0; n < 5; n++ {
		backoff := base * (1 << n)
		for i := 0; i < 20; i++ {
			d := delay(n, nil, nil)
			if d < backoff+time.Second || d > backoff+10*time.Second {
				t.Fatalf("attempt %d: delay %v outside [%v, %v]", n, d, backoff+time.Second, backoff+10*time.Second)
			}
		}
	}
}

func TestRetryDelayGrows(t *testing.T) {
	delay := RetryDelay(2 * time.Second)
	// Attempt 3's floor exceeds attempt 0's ceiling, so ordering holds for
	// any jitter draw.
	if d0, d3 := delay(0, nil, nil), delay(3, nil, nil); d3 <= d0 {
		t.Fatalf("delay(3)=%v not greater than delay(0)=%v", d3, d0)
	}
}
