package moversapi

import (
	"time"

	"golang.org/x/sync/singleflight"
)

// deduper collapses concurrent identical requests into one in-flight network
// call; every caller receives the same result. A safety timer force-forgets
// an entry whose call never settles so a hung request cannot wedge the
// identity forever.
type deduper struct {
	group   singleflight.Group
	timeout time.Duration
	metrics *Metrics
}

func newDeduper(timeout time.Duration, metrics *Metrics) *deduper {
	return &deduper{timeout: timeout, metrics: metrics}
}

// Do executes fn for key, sharing the in-flight result with concurrent
// callers of the same key.
func (d *deduper) Do(key string, fn func() ([]byte, error)) ([]byte, error) {
	v, err, shared := d.group.Do(key, func() (interface{}, error) {
		timer := time.AfterFunc(d.timeout, func() {
			d.group.Forget(key)
		})
		defer timer.Stop()
		return fn()
	})
	if shared {
		d.metrics.dedupShare()
	}
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}
