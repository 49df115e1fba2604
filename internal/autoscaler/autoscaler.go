// Package autoscaler picks how many workers a step dispatches records to.
package autoscaler

import "runtime"

// MinPerWorker is the number of records a worker should get before another one
// is started, when no limit is configured.
const MinPerWorker = 16

// AutoScaler sizes the worker pool of a step.
type AutoScaler struct {
	limit int
	procs int
}

// New returns an AutoScaler. A positive limit is used as is, capped by the
// number of records; zero sizes the pool from GOMAXPROCS and the batch size.
func New(limit int) *AutoScaler {
	return &AutoScaler{limit: limit, procs: runtime.GOMAXPROCS(0)}
}

// Workers returns the worker count for a batch of items. It is at least one.
func (a *AutoScaler) Workers(items int) int {
	if items <= 1 {
		return 1
	}
	if a.limit > 0 {
		return clamp(a.limit, items)
	}
	byLoad := (items + MinPerWorker - 1) / MinPerWorker
	return clamp(clamp(byLoad, a.procs), items)
}

func clamp(v, max int) int {
	if v > max {
		v = max
	}
	if v < 1 {
		v = 1
	}
	return v
}
