// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"sync"
	"sync/atomic"
	"time"
)

// indicator drives the thinking animation for one run.
//
// It is a scoped resource: Stop may be called from any exit path, any number
// of times, and the ticker is released exactly once.
type indicator struct {
	done     chan struct{}
	stopOnce sync.Once
	live     *atomic.Int64
}

// startIndicator calls tick every interval until Stop. live counts the
// indicators that have not been stopped yet.
func startIndicator(interval time.Duration, live *atomic.Int64, tick func()) *indicator {
	ind := &indicator{done: make(chan struct{}), live: live}
	live.Add(1)

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ind.done:
				return
			case <-ticker.C:
				tick()
			}
		}
	}()
	return ind
}

// Stop releases the ticker. A nil indicator is a no-op.
func (i *indicator) Stop() {
	if i == nil {
		return
	}
	i.stopOnce.Do(func() {
		close(i.done)
		i.live.Add(-1)
	})
}

// Stopped reports whether Stop has run.
func (i *indicator) Stopped() bool {
	if i == nil {
		return true
	}
	select {
	case <-i.done:
		return true
	default:
		return false
	}
}
