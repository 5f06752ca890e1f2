package statedesigner

import (
	"log/slog"
	"sync"
	"time"

	"github.com/izznatsir/state-designer/clock"
)

func (n *Node[D]) stopEffects() {
	if n.times.interval != nil {
		n.times.interval()
		n.times.interval = nil
	}
	if n.times.frame != nil {
		n.times.frame()
		n.times.frame = nil
	}
}

// startRepeat launches the node's repeat loop. With no delay the loop ticks
// once per frame; otherwise the delay is evaluated once on entry. The source
// clamps intervals to max(1/60, delay*1000) milliseconds, which is preserved
// here unchanged.
func (m *Machine[D]) startRepeat(node *Node[D]) {
	repeat := node.repeat
	frame := repeat.delay == nil
	var interval time.Duration
	if frame {
		interval = clock.FrameInterval
	} else {
		ms := repeat.delay(&m.data, m.payload, m.result) * 1000
		if ms < 1.0/60.0 {
			ms = 1.0 / 60.0
		}
		interval = time.Duration(ms * float64(time.Millisecond))
	}

	done := make(chan struct{})
	var once sync.Once
	stop := func() {
		once.Do(func() { close(done) })
	}
	ticks, stopTicks := m.clock.Tick(interval)
	start := m.clock.Now()
	last := start

	go func() {
		defer stopTicks()
		for {
			select {
			case <-done:
				return
			case now := <-ticks:
				m.mu.Lock()
				select {
				case <-done:
					m.mu.Unlock()
					return
				default:
				}
				if !node.Active {
					m.mu.Unlock()
					return
				}
				m.result = RepeatInfo{
					Interval: float64(now.Sub(last)) / float64(time.Millisecond),
					Elapsed:  float64(now.Sub(start)) / float64(time.Millisecond),
				}
				last = now
				m.runOffThread(repeat.onRepeat, "repeat", node.Path)
				m.mu.Unlock()
			}
		}
	}()

	if frame {
		node.times.frame = stop
	} else {
		node.times.interval = stop
	}
}

// startAsync invokes the awaitable against a data snapshot and routes its
// settlement to onResolve or onReject. The work is never cancelled; a result
// arriving after the owning state exited is ignored.
func (m *Machine[D]) startAsync(node *Node[D]) {
	effect := node.async
	data := m.data
	payload := m.payload
	result := m.result
	go func() {
		value, err := effect.await(m.ctx, data, payload, result)
		m.mu.Lock()
		defer m.mu.Unlock()
		if !node.Active {
			return
		}
		if err != nil {
			if effect.onReject == nil {
				return
			}
			m.result = err
			m.runOffThread(effect.onReject, "reject", node.Path)
			return
		}
		m.result = value
		m.runOffThread(effect.onResolve, "resolve", node.Path)
	}()
}

// runOffThread evaluates a chain outside the main send-queue drain. Its local
// flags drive an immediate notification instead of mixing into a drain's, and
// its transition counter is its own. The caller must hold the instance lock.
func (m *Machine[D]) runOffThread(chain handlerChain[D], step string, detail any) {
	if m.trace != nil {
		m.trace(m.ctx, step, detail)()
	}
	m.processing.Store(true)
	defer m.processing.Store(false)
	counter := 0
	flags := evalFlags{}
	if err := m.evaluateChain(chain, &flags, &counter); err != nil {
		slog.Error("off-thread handler failed", "machine", m.id, "step", step, "error", err)
		return
	}
	if err := m.drain(&counter); err != nil {
		slog.Error("off-thread drain failed", "machine", m.id, "step", step, "error", err)
		return
	}
	if flags.didAction || flags.didTransition {
		m.notify()
	}
}
