package clock_test

import (
	"testing"
	"time"

	"github.com/izznatsir/state-designer/clock"
)

func TestSleepCompression(t *testing.T) {
	c := clock.Make(clock.Config{Multiplier: 10})
	start := time.Now()
	c.Sleep(100 * time.Millisecond)
	if elapsed := time.Since(start); elapsed > 80*time.Millisecond {
		t.Fatal("sleep was not compressed", "elapsed", elapsed)
	}
}

func TestTickDelivers(t *testing.T) {
	c := clock.Make()
	ticks, stop := c.Tick(5 * time.Millisecond)
	defer stop()
	select {
	case <-ticks:
	case <-time.After(time.Second):
		t.Fatal("ticker did not tick")
	}
}
