package telemetry_test

import (
	"testing"

	statedesigner "github.com/izznatsir/state-designer"
	"github.com/izznatsir/state-designer/pkg/telemetry"
)

func TestTraceHookRuns(t *testing.T) {
	tracer := telemetry.NewProvider().Tracer("statedesigner")
	m, err := statedesigner.New(statedesigner.Design[struct{}]{
		Initial: "a",
		States: []statedesigner.State{
			{Name: "a", On: statedesigner.Events{"GO": statedesigner.Item{To: "b"}}},
			{Name: "b"},
		},
	})
	if err != nil {
		t.Fatal("unexpected error", err)
	}
	statedesigner.WithTrace(m, telemetry.Trace(tracer))
	if err := m.Send("GO"); err != nil {
		t.Fatal("send failed", err)
	}
	if !m.IsIn("b") {
		t.Fatal("state is not correct", "active", m.ActivePaths())
	}
}
