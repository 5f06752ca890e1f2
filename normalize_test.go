package statedesigner

import (
	"errors"
	"testing"

	"github.com/izznatsir/state-designer/kinds"
)

type normData struct {
	Count int
}

func testNormalizer() *normalizer[normData] {
	return newNormalizer(&Design[normData]{
		Actions: map[string]Action[normData]{
			"increment": func(d *normData, _, _ any) { d.Count++ },
		},
		Conditions: map[string]Condition[normData]{
			"positive": func(d *normData, _, _ any) bool { return d.Count > 0 },
		},
		Results: map[string]Result[normData]{
			"count": func(d *normData, _, _ any) any { return d.Count },
		},
		Times: map[string]Time[normData]{
			"beat": func(*normData, any, any) float64 { return 0.5 },
		},
	})
}

func TestChainFromFunction(t *testing.T) {
	nz := testNormalizer()
	chain, err := nz.chain(func(d *normData, _, _ any) { d.Count++ })
	if err != nil {
		t.Fatal("unexpected error", err)
	}
	if len(chain) != 1 || len(chain[0].do) != 1 {
		t.Fatal("function shorthand should yield one do item", "chain", chain)
	}

	d := normData{}
	chain[0].do[0](&d, nil, nil)
	if d.Count != 1 {
		t.Fatal("action did not run", "count", d.Count)
	}
}

func TestChainFromString(t *testing.T) {
	nz := testNormalizer()
	chain, err := nz.chain("increment")
	if err != nil {
		t.Fatal("unexpected error", err)
	}
	if len(chain) != 1 || len(chain[0].do) != 1 {
		t.Fatal("string shorthand should resolve into do", "chain", chain)
	}
}

func TestChainFromItem(t *testing.T) {
	nz := testNormalizer()
	chain, err := nz.chain(Item{
		Get:  "count",
		If:   "positive",
		Do:   []string{"increment", "increment"},
		Wait: 0.25,
		To:   "elsewhere",
	})
	if err != nil {
		t.Fatal("unexpected error", err)
	}
	if len(chain) != 1 {
		t.Fatal("item shorthand should yield one item", "chain", chain)
	}
	item := chain[0]
	if len(item.get) != 1 || len(item.ifAll) != 1 || len(item.do) != 2 {
		t.Fatal("slots were not expanded", "item", item)
	}
	if item.wait == nil || item.to == nil {
		t.Fatal("wait and to should be set")
	}

	d := normData{}
	if item.wait(&d, nil, nil) != 0.25 {
		t.Fatal("wait constant is not correct")
	}
	if item.to(&d, nil, nil) != "elsewhere" {
		t.Fatal("target constant is not correct")
	}
}

func TestChainFromSlice(t *testing.T) {
	nz := testNormalizer()
	chain, err := nz.chain([]any{
		"increment",
		Item{Unless: "positive", ElseDo: "increment"},
		func(d *normData, _, _ any) { d.Count += 10 },
	})
	if err != nil {
		t.Fatal("unexpected error", err)
	}
	if len(chain) != 3 {
		t.Fatal("slice shorthand should yield one item per element", "chain", chain)
	}
	if len(chain[1].unless) != 1 || len(chain[1].elseDo) != 1 {
		t.Fatal("slots were not expanded", "item", chain[1])
	}
}

func TestChainFromMap(t *testing.T) {
	nz := testNormalizer()
	chain, err := nz.chain(map[string]any{
		"if":   "positive",
		"do":   "increment",
		"wait": "beat",
		"send": map[string]any{"event": "PING", "payload": 7},
	})
	if err != nil {
		t.Fatal("unexpected error", err)
	}
	item := chain[0]
	if len(item.ifAll) != 1 || len(item.do) != 1 || item.wait == nil || item.send == nil {
		t.Fatal("slots were not expanded", "item", item)
	}

	d := normData{}
	ev := item.send(&d, nil, nil)
	if ev.Name != "PING" || ev.Payload != 7 {
		t.Fatal("send event is not correct", "event", ev)
	}
}

func TestUnknownReferences(t *testing.T) {
	nz := testNormalizer()
	for _, shorthand := range []any{
		"missing",
		Item{If: "missing"},
		Item{Get: "missing"},
		Item{Wait: "missing"},
		map[string]any{"bogus": "key"},
	} {
		if _, err := nz.chain(shorthand); !errors.Is(err, ErrInvalidDesign) {
			t.Fatal("expected invalid design", "shorthand", shorthand, "err", err)
		}
	}
}

func TestSendShorthands(t *testing.T) {
	nz := testNormalizer()
	d := normData{}

	send, err := nz.sendOf("NEXT")
	if err != nil {
		t.Fatal("unexpected error", err)
	}
	if send(&d, nil, nil).Name != "NEXT" {
		t.Fatal("string shorthand is not correct")
	}

	send, err = nz.sendOf(Event{Name: "TICK", Payload: 1})
	if err != nil {
		t.Fatal("unexpected error", err)
	}
	if send(&d, nil, nil).Payload != 1 {
		t.Fatal("event shorthand is not correct")
	}

	send, err = nz.sendOf(func(_ *normData, payload, _ any) Event {
		return Event{Name: "ECHO", Payload: payload}
	})
	if err != nil {
		t.Fatal("unexpected error", err)
	}
	if send(&d, "go", nil).Payload != "go" {
		t.Fatal("function shorthand is not correct")
	}
}

func TestNodeClassification(t *testing.T) {
	nz := testNormalizer()
	root, err := nz.buildNode("root", "#t", nodeConfig{
		initial: "a",
		states: []State{
			{Name: "a"},
			{Name: "b", States: []State{{Name: "x"}, {Name: "y"}}},
		},
	})
	if err != nil {
		t.Fatal("unexpected error", err)
	}
	if root.Path != "#t.root" || root.Initial != "a" {
		t.Fatal("root is not correct", "path", root.Path, "initial", root.Initial)
	}
	if root.Child("b").Child("y").Path != "#t.root.b.y" {
		t.Fatal("child path is not correct", "path", root.Child("b").Child("y").Path)
	}

	if root.Child("a").Type != kinds.Leaf {
		t.Fatal("a should be a leaf")
	}
	if root.Child("b").Type != kinds.Parallel {
		t.Fatal("b should be parallel")
	}
	if root.Type != kinds.Branch {
		t.Fatal("root should be a branch")
	}
}

func TestMissingInitialChild(t *testing.T) {
	nz := testNormalizer()
	_, err := nz.buildNode("root", "#t", nodeConfig{
		initial: "ghost",
		states:  []State{{Name: "a"}},
	})
	if !errors.Is(err, ErrInvalidDesign) {
		t.Fatal("expected invalid design", "err", err)
	}
}
