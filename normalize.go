package statedesigner

import (
	"context"
	"fmt"
)

// handlerItem is the normalized form of one handler item: every slot resolved
// to functions, every list present (possibly empty).
type handlerItem[D any] struct {
	get    []Result[D]
	ifAll  []Condition[D]
	ifAny  []Condition[D]
	unless []Condition[D]
	wait   Time[D]

	do         []Action[D]
	secretlyDo []Action[D]
	send       SendFn[D]
	to         Target[D]
	secretlyTo Target[D]

	elseDo   []Action[D]
	elseSend SendFn[D]
	elseTo   Target[D]
}

type handlerChain[D any] []*handlerItem[D]

// normalizer expands handler shorthands against a design's named libraries.
type normalizer[D any] struct {
	results    map[string]Result[D]
	conditions map[string]Condition[D]
	actions    map[string]Action[D]
	asyncs     map[string]Async[D]
	times      map[string]Time[D]
}

func newNormalizer[D any](design *Design[D]) *normalizer[D] {
	return &normalizer[D]{
		results:    design.Results,
		conditions: design.Conditions,
		actions:    design.Actions,
		asyncs:     design.Asyncs,
		times:      design.Times,
	}
}

// chain expands an event-level shorthand into a handler chain.
func (nz *normalizer[D]) chain(shorthand any) (handlerChain[D], error) {
	switch v := shorthand.(type) {
	case nil:
		return nil, nil
	case []Item:
		chain := make(handlerChain[D], 0, len(v))
		for _, it := range v {
			item, err := nz.fullItem(it)
			if err != nil {
				return nil, err
			}
			chain = append(chain, item)
		}
		return chain, nil
	case []any:
		chain := make(handlerChain[D], 0, len(v))
		for _, el := range v {
			item, err := nz.item(el)
			if err != nil {
				return nil, err
			}
			chain = append(chain, item)
		}
		return chain, nil
	default:
		item, err := nz.item(shorthand)
		if err != nil {
			return nil, err
		}
		return handlerChain[D]{item}, nil
	}
}

func (nz *normalizer[D]) optionalChain(shorthand any) (handlerChain[D], error) {
	if shorthand == nil {
		return nil, nil
	}
	return nz.chain(shorthand)
}

// item expands one chain element. A bare function lands in do. A string lands
// in the slot of the library that defines it: Actions (do), else Conditions
// (if), else Results (get), else Times (wait).
func (nz *normalizer[D]) item(v any) (*handlerItem[D], error) {
	switch it := v.(type) {
	case Item:
		return nz.fullItem(it)
	case *Item:
		return nz.fullItem(*it)
	case map[string]any:
		full, err := itemFromMap(it)
		if err != nil {
			return nil, err
		}
		return nz.fullItem(full)
	default:
		if name, ok := v.(string); ok {
			if _, isAction := nz.actions[name]; !isAction {
				if condition, ok := nz.conditions[name]; ok {
					return &handlerItem[D]{ifAll: []Condition[D]{condition}}, nil
				}
				if result, ok := nz.results[name]; ok {
					return &handlerItem[D]{get: []Result[D]{result}}, nil
				}
				if wait, ok := nz.times[name]; ok {
					return &handlerItem[D]{wait: wait}, nil
				}
			}
		}
		do, err := nz.actionList(v)
		if err != nil {
			return nil, err
		}
		return &handlerItem[D]{do: do}, nil
	}
}

func (nz *normalizer[D]) fullItem(it Item) (*handlerItem[D], error) {
	var (
		item handlerItem[D]
		err  error
	)
	if item.get, err = nz.resultList(it.Get); err != nil {
		return nil, err
	}
	if item.ifAll, err = nz.conditionList(it.If); err != nil {
		return nil, err
	}
	if item.ifAny, err = nz.conditionList(it.IfAny); err != nil {
		return nil, err
	}
	if item.unless, err = nz.conditionList(it.Unless); err != nil {
		return nil, err
	}
	if item.wait, err = nz.timeOf(it.Wait); err != nil {
		return nil, err
	}
	if item.do, err = nz.actionList(it.Do); err != nil {
		return nil, err
	}
	if item.secretlyDo, err = nz.actionList(it.SecretlyDo); err != nil {
		return nil, err
	}
	if item.elseDo, err = nz.actionList(it.ElseDo); err != nil {
		return nil, err
	}
	if item.send, err = nz.sendOf(it.Send); err != nil {
		return nil, err
	}
	if item.elseSend, err = nz.sendOf(it.ElseSend); err != nil {
		return nil, err
	}
	if item.to, err = nz.targetOf(it.To); err != nil {
		return nil, err
	}
	if item.secretlyTo, err = nz.targetOf(it.SecretlyTo); err != nil {
		return nil, err
	}
	if item.elseTo, err = nz.targetOf(it.ElseTo); err != nil {
		return nil, err
	}
	return &item, nil
}

func itemFromMap(m map[string]any) (Item, error) {
	var it Item
	for key, value := range m {
		switch key {
		case "get":
			it.Get = value
		case "if":
			it.If = value
		case "ifAny":
			it.IfAny = value
		case "unless":
			it.Unless = value
		case "wait":
			it.Wait = value
		case "do":
			it.Do = value
		case "secretlyDo":
			it.SecretlyDo = value
		case "send":
			it.Send = value
		case "to":
			it.To = value
		case "secretlyTo":
			it.SecretlyTo = value
		case "elseDo":
			it.ElseDo = value
		case "elseSend":
			it.ElseSend = value
		case "elseTo":
			it.ElseTo = value
		default:
			return it, fmt.Errorf("%w: unknown handler key %q", ErrInvalidDesign, key)
		}
	}
	return it, nil
}

func (nz *normalizer[D]) actionList(v any) ([]Action[D], error) {
	switch fn := v.(type) {
	case nil:
		return nil, nil
	case Action[D]:
		return []Action[D]{fn}, nil
	case func(*D, any, any):
		return []Action[D]{fn}, nil
	case string:
		action, ok := nz.actions[fn]
		if !ok {
			return nil, fmt.Errorf("%w: unknown action %q", ErrInvalidDesign, fn)
		}
		return []Action[D]{action}, nil
	case []Action[D]:
		return fn, nil
	case []string:
		return nz.actionList(anySlice(fn))
	case []any:
		var actions []Action[D]
		for _, el := range fn {
			expanded, err := nz.actionList(el)
			if err != nil {
				return nil, err
			}
			actions = append(actions, expanded...)
		}
		return actions, nil
	default:
		return nil, fmt.Errorf("%w: %T is not an action", ErrInvalidDesign, v)
	}
}

func (nz *normalizer[D]) conditionList(v any) ([]Condition[D], error) {
	switch fn := v.(type) {
	case nil:
		return nil, nil
	case Condition[D]:
		return []Condition[D]{fn}, nil
	case func(*D, any, any) bool:
		return []Condition[D]{fn}, nil
	case string:
		condition, ok := nz.conditions[fn]
		if !ok {
			return nil, fmt.Errorf("%w: unknown condition %q", ErrInvalidDesign, fn)
		}
		return []Condition[D]{condition}, nil
	case []Condition[D]:
		return fn, nil
	case []string:
		return nz.conditionList(anySlice(fn))
	case []any:
		var conditions []Condition[D]
		for _, el := range fn {
			expanded, err := nz.conditionList(el)
			if err != nil {
				return nil, err
			}
			conditions = append(conditions, expanded...)
		}
		return conditions, nil
	default:
		return nil, fmt.Errorf("%w: %T is not a condition", ErrInvalidDesign, v)
	}
}

func (nz *normalizer[D]) resultList(v any) ([]Result[D], error) {
	switch fn := v.(type) {
	case nil:
		return nil, nil
	case Result[D]:
		return []Result[D]{fn}, nil
	case func(*D, any, any) any:
		return []Result[D]{fn}, nil
	case string:
		result, ok := nz.results[fn]
		if !ok {
			return nil, fmt.Errorf("%w: unknown result %q", ErrInvalidDesign, fn)
		}
		return []Result[D]{result}, nil
	case []Result[D]:
		return fn, nil
	case []string:
		return nz.resultList(anySlice(fn))
	case []any:
		var results []Result[D]
		for _, el := range fn {
			expanded, err := nz.resultList(el)
			if err != nil {
				return nil, err
			}
			results = append(results, expanded...)
		}
		return results, nil
	default:
		return nil, fmt.Errorf("%w: %T is not a result", ErrInvalidDesign, v)
	}
}

func (nz *normalizer[D]) timeOf(v any) (Time[D], error) {
	switch fn := v.(type) {
	case nil:
		return nil, nil
	case Time[D]:
		return fn, nil
	case func(*D, any, any) float64:
		return fn, nil
	case float64:
		return func(*D, any, any) float64 { return fn }, nil
	case int:
		return func(*D, any, any) float64 { return float64(fn) }, nil
	case string:
		time, ok := nz.times[fn]
		if !ok {
			return nil, fmt.Errorf("%w: unknown time %q", ErrInvalidDesign, fn)
		}
		return time, nil
	default:
		return nil, fmt.Errorf("%w: %T is not a time", ErrInvalidDesign, v)
	}
}

func (nz *normalizer[D]) sendOf(v any) (SendFn[D], error) {
	switch fn := v.(type) {
	case nil:
		return nil, nil
	case SendFn[D]:
		return fn, nil
	case func(*D, any, any) Event:
		return fn, nil
	case Event:
		return func(*D, any, any) Event { return fn }, nil
	case string:
		return func(*D, any, any) Event { return Event{Name: fn} }, nil
	case map[string]any:
		name, ok := fn["event"].(string)
		if !ok {
			return nil, fmt.Errorf("%w: send is missing an event name", ErrInvalidDesign)
		}
		ev := Event{Name: name, Payload: fn["payload"]}
		return func(*D, any, any) Event { return ev }, nil
	default:
		return nil, fmt.Errorf("%w: %T is not a send", ErrInvalidDesign, v)
	}
}

func (nz *normalizer[D]) targetOf(v any) (Target[D], error) {
	switch fn := v.(type) {
	case nil:
		return nil, nil
	case Target[D]:
		return fn, nil
	case func(*D, any, any) string:
		return fn, nil
	case string:
		return func(*D, any, any) string { return fn }, nil
	default:
		return nil, fmt.Errorf("%w: %T is not a transition target", ErrInvalidDesign, v)
	}
}

func (nz *normalizer[D]) asyncOf(v any) (Async[D], error) {
	switch fn := v.(type) {
	case Async[D]:
		return fn, nil
	case func(context.Context, D, any, any) (any, error):
		return fn, nil
	case string:
		async, ok := nz.asyncs[fn]
		if !ok {
			return nil, fmt.Errorf("%w: unknown async %q", ErrInvalidDesign, fn)
		}
		return async, nil
	default:
		return nil, fmt.Errorf("%w: %T is not an async", ErrInvalidDesign, v)
	}
}

func (nz *normalizer[D]) repeat(r *Repeat) (*repeatEffect[D], error) {
	delay, err := nz.timeOf(r.Delay)
	if err != nil {
		return nil, err
	}
	if r.OnRepeat == nil {
		return nil, fmt.Errorf("%w: repeat is missing onRepeat", ErrInvalidDesign)
	}
	onRepeat, err := nz.chain(r.OnRepeat)
	if err != nil {
		return nil, err
	}
	return &repeatEffect[D]{delay: delay, onRepeat: onRepeat}, nil
}

func (nz *normalizer[D]) async(a *Await) (*asyncEffect[D], error) {
	if a.Await == nil {
		return nil, fmt.Errorf("%w: async is missing await", ErrInvalidDesign)
	}
	await, err := nz.asyncOf(a.Await)
	if err != nil {
		return nil, err
	}
	if a.OnResolve == nil {
		return nil, fmt.Errorf("%w: async is missing onResolve", ErrInvalidDesign)
	}
	onResolve, err := nz.chain(a.OnResolve)
	if err != nil {
		return nil, err
	}
	effect := &asyncEffect[D]{await: await, onResolve: onResolve}
	if a.OnReject != nil {
		if effect.onReject, err = nz.chain(a.OnReject); err != nil {
			return nil, err
		}
	}
	return effect, nil
}

func anySlice[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
