package runtime

import (
	"strconv"
	"strings"
)

// HashKey derives a stable key for dict/set storage. Mutable containers are
// unhashable, matching guest semantics.
func HashKey(v Value) (string, error) {
	switch val := v.(type) {
	case NoneValue:
		return "n:", nil
	case BoolValue:
		// Bools hash like the matching int so d[1] is reachable via True,
		// keeping Equal and HashKey consistent.
		if val.Val {
			return "i:1", nil
		}
		return "i:0", nil
	case IntValue:
		return "i:" + val.Val.String(), nil
	case FloatValue:
		// An integral float hashes like the matching int, so 1.0 and 1
		// collide as dict keys.
		if val.Val == float64(int64(val.Val)) {
			return "i:" + strconv.FormatInt(int64(val.Val), 10), nil
		}
		return "f:" + strconv.FormatFloat(val.Val, 'g', -1, 64), nil
	case StringValue:
		return "s:" + val.Val, nil
	case *TupleValue:
		parts := make([]string, 0, len(val.Elements))
		for _, el := range val.Elements {
			k, err := HashKey(el)
			if err != nil {
				return "", err
			}
			parts = append(parts, strconv.Itoa(len(k))+":"+k)
		}
		return "t:" + strings.Join(parts, ","), nil
	default:
		return "", Errorf("TypeError", "unhashable type: '%s'", v.Kind())
	}
}

type dictEntry struct {
	Key   Value
	Value Value
}

// DictValue is an insertion-ordered mapping.
type DictValue struct {
	order   []string
	entries map[string]dictEntry
}

func (v *DictValue) Kind() Kind { return KindDict }

func NewDict() *DictValue {
	return &DictValue{entries: make(map[string]dictEntry)}
}

func (v *DictValue) Len() int { return len(v.order) }

func (v *DictValue) Get(key Value) (Value, bool, error) {
	hk, err := HashKey(key)
	if err != nil {
		return nil, false, err
	}
	entry, ok := v.entries[hk]
	if !ok {
		return nil, false, nil
	}
	return entry.Value, true, nil
}

func (v *DictValue) Set(key, value Value) error {
	hk, err := HashKey(key)
	if err != nil {
		return err
	}
	if _, exists := v.entries[hk]; !exists {
		v.order = append(v.order, hk)
	}
	v.entries[hk] = dictEntry{Key: key, Value: value}
	return nil
}

func (v *DictValue) Delete(key Value) (bool, error) {
	hk, err := HashKey(key)
	if err != nil {
		return false, err
	}
	if _, ok := v.entries[hk]; !ok {
		return false, nil
	}
	delete(v.entries, hk)
	for i, k := range v.order {
		if k == hk {
			v.order = append(v.order[:i], v.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// Keys returns the keys in insertion order.
func (v *DictValue) Keys() []Value {
	out := make([]Value, 0, len(v.order))
	for _, hk := range v.order {
		out = append(out, v.entries[hk].Key)
	}
	return out
}

// Items returns (key, value) pairs in insertion order.
func (v *DictValue) Items() []TupleValue {
	out := make([]TupleValue, 0, len(v.order))
	for _, hk := range v.order {
		e := v.entries[hk]
		out = append(out, TupleValue{Elements: []Value{e.Key, e.Value}})
	}
	return out
}

// Update copies all entries from other, preserving other's order for new keys.
func (v *DictValue) Update(other *DictValue) {
	for _, hk := range other.order {
		e := other.entries[hk]
		if _, exists := v.entries[hk]; !exists {
			v.order = append(v.order, hk)
		}
		v.entries[hk] = e
	}
}

// SetValue is an insertion-ordered set.
type SetValue struct {
	order   []string
	entries map[string]Value
}

func (v *SetValue) Kind() Kind { return KindSet }

func NewSet() *SetValue {
	return &SetValue{entries: make(map[string]Value)}
}

func (v *SetValue) Len() int { return len(v.order) }

func (v *SetValue) Add(element Value) error {
	hk, err := HashKey(element)
	if err != nil {
		return err
	}
	if _, exists := v.entries[hk]; !exists {
		v.order = append(v.order, hk)
		v.entries[hk] = element
	}
	return nil
}

func (v *SetValue) Contains(element Value) (bool, error) {
	hk, err := HashKey(element)
	if err != nil {
		return false, err
	}
	_, ok := v.entries[hk]
	return ok, nil
}

func (v *SetValue) Remove(element Value) (bool, error) {
	hk, err := HashKey(element)
	if err != nil {
		return false, err
	}
	if _, ok := v.entries[hk]; !ok {
		return false, nil
	}
	delete(v.entries, hk)
	for i, k := range v.order {
		if k == hk {
			v.order = append(v.order[:i], v.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// Elements returns members in insertion order.
func (v *SetValue) Elements() []Value {
	out := make([]Value, 0, len(v.order))
	for _, hk := range v.order {
		out = append(out, v.entries[hk])
	}
	return out
}
