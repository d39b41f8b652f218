package runtime

import (
	"math/big"
	"testing"
)

func list(elements ...Value) *ListValue { return &ListValue{Elements: elements} }
func tuple(elements ...Value) Value     { return &TupleValue{Elements: elements} }
func str(s string) StringValue          { return StringValue{Val: s} }

func TestTruthy(t *testing.T) {
	truthy := []Value{
		NewInt(1), FloatValue{Val: 0.5}, str("x"), BoolValue{Val: true},
		list(NewInt(0)), RangeValue{Start: 0, Stop: 3, Step: 1},
	}
	for _, v := range truthy {
		if !Truthy(v) {
			t.Fatalf("expected %s to be truthy", Repr(v))
		}
	}
	falsy := []Value{
		NoneValue{}, NewInt(0), FloatValue{}, str(""), BoolValue{},
		list(), &TupleValue{}, NewDict(), NewSet(),
		RangeValue{Start: 3, Stop: 0, Step: 1},
	}
	for _, v := range falsy {
		if Truthy(v) {
			t.Fatalf("expected %s to be falsy", Repr(v))
		}
	}
}

func TestEqualNumericCrossType(t *testing.T) {
	if !Equal(NewInt(1), FloatValue{Val: 1.0}) {
		t.Fatalf("1 == 1.0 must hold")
	}
	if !Equal(BoolValue{Val: true}, NewInt(1)) {
		t.Fatalf("True == 1 must hold")
	}
	if Equal(NewInt(1), str("1")) {
		t.Fatalf("1 == '1' must not hold")
	}
}

func TestEqualBigInts(t *testing.T) {
	huge := new(big.Int).Lsh(big.NewInt(1), 200)
	a := IntValue{Val: new(big.Int).Set(huge)}
	b := IntValue{Val: new(big.Int).Set(huge)}
	if !Equal(a, b) {
		t.Fatalf("equal big ints compared unequal")
	}
}

func TestEqualContainers(t *testing.T) {
	if !Equal(list(NewInt(1), str("a")), list(NewInt(1), str("a"))) {
		t.Fatalf("element-wise list equality failed")
	}
	if Equal(list(NewInt(1)), tuple(NewInt(1))) {
		t.Fatalf("list must not equal tuple")
	}

	d1 := NewDict()
	_ = d1.Set(str("k"), NewInt(1))
	d2 := NewDict()
	_ = d2.Set(str("k"), NewInt(1))
	if !Equal(d1, d2) {
		t.Fatalf("dict equality failed")
	}
	_ = d2.Set(str("extra"), NewInt(2))
	if Equal(d1, d2) {
		t.Fatalf("dicts of different size compared equal")
	}
}

func TestReprFormats(t *testing.T) {
	cases := []struct {
		value Value
		want  string
	}{
		{NoneValue{}, "None"},
		{BoolValue{Val: true}, "True"},
		{NewInt(42), "42"},
		{FloatValue{Val: 2.0}, "2.0"},
		{FloatValue{Val: 2.5}, "2.5"},
		{str("hi"), "'hi'"},
		{list(NewInt(1), NewInt(2)), "[1, 2]"},
		{tuple(NewInt(1)), "(1,)"},
		{tuple(NewInt(1), NewInt(2)), "(1, 2)"},
		{NewSet(), "set()"},
		{RangeValue{Start: 0, Stop: 5, Step: 1}, "range(0, 5)"},
		{RangeValue{Start: 0, Stop: 5, Step: 2}, "range(0, 5, 2)"},
	}
	for _, tc := range cases {
		if got := Repr(tc.value); got != tc.want {
			t.Fatalf("Repr(%#v): expected %q, got %q", tc.value, tc.want, got)
		}
	}
}

func TestStrUnquotesStrings(t *testing.T) {
	if got := Str(str("hi")); got != "hi" {
		t.Fatalf("expected bare string, got %q", got)
	}
	if got := Str(NewInt(3)); got != "3" {
		t.Fatalf("expected 3, got %q", got)
	}
	exc := &ExceptionValue{Class: &ClassValue{Name: "ValueError"}, Message: "boom"}
	if got := Str(exc); got != "boom" {
		t.Fatalf("str of exception must be its message, got %q", got)
	}
}

func TestExportScalars(t *testing.T) {
	if Export(NoneValue{}) != nil {
		t.Fatalf("None must export as nil")
	}
	if Export(NewInt(7)) != int64(7) {
		t.Fatalf("small int must export as int64")
	}
	huge := IntValue{Val: new(big.Int).Lsh(big.NewInt(1), 100)}
	s, ok := Export(huge).(string)
	if !ok || s != "1267650600228229401496703205376" {
		t.Fatalf("wide int must export as decimal string, got %#v", Export(huge))
	}
}

func TestExportContainers(t *testing.T) {
	exported := Export(list(NewInt(1), str("a"), list(NewInt(2))))
	want := []any{int64(1), "a", []any{int64(2)}}
	got, ok := exported.([]any)
	if !ok || len(got) != len(want) {
		t.Fatalf("unexpected export %#v", exported)
	}

	d := NewDict()
	_ = d.Set(str("n"), NewInt(1))
	_ = d.Set(NewInt(2), str("two"))
	m, ok := Export(d).(map[string]any)
	if !ok {
		t.Fatalf("dict must export as map, got %#v", Export(d))
	}
	if m["n"] != int64(1) || m["2"] != "two" {
		t.Fatalf("unexpected dict export %#v", m)
	}
}

func TestExportRangeExpands(t *testing.T) {
	out, ok := Export(RangeValue{Start: 0, Stop: 3, Step: 1}).([]any)
	if !ok || len(out) != 3 || out[2] != int64(2) {
		t.Fatalf("unexpected range export %#v", out)
	}
}

func TestHashKeyEquivalences(t *testing.T) {
	intKey, _ := HashKey(NewInt(1))
	floatKey, _ := HashKey(FloatValue{Val: 1.0})
	if intKey != floatKey {
		t.Fatalf("1 and 1.0 must collide as keys")
	}
	boolKey, _ := HashKey(BoolValue{Val: true})
	if boolKey != intKey {
		t.Fatalf("True and 1 must collide as keys")
	}
}

func TestDictBoolKeyAliasesInt(t *testing.T) {
	d := NewDict()
	if err := d.Set(NewInt(1), str("one")); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, found, err := d.Get(BoolValue{Val: true})
	if err != nil || !found {
		t.Fatalf("d[True] must find the entry stored under 1, found=%v err=%v", found, err)
	}
	if s, ok := v.(StringValue); !ok || s.Val != "one" {
		t.Fatalf("unexpected value %s", Repr(v))
	}
	s := NewSet()
	_ = s.Add(NewInt(0))
	_ = s.Add(BoolValue{Val: false})
	if s.Len() != 1 {
		t.Fatalf("{0, False} must hold one element, got %d", s.Len())
	}
}

func TestHashKeyTuples(t *testing.T) {
	a, err := HashKey(tuple(NewInt(1), str("x")))
	if err != nil {
		t.Fatalf("tuple hash: %v", err)
	}
	b, _ := HashKey(tuple(NewInt(1), str("x")))
	if a != b {
		t.Fatalf("equal tuples must hash alike")
	}
	c, _ := HashKey(tuple(str("1"), str("x")))
	if a == c {
		t.Fatalf("distinct tuples collided: %q", a)
	}
}

func TestHashKeyRejectsMutableContainers(t *testing.T) {
	for _, v := range []Value{list(), NewDict(), NewSet()} {
		_, err := HashKey(v)
		if err == nil {
			t.Fatalf("expected %s to be unhashable", Repr(v))
		}
		re, ok := err.(*Error)
		if !ok || re.ClassName != "TypeError" {
			t.Fatalf("expected TypeError, got %v", err)
		}
	}
	if _, err := HashKey(tuple(list())); err == nil {
		t.Fatalf("tuple holding a list must be unhashable")
	}
}

func TestDictInsertionOrder(t *testing.T) {
	d := NewDict()
	_ = d.Set(str("b"), NewInt(1))
	_ = d.Set(str("a"), NewInt(2))
	_ = d.Set(str("b"), NewInt(3))

	keys := d.Keys()
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(keys))
	}
	if Str(keys[0]) != "b" || Str(keys[1]) != "a" {
		t.Fatalf("insertion order lost: %s", Repr(d))
	}
	v, found, _ := d.Get(str("b"))
	if !found || v.(IntValue).Val.Int64() != 3 {
		t.Fatalf("overwrite failed: %s", Repr(d))
	}
}

func TestDictDelete(t *testing.T) {
	d := NewDict()
	_ = d.Set(str("a"), NewInt(1))
	removed, err := d.Delete(str("a"))
	if err != nil || !removed {
		t.Fatalf("delete: removed=%v err=%v", removed, err)
	}
	removed, _ = d.Delete(str("a"))
	if removed {
		t.Fatalf("second delete must report absence")
	}
	if d.Len() != 0 {
		t.Fatalf("expected empty dict, got %s", Repr(d))
	}
}

func TestDictUpdatePreservesOrder(t *testing.T) {
	d := NewDict()
	_ = d.Set(str("a"), NewInt(1))
	other := NewDict()
	_ = other.Set(str("a"), NewInt(10))
	_ = other.Set(str("b"), NewInt(2))

	d.Update(other)
	keys := d.Keys()
	if Str(keys[0]) != "a" || Str(keys[1]) != "b" {
		t.Fatalf("update reordered keys: %s", Repr(d))
	}
	v, _, _ := d.Get(str("a"))
	if v.(IntValue).Val.Int64() != 10 {
		t.Fatalf("update did not overwrite: %s", Repr(d))
	}
}

func TestSetDeduplicates(t *testing.T) {
	s := NewSet()
	_ = s.Add(NewInt(1))
	_ = s.Add(NewInt(1))
	_ = s.Add(FloatValue{Val: 1.0})
	if s.Len() != 1 {
		t.Fatalf("expected deduplication, got %s", Repr(s))
	}
	ok, _ := s.Contains(NewInt(1))
	if !ok {
		t.Fatalf("membership lost")
	}
	removed, _ := s.Remove(NewInt(1))
	if !removed || s.Len() != 0 {
		t.Fatalf("remove failed: %s", Repr(s))
	}
}

func TestRangeLen(t *testing.T) {
	cases := []struct {
		r    RangeValue
		want int64
	}{
		{RangeValue{Start: 0, Stop: 5, Step: 1}, 5},
		{RangeValue{Start: 0, Stop: 5, Step: 2}, 3},
		{RangeValue{Start: 5, Stop: 0, Step: -1}, 5},
		{RangeValue{Start: 0, Stop: 0, Step: 1}, 0},
		{RangeValue{Start: 5, Stop: 0, Step: 1}, 0},
	}
	for _, tc := range cases {
		if got := tc.r.Len(); got != tc.want {
			t.Fatalf("%s: expected len %d, got %d", Repr(tc.r), tc.want, got)
		}
	}
}
