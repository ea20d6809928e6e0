package tefz

import "testing"

func TestValueRenderKinds(t *testing.T) {
	cases := []struct {
		name  string
		value Value
		want  string
	}{
		{"int32", Int32Value(-12), "-12"},
		{"uint32", Uint32Value(12), "12"},
		{"int64", Int64Value(-1 << 40), "-1099511627776"},
		{"uint64", Uint64Value(1 << 40), "1099511627776"},
		{"float32", Float32Value(1.5), "1.5"},
		{"float64", Float64Value(-0.25), "-0.25"},
		{"string", StringValue("hello"), `"hello"`},
		{"unit", Value{}, "null"},
	}

	for _, tc := range cases {
		got := string(tc.value.appendJSON(nil))
		if got != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestValueRenderEscapesStrings(t *testing.T) {
	v := StringValue(`say "hi"` + "\n")

	got := string(v.appendJSON(nil))
	want := `"say \"hi\"\n"`
	if got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestArgRenderFragment(t *testing.T) {
	var labels LabelTable
	labels.Register(3, "bytes")

	arg := Arg{Key: 3, Value: Int64Value(4096)}

	if got := arg.render(&labels); got != `"bytes":4096` {
		t.Errorf("Expected \"bytes\":4096, got %s", got)
	}
}

func TestArgRenderMemoized(t *testing.T) {
	var labels LabelTable
	labels.Register(3, "bytes")

	arg := Arg{Key: 3, Value: Int64Value(4096)}
	first := arg.render(&labels)

	// Re-registering the key label must not change the cached fragment:
	// the fragment is computed at most once per Arg instance.
	labels.Register(3, "changed")
	second := arg.render(&labels)

	if first != second {
		t.Errorf("Expected memoized fragment %s, got %s", first, second)
	}
}

func TestArgRenderUnregisteredKey(t *testing.T) {
	var labels LabelTable

	arg := Arg{Key: 9, Value: Value{}}

	if got := arg.render(&labels); got != `"":null` {
		t.Errorf("Expected \"\":null, got %s", got)
	}
}
