package ordered

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMapGet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		desc   string
		input  *MapSS
		key    string
		want   string
		wantOk bool
	}{
		{
			desc:  "nil map",
			input: nil,
			key:   "foo",
		},
		{
			desc:  "empty map created with new()",
			input: new(MapSS),
			key:   "foo",
		},
		{
			desc:   "present key",
			input:  MapFromItems(TupleSS{Key: "foo", Value: "bar"}),
			key:    "foo",
			want:   "bar",
			wantOk: true,
		},
		{
			desc:  "missing key",
			input: MapFromItems(TupleSS{Key: "baz", Value: "bar"}),
			key:   "foo",
		},
	}

	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			t.Parallel()

			got, ok := test.input.Get(test.key)
			if got != test.want || ok != test.wantOk {
				t.Errorf("input.Get(%q) = (%q, %t); want (%q, %t)", test.key, got, ok, test.want, test.wantOk)
			}
		})
	}
}

func TestMapSetKeepsFirstPosition(t *testing.T) {
	t.Parallel()

	m := new(MapSS)
	m.Set("DB_URL", "postgres://a")
	m.Set("TOKEN", "t1")
	m.Set("DB_URL", "postgres://b")

	if diff := cmp.Diff(m.Keys(), []string{"DB_URL", "TOKEN"}); diff != "" {
		t.Errorf("m.Keys() diff (-got +want):\n%s", diff)
	}
	if got, _ := m.Get("DB_URL"); got != "postgres://b" {
		t.Errorf(`m.Get("DB_URL") = %q, want %q`, got, "postgres://b")
	}
}

func TestEqual(t *testing.T) {
	t.Parallel()

	nested := func(v string) *MapSA {
		return MapFromItems(TupleSA{Key: "app", Value: MapFromItems(TupleSA{Key: "k", Value: v})})
	}

	tests := []struct {
		desc string
		a, b *MapSA
		want bool
	}{
		{desc: "both nil", want: true},
		{desc: "nil and empty", a: nil, b: new(MapSA), want: false},
		{desc: "same nested", a: nested("x"), b: nested("x"), want: true},
		{desc: "different nested", a: nested("x"), b: nested("y"), want: false},
		{
			desc: "same items different order",
			a:    MapFromItems(TupleSA{Key: "a", Value: 1}, TupleSA{Key: "b", Value: 2}),
			b:    MapFromItems(TupleSA{Key: "b", Value: 2}, TupleSA{Key: "a", Value: 1}),
			want: false,
		},
	}

	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			t.Parallel()
			if got := Equal(test.a, test.b); got != test.want {
				t.Errorf("Equal(a, b) = %t, want %t", got, test.want)
			}
		})
	}
}
