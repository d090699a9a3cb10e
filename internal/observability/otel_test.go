package observability

import (
	"context"
	"testing"
)

func TestParseHeaders(t *testing.T) {
	cases := []struct {
		raw  string
		want map[string]string
	}{
		{"", nil},
		{"a=1", map[string]string{"a": "1"}},
		{" a = 1 , b=2,junk,c=", map[string]string{"a": "1", "b": "2"}},
		{"x=a=b", map[string]string{"x": "a=b"}},
	}
	for _, tc := range cases {
		got := ParseHeaders(tc.raw)
		if len(got) != len(tc.want) {
			t.Fatalf("%q: want=%v got=%v", tc.raw, tc.want, got)
		}
		for k, v := range tc.want {
			if got[k] != v {
				t.Fatalf("%q[%s]: want=%q got=%q", tc.raw, k, v, got[k])
			}
		}
	}
}

func TestClampRatio(t *testing.T) {
	cases := map[float64]float64{-1: 0.1, 0: 0.1, 0.5: 0.5, 3: 1}
	for in, want := range cases {
		if got := clampRatio(in); got != want {
			t.Fatalf("clampRatio(%v): want=%v got=%v", in, want, got)
		}
	}
}

func TestInitOTelDisabledIsNoop(t *testing.T) {
	shutdown := InitOTel(context.Background(), nil, OtelConfig{Enabled: false})
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
