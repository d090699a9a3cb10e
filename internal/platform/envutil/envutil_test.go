package envutil

import (
	"testing"
	"time"
)

func TestReaders(t *testing.T) {
	t.Setenv("PILLARS_TEST_INT", "42")
	t.Setenv("PILLARS_TEST_BAD", "x")
	t.Setenv("PILLARS_TEST_BOOL", "off")
	t.Setenv("PILLARS_TEST_SECS", "7")
	t.Setenv("PILLARS_TEST_LIST", " sleep, ,diet ")
	t.Setenv("PILLARS_TEST_FLOAT", "0.25")

	if got := Int("PILLARS_TEST_INT", 1); got != 42 {
		t.Fatalf("Int: want=42 got=%d", got)
	}
	if got := Int("PILLARS_TEST_BAD", 3); got != 3 {
		t.Fatalf("Int fallback: want=3 got=%d", got)
	}
	if got := Bool("PILLARS_TEST_BOOL", true); got {
		t.Fatalf("Bool: want=false")
	}
	if got := Seconds("PILLARS_TEST_SECS", time.Second); got != 7*time.Second {
		t.Fatalf("Seconds: want=7s got=%s", got)
	}
	if got := Float("PILLARS_TEST_FLOAT", 1); got != 0.25 {
		t.Fatalf("Float: want=0.25 got=%v", got)
	}
	if got := Float("PILLARS_TEST_BAD", 0.5); got != 0.5 {
		t.Fatalf("Float fallback: want=0.5 got=%v", got)
	}
	got := List("PILLARS_TEST_LIST", nil)
	if len(got) != 2 || got[0] != "sleep" || got[1] != "diet" {
		t.Fatalf("List: got=%v", got)
	}
	if got := String("PILLARS_TEST_UNSET", "d"); got != "d" {
		t.Fatalf("String default: got=%q", got)
	}
}
