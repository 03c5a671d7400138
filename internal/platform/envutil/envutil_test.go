package envutil

import "testing"

func TestInt(t *testing.T) {
	t.Setenv("ENVUTIL_INT", " 42 ")
	if got := Int("ENVUTIL_INT", 7); got != 42 {
		t.Fatalf("Int: want=42 got=%d", got)
	}
	t.Setenv("ENVUTIL_INT", "nope")
	if got := Int("ENVUTIL_INT", 7); got != 7 {
		t.Fatalf("Int fallback: want=7 got=%d", got)
	}
}

func TestBool(t *testing.T) {
	cases := []struct {
		raw  string
		def  bool
		want bool
	}{
		{"", true, true},
		{"off", true, false},
		{"YES", false, true},
		{"maybe", false, false},
	}
	for _, tc := range cases {
		t.Setenv("ENVUTIL_BOOL", tc.raw)
		if got := Bool("ENVUTIL_BOOL", tc.def); got != tc.want {
			t.Fatalf("Bool(%q): want=%v got=%v", tc.raw, tc.want, got)
		}
	}
}

func TestStringAndFloat(t *testing.T) {
	t.Setenv("ENVUTIL_STR", "  ")
	if got := String("ENVUTIL_STR", "def"); got != "def" {
		t.Fatalf("String: want=def got=%q", got)
	}
	t.Setenv("ENVUTIL_FLOAT", "0.75")
	if got := Float("ENVUTIL_FLOAT", 1); got != 0.75 {
		t.Fatalf("Float: want=0.75 got=%v", got)
	}
}
