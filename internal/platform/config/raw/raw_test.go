package raw

import (
	"testing"
	"time"
)

func TestGet_PrefixAndTrim(t *testing.T) {
	t.Setenv("LOG_LEVEL", "  warn ")
	t.Setenv("LOG_NESTED_X", "y")

	c := New().Prefix("LOG_")
	if got := c.Get("LEVEL", "info"); got != "warn" {
		t.Fatalf("Get = %q, want warn", got)
	}
	if got := c.Get("MISSING", "info"); got != "info" {
		t.Fatalf("Get default = %q, want info", got)
	}
	if got := c.Prefix("NESTED_").Get("X", ""); got != "y" {
		t.Fatalf("nested Get = %q, want y", got)
	}
}

func TestGetBool(t *testing.T) {
	c := New().Prefix("RB_")
	tests := []struct {
		env  string
		def  bool
		want bool
	}{
		{"1", false, true},
		{"TRUE", false, true},
		{"yes", false, true},
		{"0", true, false},
		{"nope", true, false},
		{"", true, true},
	}
	for _, tt := range tests {
		t.Setenv("RB_V", tt.env)
		if got := c.GetBool("V", tt.def); got != tt.want {
			t.Fatalf("GetBool(%q, %v) = %v, want %v", tt.env, tt.def, got, tt.want)
		}
	}
}

func TestGetIntAndDuration(t *testing.T) {
	c := New().Prefix("RI_")
	t.Setenv("RI_N", "12")
	t.Setenv("RI_NEG", "-3")
	t.Setenv("RI_BAD", "x1")
	t.Setenv("RI_D", "3s")

	if got := c.GetInt("N", 0); got != 12 {
		t.Fatalf("GetInt = %d, want 12", got)
	}
	if got := c.GetInt("NEG", 5); got != 5 {
		t.Fatalf("GetInt negative = %d, want default 5", got)
	}
	if got := c.GetInt("BAD", 7); got != 7 {
		t.Fatalf("GetInt bad = %d, want default 7", got)
	}
	if got := c.GetDuration("D", time.Second); got != 3*time.Second {
		t.Fatalf("GetDuration = %v, want 3s", got)
	}
	if got := c.GetDuration("MISSING", time.Second); got != time.Second {
		t.Fatalf("GetDuration default = %v, want 1s", got)
	}
}
