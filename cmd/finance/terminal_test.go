package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestTerminal_Confirm(t *testing.T) {
	tests := []struct {
		input     string
		assumeYes bool
		want      bool
	}{
		{"y\n", false, true},
		{"YES\n", false, true},
		{"да\n", false, true},
		{"n\n", false, false},
		{"\n", false, false},
		{"", false, false},
		{"", true, true},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		term := newTerminal(strings.NewReader(tt.input), &out, tt.assumeYes)
		if got := term.Confirm("Remove?"); got != tt.want {
			t.Errorf("Confirm with %q (yes=%v) = %v, want %v", tt.input, tt.assumeYes, got, tt.want)
		}
		if tt.assumeYes && out.Len() != 0 {
			t.Errorf("prompted despite --yes: %q", out.String())
		}
	}
}

func TestTerminal_Alert(t *testing.T) {
	var out bytes.Buffer
	term := newTerminal(strings.NewReader(""), &out, false)
	if term.alerted() {
		t.Fatal("fresh terminal reports alerts")
	}
	term.Alert("boom")
	if !term.alerted() || out.String() != "error: boom\n" {
		t.Errorf("alerted = %v, out = %q", term.alerted(), out.String())
	}
}
