package service

import (
	"strings"
	"testing"
)

func TestGenerateTrackingCodeFormat(t *testing.T) {
	for i := 0; i < 500; i++ {
		code, err := GenerateTrackingCode()
		if err != nil {
			t.Fatalf("generate failed: %v", err)
		}
		if !IsTrackingCode(code) {
			t.Fatalf("code %q does not match pattern", code)
		}
		for _, r := range strings.ReplaceAll(code, "-", "") {
			if !strings.ContainsRune(TrackingCodeAlphabet, r) {
				t.Fatalf("code %q contains %q outside alphabet", code, r)
			}
		}
	}
}

func TestTrackingCodeAlphabet(t *testing.T) {
	if len(TrackingCodeAlphabet) != 32 {
		t.Fatalf("alphabet must have 32 symbols, got %d", len(TrackingCodeAlphabet))
	}
	for _, ambiguous := range "0O1I" {
		if strings.ContainsRune(TrackingCodeAlphabet, ambiguous) {
			t.Fatalf("alphabet contains ambiguous symbol %q", ambiguous)
		}
	}
}

func TestIsTrackingCode(t *testing.T) {
	cases := map[string]bool{
		"ABC-DEF-GHJ":  true,
		"abc-def-ghj":  false,
		"ABC-DEF-GH1":  false,
		"ABCDEFGHJ":    false,
		"ABC-DEF-GHJK": false,
	}
	for code, want := range cases {
		if got := IsTrackingCode(code); got != want {
			t.Fatalf("IsTrackingCode(%q) = %v, want %v", code, got, want)
		}
	}
	if NormalizeTrackingCode(" abc-def-ghj ") != "ABC-DEF-GHJ" {
		t.Fatalf("normalize failed")
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{"pending_payment", "received", true},
		{"received", "processing", true},
		{"processing", "out_for_delivery", true},
		{"out_for_delivery", "completed", true},
		{"pending_payment", "processing", false},
		{"completed", "received", false},
		{"processing", "received", false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestCanAdminTransitionExcludesDispatch(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{"received", "processing", true},
		{"processing", "out_for_delivery", false},
		{"out_for_delivery", "completed", true},
		{"pending_payment", "received", true},
		{"received", "out_for_delivery", false},
	}
	for _, tc := range cases {
		if got := CanAdminTransition(tc.from, tc.to); got != tc.want {
			t.Fatalf("CanAdminTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}
