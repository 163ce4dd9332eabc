package internal

import (
	"testing"
)

func TestNewNumericCode(t *testing.T) {
	for _, digits := range []int{4, 6, 10} {
		code, err := NewNumericCode(digits)
		if err != nil {
			t.Fatalf("NewNumericCode(%d) failed: %v", digits, err)
		}
		if len(code) != digits {
			t.Fatalf("NewNumericCode(%d) length = %d", digits, len(code))
		}
		if !IsNumericString(code) {
			t.Fatalf("NewNumericCode(%d) = %q, not numeric", digits, code)
		}
	}
}

func TestNewNumericCodeRejectsBadLengths(t *testing.T) {
	for _, digits := range []int{0, 3, 11, -1} {
		if _, err := NewNumericCode(digits); err == nil {
			t.Errorf("NewNumericCode(%d) accepted", digits)
		}
	}
}

func TestNewNumericCodeDistribution(t *testing.T) {
	// Leading zeros must be possible; with 200 draws of 4 digits the
	// chance of never seeing a zero anywhere is negligible.
	sawZero := false
	for i := 0; i < 200; i++ {
		code, err := NewNumericCode(4)
		if err != nil {
			t.Fatalf("NewNumericCode failed: %v", err)
		}
		for j := 0; j < len(code); j++ {
			if code[j] == '0' {
				sawZero = true
			}
		}
	}
	if !sawZero {
		t.Fatal("no zero digit in 200 codes; generator looks biased")
	}
}

func TestHashCode(t *testing.T) {
	h := HashCode("4821")
	if len(h) != 64 {
		t.Fatalf("digest length = %d", len(h))
	}
	if h == "4821" {
		t.Fatal("digest equals plaintext")
	}
	if HashCode("4821") != h {
		t.Fatal("digest not deterministic")
	}
	if HashCode("4822") == h {
		t.Fatal("distinct codes share a digest")
	}
}

func TestCodeHashEqual(t *testing.T) {
	stored := HashCode("4821")

	if !CodeHashEqual("4821", stored) {
		t.Fatal("matching code rejected")
	}
	if CodeHashEqual("4822", stored) {
		t.Fatal("wrong code accepted")
	}
	if CodeHashEqual("4821", "") {
		t.Fatal("empty stored hash accepted")
	}
}

func TestIsNumericString(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"0000", true},
		{"4821", true},
		{"", false},
		{"48a1", false},
		{"48 1", false},
		{"-481", false},
	}
	for _, tc := range cases {
		if got := IsNumericString(tc.in); got != tc.want {
			t.Errorf("IsNumericString(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
