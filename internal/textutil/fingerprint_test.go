package textutil_test

import (
	"testing"

	"cadence/internal/textutil"
)

func TestFingerprintDeterministicAcrossVariants(t *testing.T) {
	base := textutil.Fingerprint("Numb", "Linkin Park", 185)
	variants := []struct {
		title  string
		artist string
	}{
		{" numb ", "Linkin Park"},
		{"NUMB", "LINKIN PARK"},
		{"Numb", "linkin  park"},
	}
	for _, v := range variants {
		if got := textutil.Fingerprint(v.title, v.artist, 185); got != base {
			t.Fatalf("fingerprint for (%q, %q) = %s, want %s", v.title, v.artist, got, base)
		}
	}
}

func TestFingerprintDistinguishesTracks(t *testing.T) {
	a := textutil.Fingerprint("Numb", "Linkin Park", 185)
	b := textutil.Fingerprint("Numb Encore", "Linkin Park", 185)
	c := textutil.Fingerprint("Numb", "Linkin Park", 200)
	if a == b {
		t.Fatal("different titles should produce different fingerprints")
	}
	if a == c {
		t.Fatal("different durations should produce different fingerprints")
	}
}
