package domain

import "testing"

func TestNormalizeDocument(t *testing.T) {
	cases := map[string]string{
		"12.345.678/0001-99": "12345678000199",
		"123.456.789-09":     "12345678909",
		" abc-1d23 ":         "ABC1D23",
		"":                   "",
	}
	for in, want := range cases {
		if got := NormalizeDocument(in); got != want {
			t.Errorf("NormalizeDocument(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeIdentifierFoldsAccents(t *testing.T) {
	if got := NormalizeIdentifier("João da Conceição"); got != "JOAODACONCEICAO" {
		t.Fatalf("NormalizeIdentifier = %q", got)
	}
}

func TestIsPlaceholderDocument(t *testing.T) {
	for _, doc := range []string{"", "00000000000000", "00.000.000/0000-00", "   "} {
		if !IsPlaceholderDocument(doc) {
			t.Errorf("IsPlaceholderDocument(%q) = false", doc)
		}
	}
	if IsPlaceholderDocument("12.345.678/0001-99") {
		t.Errorf("real document reported as placeholder")
	}
}

func TestParsePriority(t *testing.T) {
	cases := map[string]Priority{
		"alta":    PriorityHigh,
		"URGENTE": PriorityUrgent,
		"urgent":  PriorityUrgent,
		"":        PriorityNormal,
		"baixa":   PriorityNormal,
	}
	for in, want := range cases {
		if got := ParsePriority(in); got != want {
			t.Errorf("ParsePriority(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolution(t *testing.T) {
	if _, ok := Unresolved().ID(); ok {
		t.Fatalf("Unresolved reported an id")
	}
	id, ok := Resolved("drv-1").ID()
	if !ok || id != "drv-1" {
		t.Fatalf("Resolved id = %q ok=%v", id, ok)
	}
	if ResolutionFromPtr(nil).IsResolved() {
		t.Fatalf("nil pointer must be unresolved")
	}
	if p := Resolved("x").Ptr(); p == nil || *p != "x" {
		t.Fatalf("Ptr = %v", p)
	}
}
