package util

import "testing"

func TestColumnKey(t *testing.T) {
	cases := map[string]string{
		"ARR Time\nApplicability": "arrtimeapplicability",
		"NAS / FAB":               "nas/fab",
		"Change Ind.":             "changeind.",
		"  ID ":                   "id",
	}
	for in, want := range cases {
		if got := ColumnKey(in); got != want {
			t.Fatalf("ColumnKey(%q)=%q want %q", in, got, want)
		}
	}
}

func TestNormalizeID(t *testing.T) {
	if got := NormalizeID(" [lslf1139c] "); got != "LSLF1139C" {
		t.Fatalf("got %q", got)
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("UN852 / rotos, a DCT")
	want := []string{"UN852", "ROTOS", "DCT"}
	if len(got) != len(want) {
		t.Fatalf("tokens=%v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tokens=%v want %v", got, want)
		}
	}
}

func TestDiceCoefficient(t *testing.T) {
	if got := DiceCoefficient("ROTOS", "ROTOS"); got != 1 {
		t.Fatalf("same=%v", got)
	}
	if got := DiceCoefficient("ROTOS", ""); got != 0 {
		t.Fatalf("empty=%v", got)
	}
	if got := DiceCoefficient("ABCD", "ABXY"); got <= 0 || got >= 1 {
		t.Fatalf("partial=%v", got)
	}
}
