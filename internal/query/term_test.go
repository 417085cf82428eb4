package query

import "testing"

func TestExpand(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		or   bool
		want string
	}{
		{"empty", "", false, "*"},
		{"blank", "   ", false, "*"},
		{"only reserved", "!()", false, "*"},
		{"single", "bear", false, "bear OR bear*"},
		{"single reserved stripped", "po(lar)^", false, "polar OR polar*"},
		{"wildcard", "*", false, "*"},
		{"prefix kept", "ice*", false, "ice*"},
		{"multiword", "polar  bear cub", false, "(polar OR polar*) AND (bear OR bear*) AND (cub OR cub*)"},
		{"multiword or", "polar bear cub", true, "polar OR bear OR cub"},
		{"boolean", "ice AND snow", false, "ice AND snow"},
		{"boolean or", "ice OR snow", false, "ice OR snow"},
		{"lowercase and is a word", "ice and snow", false, "(ice OR ice*) AND (and OR and*) AND (snow OR snow*)"},
		{"phrase", `"sea ice"`, false, "(sea OR sea*) AND (ice OR ice*)"},
		{"phrase with context", `arctic "sea ice" extent`, false, "arctic (sea OR sea*) AND (ice OR ice*) extent"},
		{"quoted single word", `"ice"`, false, "ice"},
		{"unpaired quote", `polar "bear`, false, "(polar OR polar*) AND (bear OR bear*)"},
		{"phrase with trailing quote", `"sea ice" "extent`, false, "(sea OR sea*) AND (ice OR ice*) extent"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Expand(tt.raw, tt.or); got != tt.want {
				t.Errorf("Expand(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestClassifyTerm(t *testing.T) {
	tests := []struct {
		q    string
		want TermClass
	}{
		{"bear", TermSingle},
		{"polar bear", TermMultiword},
		{`"polar bear"`, TermPhrase},
		{"polar AND bear", TermBoolean},
		{`"polar" OR bear`, TermBoolean},
		{"ANDROID phone", TermMultiword},
	}

	for _, tt := range tests {
		if got := ClassifyTerm(tt.q); got != tt.want {
			t.Errorf("ClassifyTerm(%q) = %s, want %s", tt.q, got, tt.want)
		}
	}
}

func TestClean(t *testing.T) {
	if got := Clean("  a  (b) ~c:d's  "); got != "a b cds" {
		t.Errorf("Clean() = %q", got)
	}
	if got := Clean(`"sea ice" ext"ent`); got != `"sea ice" extent` {
		t.Errorf("Clean() = %q", got)
	}
}
