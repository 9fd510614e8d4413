package mode

import "testing"

func TestIsValid(t *testing.T) {
	valid := []Mode{Hybrid, Semantic, Keyword}
	for _, m := range valid {
		if !m.IsValid() {
			t.Errorf("%q.IsValid() = false, want true", m)
		}
	}

	invalid := []Mode{"", "full-text", "vector", "HYBRID", "geo"}
	for _, m := range invalid {
		if m.IsValid() {
			t.Errorf("%q.IsValid() = true, want false", m)
		}
	}
}

func TestParse(t *testing.T) {
	m, err := Parse("")
	if err != nil || m != Hybrid {
		t.Errorf("Parse(\"\") = %q, %v; want hybrid", m, err)
	}
	m, err = Parse("keyword")
	if err != nil || m != Keyword {
		t.Errorf("Parse(keyword) = %q, %v", m, err)
	}
	if _, err := Parse("fuzzy"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestUsesEmbedding(t *testing.T) {
	if Keyword.UsesEmbedding() {
		t.Error("keyword must not embed")
	}
	if !Semantic.UsesEmbedding() || !Hybrid.UsesEmbedding() {
		t.Error("semantic and hybrid must embed")
	}
}
