package fingerprint

import "testing"

func TestHashDeterministic(t *testing.T) {
	type cfg struct {
		Min int
		Max int
	}
	a, err := Hash("doc-1", cfg{5, 10})
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	b, err := Hash("doc-1", cfg{5, 10})
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if a != b {
		t.Fatalf("identical inputs produced %q and %q", a, b)
	}
}

func TestHashSensitiveToConfig(t *testing.T) {
	a, _ := Hash("doc-1", map[string]int{"min": 5})
	b, _ := Hash("doc-1", map[string]int{"min": 6})
	if a == b {
		t.Fatal("config change must change fingerprint")
	}
}

func TestHashSensitiveToOrder(t *testing.T) {
	a, _ := Hash("x", "y")
	b, _ := Hash("y", "x")
	if a == b {
		t.Fatal("part order must matter")
	}
}

func TestHashStringsIgnoresOrder(t *testing.T) {
	a := HashStrings([]string{"img-2", "img-1"})
	b := HashStrings([]string{"img-1", "img-2"})
	if a != b {
		t.Fatal("set hash must be order independent")
	}
}

func TestShort(t *testing.T) {
	if got := Short("abcdef0123456789"); got != "abcdef012345" {
		t.Fatalf("unexpected prefix %q", got)
	}
	if got := Short("ab"); got != "ab" {
		t.Fatalf("short input should pass through, got %q", got)
	}
}
