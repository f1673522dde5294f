package style_test

import (
	"strings"
	"testing"

	"github.com/aad-go/aad/internal/style"
)

func TestNewStyleName_TrimsAndValidates(t *testing.T) {
	name, err := style.NewStyleName("  minimal  ")
	if err != nil {
		t.Fatalf("NewStyleName: %v", err)
	}
	if name.String() != "minimal" {
		t.Fatalf("expected trimmed name, got %q", name.String())
	}
}

func TestNewStyleName_RejectsEmpty(t *testing.T) {
	if _, err := style.NewStyleName("   "); err == nil {
		t.Fatal("expected blank style name to be rejected")
	}
}

func TestNewStyleName_RejectsTooLong(t *testing.T) {
	if _, err := style.NewStyleName(strings.Repeat("a", style.MaxNameLength+1)); err == nil {
		t.Fatal("expected over-length style name to be rejected")
	}
}

func TestTokenMap_ReplaceTokensSubstitutesSimple(t *testing.T) {
	m := style.NewTokenMap()
	m.Insert("feature", "authentication")
	m.Insert("version", "1.0")

	got, err := m.ReplaceTokens("Implementing {{feature}} v{{version}}")
	if err != nil {
		t.Fatalf("ReplaceTokens: %v", err)
	}
	if got != "Implementing authentication v1.0" {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestTokenMap_ReplaceTokensExpandsNested(t *testing.T) {
	m := style.NewTokenMap()
	m.Insert("inner", "world")
	m.Insert("outer", "Hello {{inner}}")

	got, err := m.ReplaceTokens("{{outer}}!")
	if err != nil {
		t.Fatalf("ReplaceTokens: %v", err)
	}
	if got != "Hello world!" {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestTokenMap_ReplaceTokensDetectsCircularReference(t *testing.T) {
	m := style.NewTokenMap()
	m.Insert("a", "{{b}}")
	m.Insert("b", "{{a}}")

	if _, err := m.ReplaceTokens("{{a}}"); err == nil {
		t.Fatal("expected circular reference to be rejected")
	}
}

func TestTokenMap_ReplaceTokensLeavesUnknownTokensAlone(t *testing.T) {
	m := style.NewTokenMap()
	got, err := m.ReplaceTokens("{{unknown}}")
	if err != nil {
		t.Fatalf("ReplaceTokens: %v", err)
	}
	if got != "{{unknown}}" {
		t.Fatalf("expected unknown token left verbatim, got %q", got)
	}
}

func TestTokenMap_ReplaceTokensIsFixedPointForTokenFreeValues(t *testing.T) {
	m := style.NewTokenMap()
	m.Insert("feature", "authentication")
	m.Insert("version", "1.0")

	input := "Implementing {{feature}} v{{version}}"
	once, err := m.ReplaceTokens(input)
	if err != nil {
		t.Fatalf("ReplaceTokens (first pass): %v", err)
	}
	twice, err := m.ReplaceTokens(once)
	if err != nil {
		t.Fatalf("ReplaceTokens (second pass): %v", err)
	}
	if once != twice {
		t.Fatalf("expected fixed point, first=%q second=%q", once, twice)
	}
}

func TestDefaultTokens_HasDateAndAuthor(t *testing.T) {
	m := style.DefaultTokens()
	if _, ok := m.Get("date"); !ok {
		t.Fatal("expected default tokens to include date")
	}
	if _, ok := m.Get("author"); !ok {
		t.Fatal("expected default tokens to include author")
	}
}
