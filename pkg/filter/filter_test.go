package filter

import (
	"strings"
	"testing"
)

func TestCompileAndMatch(t *testing.T) {
	f, err := Compile(`item.status == "published"`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	tests := []struct {
		name string
		item map[string]any
		want bool
	}{
		{"published", map[string]any{"status": "published"}, true},
		{"draft", map[string]any{"status": "draft"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.Match(tt.item)
			if err != nil {
				t.Fatalf("match: %v", err)
			}
			if got != tt.want {
				t.Errorf("Match = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestApplyFiltersRows(t *testing.T) {
	f, err := Compile(`item.response_count > 10`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	rows := []map[string]any{
		{"id": "f1", "response_count": 5},
		{"id": "f2", "response_count": 25},
		{"id": "f3", "response_count": 11},
	}
	got, err := f.Apply(rows)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(got) != 2 || got[0]["id"] != "f2" || got[1]["id"] != "f3" {
		t.Errorf("unexpected rows: %v", got)
	}
}

func TestCompileRejectsEmptyExpression(t *testing.T) {
	if _, err := Compile(""); err == nil {
		t.Fatal("expected error for empty expression")
	}
}

func TestCompileRejectsOverlongExpression(t *testing.T) {
	expr := `item.x == "` + strings.Repeat("a", maxExpressionLength) + `"`
	if _, err := Compile(expr); err == nil {
		t.Fatal("expected error for overlong expression")
	}
}

func TestCompileRejectsDeepNesting(t *testing.T) {
	expr := strings.Repeat("(", maxNestingDepth+1) + "true" + strings.Repeat(")", maxNestingDepth+1)
	if _, err := Compile(expr); err == nil {
		t.Fatal("expected error for deep nesting")
	}
}

func TestCompileRejectsSyntaxError(t *testing.T) {
	if _, err := Compile(`item.status ==`); err == nil {
		t.Fatal("expected compile error")
	}
}

func TestMatchNonBooleanResult(t *testing.T) {
	f, err := Compile(`item.status`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if _, err := f.Match(map[string]any{"status": "published"}); err == nil {
		t.Fatal("expected error for non-boolean result")
	}
}

func TestMatchMissingFieldIsError(t *testing.T) {
	f, err := Compile(`item.nope == "x"`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if _, err := f.Match(map[string]any{"status": "published"}); err == nil {
		t.Fatal("expected error for missing field")
	}
}
