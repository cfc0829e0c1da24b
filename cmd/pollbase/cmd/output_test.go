package cmd

import (
	"testing"
	"time"

	pollbase "github.com/pollbase/pollbase-go"
)

func TestToRowsUsesJSONFieldNames(t *testing.T) {
	forms := []pollbase.Form{
		{ID: "f1", Title: "Census", Status: "published", ResponseCount: 12},
	}
	rows, err := toRows(forms)
	if err != nil {
		t.Fatalf("toRows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0]["id"] != "f1" || rows[0]["response_count"] != float64(12) {
		t.Errorf("unexpected row: %v", rows[0])
	}
}

func TestToRow(t *testing.T) {
	user := pollbase.User{ID: "u1", Email: "a@b.c", CreatedAt: time.Now()}
	row, err := toRow(user)
	if err != nil {
		t.Fatalf("toRow: %v", err)
	}
	if row["email"] != "a@b.c" {
		t.Errorf("unexpected row: %v", row)
	}
}

func TestFormatCell(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "open", "open"},
		{"integer float", float64(42), "42"},
		{"fraction", 0.25, "0.25"},
		{"bool", true, "true"},
		{"slice", []any{"a", "b"}, `["a","b"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatCell(tt.in); got != tt.want {
				t.Errorf("formatCell(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	if parseLogLevel("debug").String() != "DEBUG" {
		t.Error("debug not mapped")
	}
	if parseLogLevel("").String() != "WARN" {
		t.Error("default should be warn")
	}
}
