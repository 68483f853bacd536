package inputval

import (
	"strings"
	"testing"
)

func TestTitle(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"Quarterly planning", "Quarterly planning", false},
		{"  padded  ", "padded", false},
		{"<script>alert(1)</script>hello", "hello", false},
		{"<b>bold</b> title", "bold title", false},
		{"", "", true},
		{"   ", "", true},
		{"<script></script>", "", true},
		{strings.Repeat("x", 201), "", true},
	}
	for _, tt := range tests {
		got, err := Title(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("Title(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if err == nil && got != tt.want {
			t.Errorf("Title(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestName(t *testing.T) {
	if _, err := Name(strings.Repeat("y", 101)); err == nil {
		t.Error("overlong name should be rejected")
	}
	got, err := Name("Engineering <em>EU</em>")
	if err != nil {
		t.Fatalf("Name failed: %v", err)
	}
	if got != "Engineering EU" {
		t.Errorf("Name = %q, want %q", got, "Engineering EU")
	}
}
