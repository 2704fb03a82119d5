package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractText_MissingFile(t *testing.T) {
	got := PDF{}.ExtractText(filepath.Join(t.TempDir(), "nope.pdf"))
	assert.Empty(t, got)
}

func TestExtractText_NotAPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.pdf")
	if err := os.WriteFile(path, []byte("just some text, not a pdf"), 0o644); err != nil {
		t.Fatal(err)
	}
	assert.NotPanics(t, func() {
		assert.Empty(t, PDF{}.ExtractText(path))
	})
}

func TestIsPDF(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"hw1.pdf", true},
		{"HW1.PDF", true},
		{"scan.png", false},
		{"pdf", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsPDF(tt.name); got != tt.want {
			t.Errorf("IsPDF(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
