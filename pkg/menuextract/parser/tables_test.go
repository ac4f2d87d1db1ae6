package parser

import (
	"testing"

	"github.com/tlamngu/MenuExtractor/pkg/menuextract/models"
)

func TestUsedRange(t *testing.T) {
	tests := []struct {
		name string
		rows [][]interface{}
		want string
	}{
		{"empty", nil, ""},
		{"blank cells", [][]interface{}{{nil, "  "}}, ""},
		{"offset", [][]interface{}{{nil}, {nil, "x"}, {nil, nil, nil, 4}}, "B2:D3"},
		{"single", [][]interface{}{{"a"}}, "A1:A1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UsedRange(models.GridFromValues(tt.rows)); got != tt.want {
				t.Errorf("UsedRange() = %q, expected %q", got, tt.want)
			}
		})
	}
}
