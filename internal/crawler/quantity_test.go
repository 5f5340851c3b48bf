package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantValue float64
		wantOK    bool
		wantUnit  string
	}{
		{name: "mixed number", raw: "2 1/2 cups", wantValue: 2.5, wantOK: true, wantUnit: "cups"},
		{name: "vulgar fraction", raw: "½ tsp", wantValue: 0.5, wantOK: true, wantUnit: "tsp"},
		{name: "glued vulgar fraction", raw: "1½ tbsp", wantValue: 1.5, wantOK: true, wantUnit: "tbsp"},
		{name: "cyrillic unit", raw: "300 г", wantValue: 300, wantOK: true, wantUnit: "г"},
		{name: "comma decimal", raw: "0,5 л", wantValue: 0.5, wantOK: true, wantUnit: "л"},
		{name: "plain fraction", raw: "3/4 cup", wantValue: 0.75, wantOK: true, wantUnit: "cup"},
		{name: "bare integer", raw: "2", wantValue: 2, wantOK: true, wantUnit: ""},
		{name: "no numeric prefix", raw: "to taste", wantOK: false, wantUnit: "to taste"},
		{name: "zero denominator", raw: "1/0 kg", wantOK: false, wantUnit: "1/0 kg"},
		{name: "empty", raw: "", wantOK: false, wantUnit: ""},
		{name: "whitespace only", raw: "   ", wantOK: false, wantUnit: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			value, ok, unit := ParseQuantity(tc.raw)
			require.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.wantUnit, unit)
			if tc.wantOK {
				assert.InDelta(t, tc.wantValue, value, 0.001)
			}
		})
	}
}

func TestParseQuantityNeverPanics(t *testing.T) {
	for _, raw := range []string{"/", "//", "1/", "/2", "...", "1.2.3 kg", "½½"} {
		assert.NotPanics(t, func() { ParseQuantity(raw) }, "input %q", raw)
	}
}
