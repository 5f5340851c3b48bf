package crawler

import (
	"strconv"
	"strings"
)

// vulgarFractions maps unicode fraction glyphs to their decimal equivalents.
// A leading space keeps glued forms like "2½" summable as "2 0.5".
var vulgarFractions = strings.NewReplacer(
	"½", " 0.5",
	"⅓", " 0.333",
	"⅔", " 0.667",
	"¼", " 0.25",
	"¾", " 0.75",
	"⅕", " 0.2",
	"⅛", " 0.125",
)

// ParseQuantity splits the free-text quantity of an ingredient line into a
// numeric value and a unit. Mixed numbers ("2 1/2") and unicode fractions are
// summed, comma decimal separators are accepted, and the suffix after the
// numeric prefix becomes the unit. Any malformed input yields ok=false with
// the original text as the unit; the function never fails the caller.
func ParseQuantity(raw string) (value float64, ok bool, unit string) {
	original := strings.TrimSpace(raw)
	if original == "" {
		return 0, false, ""
	}

	cleaned := vulgarFractions.Replace(original)
	cleaned = strings.ReplaceAll(cleaned, ",", ".")

	rest := cleaned
	for {
		rest = strings.TrimLeft(rest, " \t")
		run := numericRun(rest)
		if run == "" {
			break
		}
		n, parsed := parseNumericToken(run)
		if !parsed {
			if ok {
				break
			}
			return 0, false, original
		}
		value += n
		ok = true
		rest = rest[len(run):]
	}

	if !ok {
		return 0, false, original
	}
	return value, true, strings.TrimSpace(rest)
}

// numericRun returns the maximal leading run of digits, separators, and
// fraction slashes.
func numericRun(s string) string {
	end := 0
	for end < len(s) {
		c := s[end]
		if (c < '0' || c > '9') && c != '.' && c != '/' {
			break
		}
		end++
	}
	return s[:end]
}

func parseNumericToken(tok string) (float64, bool) {
	if num, den, found := strings.Cut(tok, "/"); found {
		n, errN := strconv.ParseFloat(num, 64)
		d, errD := strconv.ParseFloat(den, 64)
		if errN != nil || errD != nil || d == 0 {
			return 0, false
		}
		return n / d, true
	}
	n, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
