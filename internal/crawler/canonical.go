package crawler

import (
	"strconv"
	"strings"
)

// Field and record separators for the canonical serialization. Control
// characters cannot appear in extracted text, so concatenation is unambiguous.
const (
	fieldSep  = "\x1f"
	recordSep = "\x1e"
)

// canonicalBytes serializes the meaningful fields of a recipe in a fixed
// order for hashing. Raw markup never participates, so incidental page churn
// (ads, timestamps) cannot force a spurious update.
func canonicalBytes(rec Recipe) []byte {
	var b strings.Builder
	b.WriteString(rec.Title)
	b.WriteString(recordSep)
	b.WriteString(rec.Cuisine)
	b.WriteString(fieldSep)
	b.WriteString(rec.DishType)
	b.WriteString(fieldSep)
	b.WriteString(rec.Purpose)
	b.WriteString(recordSep)
	for _, ing := range rec.Ingredients {
		b.WriteString(ing.GroupLabel)
		b.WriteString(fieldSep)
		b.WriteString(ing.Name)
		b.WriteString(fieldSep)
		if ing.Quantity != nil {
			b.WriteString(strconv.FormatFloat(*ing.Quantity, 'f', -1, 64))
		}
		b.WriteString(fieldSep)
		b.WriteString(ing.Unit)
		b.WriteString(recordSep)
	}
	b.WriteString(rec.Nutrition.Calories)
	b.WriteString(fieldSep)
	b.WriteString(rec.Nutrition.Proteins)
	b.WriteString(fieldSep)
	b.WriteString(rec.Nutrition.Fats)
	b.WriteString(fieldSep)
	b.WriteString(rec.Nutrition.Carbohydrates)
	b.WriteString(recordSep)
	b.WriteString(rec.Instructions)
	return []byte(b.String())
}

// ContentHash digests the canonical serialization of rec. Two extractions of
// semantically identical content hash identically.
func ContentHash(h Hasher, rec Recipe) (string, error) {
	return h.Hash(canonicalBytes(rec))
}
