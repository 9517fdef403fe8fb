package repository

import (
	"reflect"
	"strings"
)

// irregularPlurals covers the common English nouns whose plural does not
// follow a suffix rule. Lookup is case-insensitive; casing of the first
// letter is preserved.
var irregularPlurals = map[string]string{
	"person": "people",
	"child":  "children",
	"man":    "men",
	"woman":  "women",
	"mouse":  "mice",
	"goose":  "geese",
	"foot":   "feet",
	"tooth":  "teeth",
	"datum":  "data",
	"index":  "indices",
	"status": "statuses",
}

// uncountable nouns keep their singular form.
var uncountable = map[string]bool{
	"equipment": true,
	"money":     true,
	"news":      true,
	"series":    true,
	"sheep":     true,
	"species":   true,
}

// PluralName derives the container name for a model type name using English
// pluralization rules, independent of host locale. The rule set is a
// heuristic: an irregulars table plus the standard suffix rules, with the
// exact behavior pinned down by the package tests.
func PluralName(typeName string) string {
	if typeName == "" {
		return ""
	}

	lower := strings.ToLower(typeName)
	if uncountable[lower] {
		return typeName
	}
	if plural, ok := irregularPlurals[lower]; ok {
		return matchCase(typeName, plural)
	}

	switch {
	case hasAnySuffix(lower, "s", "x", "z", "ch", "sh"):
		return typeName + "es"
	case strings.HasSuffix(lower, "y") && len(lower) > 1 && !isVowel(lower[len(lower)-2]):
		return typeName[:len(typeName)-1] + "ies"
	case strings.HasSuffix(lower, "fe"):
		return typeName[:len(typeName)-2] + "ves"
	case strings.HasSuffix(lower, "f") && !hasAnySuffix(lower, "ff", "oof", "ief"):
		return typeName[:len(typeName)-1] + "ves"
	default:
		return typeName + "s"
	}
}

// ContainerNameFor derives the container name from T's simple type name.
func ContainerNameFor[T any]() string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return PluralName(t.Name())
}

func hasAnySuffix(s string, suffixes ...string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}

func isVowel(c byte) bool {
	return strings.ContainsRune("aeiou", rune(c))
}

// matchCase copies the casing of the original's first letter onto the plural.
func matchCase(original, plural string) string {
	if original == "" || plural == "" {
		return plural
	}
	if original[0] >= 'A' && original[0] <= 'Z' {
		return strings.ToUpper(plural[:1]) + plural[1:]
	}
	return plural
}
