package font

import (
	"sort"
	"unicode"

	"golang.org/x/text/cases"
)

type rule struct {
	required  []string
	forbidden []string
}

var (
	slantTokens  = []string{"italic", "oblique"}
	weightTokens = []string{
		"thin", "hairline", "extralight", "ultralight", "light",
		"medium", "semibold", "demibold", "extrabold", "ultrabold",
		"black", "heavy",
	}
)

// variantRules lists, per variant, the rules tried in order. The first rule
// that matches at least one name wins.
var variantRules = map[Variant][]rule{
	Regular: {
		{required: []string{"regular"}},
		{required: []string{"roman"}},
		{required: []string{"book"}},
		{forbidden: append([]string{"bold", "italic", "oblique"}, weightTokens...)},
		{forbidden: []string{"bold", "italic", "oblique"}},
	},
	Bold: {
		{required: []string{"bold"}, forbidden: slantTokens},
	},
	Italic: {
		{required: []string{"italic"}, forbidden: []string{"bold"}},
		{required: []string{"oblique"}, forbidden: []string{"bold"}},
	},
	BoldItalic: {
		{required: []string{"bold", "italic"}},
		{required: []string{"bold", "oblique"}},
	},
}

// MatchVariant picks the platform name in names that best corresponds to
// variant within family. It returns false when no rule matches.
func MatchVariant(family string, names []string, variant Variant) (string, bool) {
	rules, ok := variantRules[variant]
	if !ok || len(names) == 0 {
		return "", false
	}

	tokens := make(map[string]map[string]bool, len(names))
	for _, n := range names {
		set := map[string]bool{}
		for _, t := range Tokenize(family, n) {
			set[t] = true
		}
		tokens[n] = set
	}

	for _, r := range rules {
		var candidates []string
		for _, n := range names {
			if r.accepts(tokens[n]) {
				candidates = append(candidates, n)
			}
		}
		if len(candidates) > 0 {
			return SortNames(candidates)[0], true
		}
	}
	return "", false
}

func (r rule) accepts(set map[string]bool) bool {
	for _, t := range r.required {
		if !set[t] {
			return false
		}
	}
	for _, t := range r.forbidden {
		if set[t] {
			return false
		}
	}
	return true
}

// modifier prefixes are joined to the following token ("Semi Bold" -> "semibold").
var modifiers = map[string]bool{"semi": true, "demi": true, "extra": true, "ultra": true}

// Tokenize strips the family prefix from name and splits the rest into
// case-folded style tokens.
func Tokenize(family, name string) []string {
	rest := stripFamily(family, name)
	folder := cases.Fold()

	var out []string
	pending := ""
	for _, word := range splitWords(rest) {
		w := folder.String(word)
		if modifiers[w] {
			pending += w
			continue
		}
		out = append(out, pending+w)
		pending = ""
	}
	if pending != "" {
		out = append(out, pending)
	}
	return out
}

// stripFamily removes family from the front of name, ignoring case and spaces.
// The name is returned unchanged when it does not start with the family.
func stripFamily(family, name string) string {
	var fam []rune
	for _, r := range family {
		if !unicode.IsSpace(r) {
			fam = append(fam, unicode.ToLower(r))
		}
	}
	if len(fam) == 0 {
		return name
	}
	j := 0
	for i, r := range name {
		if j == len(fam) {
			return name[i:]
		}
		if unicode.IsSpace(r) {
			continue
		}
		if unicode.ToLower(r) != fam[j] {
			return name
		}
		j++
	}
	if j == len(fam) {
		return ""
	}
	return name
}

// splitWords splits on separators and camel-case boundaries. Runs of capitals
// stay together ("PSMT"), and a capital run followed by a lower case letter
// hands its last capital to the next word ("MTBold" -> "MT", "Bold").
func splitWords(s string) []string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '-' || r == '_' || r == ',' || r == '.' || unicode.IsSpace(r):
			flush()
			continue
		case unicode.IsUpper(r) && len(cur) > 0:
			prev := cur[len(cur)-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		case len(cur) > 0 && unicode.IsDigit(r) != unicode.IsDigit(cur[len(cur)-1]):
			flush()
		}
		cur = append(cur, r)
	}
	flush()
	return words
}

// SortNames orders names the same way MatchVariant breaks ties.
func SortNames(names []string) []string {
	out := append([]string(nil), names...)
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) < len(out[j])
		}
		return out[i] < out[j]
	})
	return out
}
