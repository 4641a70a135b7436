// Package font defines font identifiers and the variant heuristic used to map
// them onto platform font names.
package font

import (
	"fmt"
	"strings"

	"github.com/cperrin88/inkwell/pkg/errutils"
)

// Variant is the raw variant code used by the remote catalog.
type Variant string

const (
	Regular    Variant = "regular"
	Bold       Variant = "700"
	Italic     Variant = "italic"
	BoldItalic Variant = "700italic"
)

var variantAliases = map[string]Variant{
	"regular":     Regular,
	"normal":      Regular,
	"400":         Regular,
	"bold":        Bold,
	"700":         Bold,
	"italic":      Italic,
	"400italic":   Italic,
	"bolditalic":  BoldItalic,
	"bold-italic": BoldItalic,
	"bold_italic": BoldItalic,
	"700italic":   BoldItalic,
}

// Variants returns the supported variants in catalog order.
func Variants() []Variant {
	return []Variant{Regular, Bold, Italic, BoldItalic}
}

// ParseVariant accepts a raw code or a friendly alias and returns the raw code.
func ParseVariant(s string) (Variant, error) {
	v, ok := variantAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", errutils.ErrInvalidVariantWithValue(s)
	}
	return v, nil
}

// Code returns the raw catalog code.
func (v Variant) Code() string { return string(v) }

// Name returns a human readable name.
func (v Variant) Name() string {
	switch v {
	case Regular:
		return "Regular"
	case Bold:
		return "Bold"
	case Italic:
		return "Italic"
	case BoldItalic:
		return "BoldItalic"
	default:
		return string(v)
	}
}

func (v Variant) IsBold() bool   { return v == Bold || v == BoldItalic }
func (v Variant) IsItalic() bool { return v == Italic || v == BoldItalic }

// Valid reports whether v is one of the supported codes.
func (v Variant) Valid() bool {
	switch v {
	case Regular, Bold, Italic, BoldItalic:
		return true
	}
	return false
}

// Identifier is a logical font reference independent of any platform name.
type Identifier struct {
	Family  string  `json:"family"`
	Variant Variant `json:"variant"`
}

// New builds an identifier, normalizing the variant.
func New(family, variant string) (Identifier, error) {
	v, err := ParseVariant(variant)
	if err != nil {
		return Identifier{}, err
	}
	id := Identifier{Family: strings.TrimSpace(family), Variant: v}
	if err := id.Validate(); err != nil {
		return Identifier{}, err
	}
	return id, nil
}

// Validate checks that the identifier can be used as a cache key.
func (id Identifier) Validate() error {
	if strings.TrimSpace(id.Family) == "" {
		return errutils.ErrEmptyFamily
	}
	if !id.Variant.Valid() {
		return errutils.ErrInvalidVariantWithValue(string(id.Variant))
	}
	return nil
}

// Key is the stable cache key, family + "-" + variant code.
func (id Identifier) Key() string {
	return id.Family + "-" + id.Variant.Code()
}

// Filename is the on-disk name of the identifier's font file.
func (id Identifier) Filename() string {
	r := strings.NewReplacer("/", "_", "\\", "_", "\x00", "_")
	name := r.Replace(id.Key())
	if strings.HasPrefix(name, ".") {
		name = "_" + name[1:]
	}
	return name + ".ttf"
}

func (id Identifier) String() string {
	return fmt.Sprintf("%s (%s)", id.Family, id.Variant.Name())
}
