package font

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestMatchVariantHelvetica(t *testing.T) {
	names := []string{"Helvetica-Bold", "Helvetica", "Helvetica-Oblique", "Helvetica-BoldOblique"}

	tests := []struct {
		variant Variant
		want    string
	}{
		{Regular, "Helvetica"},
		{Bold, "Helvetica-Bold"},
		{Italic, "Helvetica-Oblique"},
		{BoldItalic, "Helvetica-BoldOblique"},
	}

	for _, tt := range tests {
		t.Run(tt.variant.Name(), func(t *testing.T) {
			got, ok := MatchVariant("Helvetica", names, tt.variant)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchVariant(t *testing.T) {
	tests := []struct {
		name    string
		family  string
		names   []string
		variant Variant
		want    string
		found   bool
	}{
		{
			name:    "explicit regular wins over bare family",
			family:  "ABeeZee",
			names:   []string{"ABeeZee", "ABeeZee-Regular", "ABeeZee-Italic"},
			variant: Regular,
			want:    "ABeeZee-Regular",
			found:   true,
		},
		{
			name:    "italic preferred over oblique",
			family:  "Open Sans",
			names:   []string{"OpenSans-Oblique", "OpenSans-Italic"},
			variant: Italic,
			want:    "OpenSans-Italic",
			found:   true,
		},
		{
			name:    "semibold is not bold",
			family:  "Roboto",
			names:   []string{"Roboto-SemiBold", "Roboto-Bold"},
			variant: Bold,
			want:    "Roboto-Bold",
			found:   true,
		},
		{
			name:    "weights avoided for regular",
			family:  "Roboto",
			names:   []string{"Roboto-Light", "Roboto-Medium", "RobotoMT"},
			variant: Regular,
			want:    "RobotoMT",
			found:   true,
		},
		{
			name:    "loose regular fallback",
			family:  "Roboto",
			names:   []string{"Roboto-Medium", "Roboto-Light"},
			variant: Regular,
			want:    "Roboto-Light",
			found:   true,
		},
		{
			name:    "family with spaces",
			family:  "Times New Roman",
			names:   []string{"TimesNewRomanPS-BoldMT", "TimesNewRomanPSMT"},
			variant: Bold,
			want:    "TimesNewRomanPS-BoldMT",
			found:   true,
		},
		{
			name:    "no bold italic available",
			family:  "Helvetica",
			names:   []string{"Helvetica", "Helvetica-Bold"},
			variant: BoldItalic,
			found:   false,
		},
		{
			name:    "no names",
			family:  "Arial",
			variant: Regular,
			found:   false,
		},
		{
			name:    "unknown variant",
			family:  "Arial",
			names:   []string{"Arial"},
			variant: "heavy",
			found:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := MatchVariant(tt.family, tt.names, tt.variant)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		family string
		name   string
		want   []string
	}{
		{"Helvetica", "Helvetica-BoldOblique", []string{"bold", "oblique"}},
		{"Helvetica", "Helvetica", nil},
		{"Open Sans", "OpenSans-SemiBoldItalic", []string{"semibold", "italic"}},
		{"Open Sans", "Open Sans Extra Bold", []string{"extrabold"}},
		{"Times New Roman", "TimesNewRomanPS-BoldItalicMT", []string{"ps", "bold", "italic", "mt"}},
		{"Foo", "Bar_Light", []string{"bar", "light"}},
		{"Foo", "Foo-700italic", []string{"700", "italic"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.family, tt.name))
		})
	}
}

func TestMatchVariantDeterminism(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	styles := []string{"", "-Bold", "-Italic", "-Oblique", "-BoldItalic", "-Light", "-Regular", "-SemiBold"}

	properties.Property("result does not depend on enumeration order", prop.ForAll(
		func(family string, picks []int, idx int) bool {
			var names []string
			for _, p := range picks {
				names = append(names, family+styles[p])
			}
			reversed := make([]string, len(names))
			for i, n := range names {
				reversed[len(names)-1-i] = n
			}
			v := Variants()[idx]
			a, okA := MatchVariant(family, names, v)
			b, okB := MatchVariant(family, reversed, v)
			return a == b && okA == okB
		},
		gen.AlphaString(),
		gen.SliceOf(gen.IntRange(0, len(styles)-1)),
		gen.IntRange(0, 3),
	))

	properties.Property("a match is always one of the candidates", prop.ForAll(
		func(family string, picks []int, idx int) bool {
			var names []string
			for _, p := range picks {
				names = append(names, family+styles[p])
			}
			got, ok := MatchVariant(family, names, Variants()[idx])
			if !ok {
				return true
			}
			for _, n := range names {
				if n == got {
					return true
				}
			}
			return false
		},
		gen.AlphaString(),
		gen.SliceOf(gen.IntRange(0, len(styles)-1)),
		gen.IntRange(0, 3),
	))

	properties.TestingRun(t)
}
