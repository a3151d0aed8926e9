// Package periodic looks up chemical elements in a static periodic table.
package periodic

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/quanta-kt/CosmicDiversBot/internal/domain/chat"
	"github.com/quanta-kt/CosmicDiversBot/internal/utils/platformerrors"
)

// Element is one entry of the table. Field order matches the order in which
// details are displayed.
type Element struct {
	Name                          string    `json:"name"`
	Appearance                    *string   `json:"appearance"`
	AtomicMass                    float64   `json:"atomic_mass"`
	Boil                          *float64  `json:"boil"`
	Category                      string    `json:"category"`
	Density                       *float64  `json:"density"`
	DiscoveredBy                  *string   `json:"discovered_by"`
	Melt                          *float64  `json:"melt"`
	MolarHeat                     *float64  `json:"molar_heat"`
	NamedBy                       *string   `json:"named_by"`
	Number                        int       `json:"number"`
	Period                        int       `json:"period"`
	Phase                         string    `json:"phase"`
	Source                        string    `json:"source"`
	SpectralImg                   *string   `json:"spectral_img"`
	Summary                       string    `json:"summary"`
	Symbol                        string    `json:"symbol"`
	XPos                          int       `json:"xpos"`
	YPos                          int       `json:"ypos"`
	Shells                        []int     `json:"shells"`
	ElectronConfiguration         string    `json:"electron_configuration"`
	ElectronConfigurationSemantic string    `json:"electron_configuration_semantic"`
	ElectronAffinity              *float64  `json:"electron_affinity"`
	ElectronegativityPauling      *float64  `json:"electronegativity_pauling"`
	IonizationEnergies            []float64 `json:"ionization_energies"`
	CPKHex                        *string   `json:"cpk-hex"`
}

// Table is the loaded periodic table, ordered by atomic number.
type Table struct {
	elements []Element
	byName   map[string]int
}

// title upper-cases the first letter of every word. A Caser must not be
// shared between goroutines.
func title(s string) string {
	return cases.Title(language.English).String(s)
}

// Load reads a table file of the form {"elements": [...]}.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open periodic table: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse decodes a table document.
func Parse(r io.Reader) (*Table, error) {
	var doc struct {
		Elements []Element `json:"elements"`
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode periodic table: %w", err)
	}
	if len(doc.Elements) == 0 {
		return nil, fmt.Errorf("periodic table has no elements")
	}

	t := &Table{elements: doc.Elements, byName: make(map[string]int, len(doc.Elements))}
	for i, e := range doc.Elements {
		if e.Number != i+1 {
			return nil, fmt.Errorf("element %q has atomic number %d at position %d", e.Name, e.Number, i+1)
		}
		t.byName[strings.ToLower(e.Name)] = i
	}
	return t, nil
}

// Len returns the number of elements.
func (t *Table) Len() int {
	return len(t.elements)
}

// ByNumber returns the element with the given atomic number.
func (t *Table) ByNumber(ctx context.Context, number int) (Element, error) {
	if number < 1 || number > len(t.elements) {
		return Element{}, notFound(ctx, fmt.Sprintf("%d is not a valid atomic number of an atom.", number))
	}
	return t.elements[number-1], nil
}

// ByName returns the element with the given name, ignoring case.
func (t *Table) ByName(ctx context.Context, name string) (Element, error) {
	idx, ok := t.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Element{}, notFound(ctx, fmt.Sprintf("Element %s not found.", title(strings.TrimSpace(name))))
	}
	return t.elements[idx], nil
}

// Lookup treats an integer query as an atomic number and anything else as a name.
func (t *Table) Lookup(ctx context.Context, query string) (Element, error) {
	if n, err := strconv.Atoi(strings.TrimSpace(query)); err == nil {
		return t.ByNumber(ctx, n)
	}
	return t.ByName(ctx, query)
}

func notFound(ctx context.Context, message string) error {
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeInvalidInput, message, nil)
}

// Embed renders the element card.
func (e Element) Embed() chat.Embed {
	embed := chat.Embed{
		Title:  e.Name,
		URL:    e.Source,
		Colour: e.colour(),
		Fields: []chat.Field{
			{Name: "Boiling point", Value: floatOrNone(e.Boil) + " K", Inline: true},
			{Name: "Melting point", Value: floatOrNone(e.Melt) + " K", Inline: true},
		},
	}

	add := func(key, value string) {
		embed.Fields = append(embed.Fields, chat.Field{Name: title(strings.ReplaceAll(key, "_", " ")), Value: value, Inline: true})
	}
	add("appearance", stringOrNone(e.Appearance))
	add("atomic_mass", formatFloat(e.AtomicMass))
	add("category", e.Category)
	add("density", floatOrNone(e.Density))
	add("discovered_by", stringOrNone(e.DiscoveredBy))
	add("molar_heat", floatOrNone(e.MolarHeat))
	add("named_by", stringOrNone(e.NamedBy))
	add("number", strconv.Itoa(e.Number))
	add("period", strconv.Itoa(e.Period))
	add("phase", e.Phase)
	add("summary", e.Summary)
	add("symbol", e.Symbol)
	add("xpos", strconv.Itoa(e.XPos))
	add("ypos", strconv.Itoa(e.YPos))
	add("shells", joinInts(e.Shells))
	add("electron_configuration", e.ElectronConfiguration)
	add("electron_configuration_semantic", e.ElectronConfigurationSemantic)
	add("electron_affinity", floatOrNone(e.ElectronAffinity))
	add("electronegativity_pauling", floatOrNone(e.ElectronegativityPauling))
	add("ionization_energies", joinFloats(e.IonizationEnergies))
	return embed
}

func (e Element) colour() int {
	if e.CPKHex == nil {
		return 0
	}
	c, err := strconv.ParseInt(strings.TrimPrefix(*e.CPKHex, "#"), 16, 32)
	if err != nil {
		return 0
	}
	return int(c)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func floatOrNone(v *float64) string {
	if v == nil {
		return "None"
	}
	return formatFloat(*v)
}

func stringOrNone(v *string) string {
	if v == nil || *v == "" {
		return "None"
	}
	return *v
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return noneIfEmpty(strings.Join(parts, ", "))
}

func joinFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatFloat(v)
	}
	return noneIfEmpty(strings.Join(parts, ", "))
}

func noneIfEmpty(s string) string {
	if s == "" {
		return "None"
	}
	return s
}
