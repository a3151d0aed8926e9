package periodic_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quanta-kt/CosmicDiversBot/internal/domain/periodic"
	"github.com/quanta-kt/CosmicDiversBot/internal/utils/platformerrors"
)

func loadTable(t *testing.T) *periodic.Table {
	t.Helper()
	table, err := periodic.Load("testdata/periodic_table.json")
	require.NoError(t, err)
	require.Equal(t, 3, table.Len())
	return table
}

func TestLookup(t *testing.T) {
	table := loadTable(t)
	ctx := context.Background()

	tests := []struct {
		query  string
		symbol string
		errMsg string
	}{
		{query: "1", symbol: "H"},
		{query: "helium", symbol: "He"},
		{query: "  LITHIUM ", symbol: "Li"},
		{query: "0", errMsg: "0 is not a valid atomic number of an atom."},
		{query: "4", errMsg: "4 is not a valid atomic number of an atom."},
		{query: "-1", errMsg: "-1 is not a valid atomic number of an atom."},
		{query: "unobtainium ore", errMsg: "Element Unobtainium Ore not found."},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			element, err := table.Lookup(ctx, tt.query)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.True(t, platformerrors.IsErrorType(err, platformerrors.ErrorTypeInvalidInput))
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.symbol, element.Symbol)
		})
	}
}

func TestElementEmbed(t *testing.T) {
	table := loadTable(t)
	element, err := table.ByName(context.Background(), "helium")
	require.NoError(t, err)

	embed := element.Embed()

	assert.Equal(t, "Helium", embed.Title)
	assert.Equal(t, "https://en.wikipedia.org/wiki/Helium", embed.URL)
	assert.Equal(t, 0xd9ffff, embed.Colour)

	fields := map[string]string{}
	var names []string
	for _, f := range embed.Fields {
		fields[f.Name] = f.Value
		names = append(names, f.Name)
	}
	assert.Equal(t, "Boiling point", names[0])
	assert.Equal(t, "Melting point", names[1])
	assert.Equal(t, "4.222 K", fields["Boiling point"])
	assert.Equal(t, "0.95 K", fields["Melting point"])
	assert.Equal(t, "None", fields["Appearance"])
	assert.Equal(t, "2372.3, 5250.5", fields["Ionization Energies"])
	assert.Equal(t, "1s2", fields["Electron Configuration Semantic"])
	assert.Equal(t, "None", fields["Electronegativity Pauling"])
	assert.NotContains(t, strings.Join(names, ","), "Spectral")
	assert.NotContains(t, strings.Join(names, ","), "Cpk")
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"malformed", `{"elements": [`},
		{"empty", `{"elements": []}`},
		{"out of order", `{"elements": [{"name": "Helium", "number": 2}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := periodic.Parse(strings.NewReader(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := periodic.Load("testdata/does-not-exist.json")
	assert.Error(t, err)
}
