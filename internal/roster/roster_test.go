package roster

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	input := "CLASS,LASTNAME,FIRSTNAME,ALIAS\r\n" +
		"CS101,Doe,Jane,\r\n" +
		"CS101,Smith,Bob,bsmith\r\n" +
		"\r\n" +
		"7B,Åström,Søren,\r\n"

	entries, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, Entry{Class: "CS101", LastName: "Doe", FirstName: "Jane"}, entries[0])
	assert.Equal(t, Entry{Class: "CS101", LastName: "Smith", FirstName: "Bob", Alias: "bsmith"}, entries[1])
	assert.Equal(t, Entry{Class: "7B", LastName: "Åström", FirstName: "Søren"}, entries[2])
}

func TestParse_NoHeader(t *testing.T) {
	input := "CS101,Doe,Jane,janedoe\n"

	entries, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "janedoe", entries[0].Alias)
}

func TestParse_MissingAliasColumn(t *testing.T) {
	// Trailing column omitted entirely rather than left empty.
	input := "CS101,Doe,Jane\n"

	entries, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Empty(t, entries[0].Alias)
}

func TestParse_HeaderAfterFillerRow(t *testing.T) {
	// Spreadsheet exports sometimes carry a filler row above the header;
	// the header must still be recognized and never read as a student.
	input := ",,,\nCLASS,LASTNAME,FIRSTNAME,ALIAS\nCS101,Doe,Jane,\n"

	entries, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, Entry{Class: "CS101", LastName: "Doe", FirstName: "Jane"}, entries[0])
}

func TestParse_CommaOnlyRowSkipped(t *testing.T) {
	input := "CLASS,LASTNAME,FIRSTNAME,ALIAS\n,,,\nCS101,Doe,Jane,\n"

	entries, err := Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestParse_TooFewFields(t *testing.T) {
	input := "CS101,Doe\n"

	_, err := Parse(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 1")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("does-not-exist.csv")
	require.Error(t, err)
}

func TestDisplayName(t *testing.T) {
	e := Entry{FirstName: "Jane", LastName: "Doe"}
	assert.Equal(t, "Jane Doe", e.DisplayName())
}
