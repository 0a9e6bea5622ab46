package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
)

func TestSimpleTable(t *testing.T) {
	table := NewSimpleTable("Partitions", []string{"Name", "Jobs", "CPU"}).AlignRight(1)
	table.AddRow("standard*", "4", "12/24")
	table.AddRow("gpu", "12")

	view := ansi.Strip(table.View(DefaultStyles()))
	lines := strings.Split(strings.TrimSuffix(view, "\n"), "\n")

	assert.Equal(t, []string{
		"Partitions",
		"Name       Jobs  CPU",
		"──────────────────────",
		"standard*     4  12/24",
		"gpu          12",
	}, lines)
}

func TestSimpleTable_Empty(t *testing.T) {
	table := NewSimpleTable("Empty", []string{"A"})
	assert.Empty(t, table.View(DefaultStyles()))
}
