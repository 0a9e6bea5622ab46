package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeLayout(t *testing.T) {
	tests := []struct {
		name        string
		height      int
		tableHeight int
		want        layout
	}{
		{"fits content", 30, 12, layout{both: true, nodeHeight: 14, jobHeight: 16}},
		{"minimum node pane", 20, 1, layout{both: true, nodeHeight: 5, jobHeight: 15}},
		{"job pane keeps four lines", 9, 50, layout{both: true, nodeHeight: 5, jobHeight: 4}},
		{"too short for both", 8, 12, layout{nodeHeight: 8}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, computeLayout(tt.height, tt.tableHeight))
		})
	}
}

func TestLayoutTableHeights(t *testing.T) {
	l := computeLayout(30, 12)
	assert.Equal(t, 13, l.nodeTableHeight())
	assert.Equal(t, 14, l.jobTableHeight())

	single := computeLayout(8, 12)
	assert.Equal(t, 6, single.nodeTableHeight())
	assert.Equal(t, 0, single.jobTableHeight())
}
