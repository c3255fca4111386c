package sso

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pankaj-dahiya-devops/aicost/internal/models"
)

func TestParseSelection(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []int
	}{
		{"empty selects all", "", []int{0, 1, 2}},
		{"all keyword", " ALL ", []int{0, 1, 2}},
		{"indices", "1,3", []int{0, 2}},
		{"spaces and duplicates", " 2 , 2,1 ", []int{1, 0}},
		{"out of range falls back", "1,4", []int{0, 1, 2}},
		{"garbage falls back", "first", []int{0, 1, 2}},
		{"only commas", ",,", []int{0, 1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSelection(tt.input, 3))
		})
	}
}

func TestSelectAndFilterAccounts(t *testing.T) {
	accounts := []models.Account{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	got := SelectAccounts(accounts, []int{2, 0, 7})
	assert.Equal(t, []models.Account{{ID: "c"}, {ID: "a"}}, got)

	filtered := FilterAccounts(accounts, []string{"c", "b", "zz"})
	assert.Equal(t, []models.Account{{ID: "b"}, {ID: "c"}}, filtered)
}
