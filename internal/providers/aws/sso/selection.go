package sso

import (
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/pankaj-dahiya-devops/aicost/internal/models"
)

// ParseSelection interprets an account-selection answer against n listed
// accounts. "all" or an empty answer selects everything; otherwise the input
// is a comma-separated list of 1-based indices. Any invalid entry falls back
// to selecting all accounts. Returned indices are 0-based and unique.
func ParseSelection(input string, n int) []int {
	all := lo.Range(n)
	input = strings.TrimSpace(strings.ToLower(input))
	if input == "" || input == "all" {
		return all
	}

	var picked []int
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		i, err := strconv.Atoi(part)
		if err != nil || i < 1 || i > n {
			return all
		}
		picked = append(picked, i-1)
	}
	if len(picked) == 0 {
		return all
	}
	return lo.Uniq(picked)
}

// SelectAccounts returns the accounts at the given 0-based indices.
func SelectAccounts(accounts []models.Account, indices []int) []models.Account {
	return lo.FilterMap(indices, func(i int, _ int) (models.Account, bool) {
		if i < 0 || i >= len(accounts) {
			return models.Account{}, false
		}
		return accounts[i], true
	})
}

// FilterAccounts keeps the accounts whose IDs appear in ids, preserving
// the order of accounts.
func FilterAccounts(accounts []models.Account, ids []string) []models.Account {
	want := lo.SliceToMap(ids, func(id string) (string, struct{}) { return id, struct{}{} })
	return lo.Filter(accounts, func(a models.Account, _ int) bool {
		_, ok := want[a.ID]
		return ok
	})
}
