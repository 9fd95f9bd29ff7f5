// Package search implements the listing engine: a pure function turning a
// set of game summaries plus options into a deterministically ordered,
// filtered, paginated page of results.
package search

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/mcoot/gameroom-go/internal/model"
)

// PageSize is the fixed number of summaries per page
const PageSize = 20

// SortOrder selects ascending or descending results
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ParseSortOrder converts the wire form of a sort order
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(s) {
	case SortAsc, SortDesc:
		return SortOrder(s), nil
	default:
		return "", fmt.Errorf("unknown sort order %q", s)
	}
}

// SortKey selects the primary comparison key
type SortKey string

const (
	SortKeyGameType    SortKey = "game_type"
	SortKeyPlayers     SortKey = "players"
	SortKeyStage       SortKey = "stage"
	SortKeyLastUpdated SortKey = "last_updated"
)

// ParseSortKey converts the wire form of a sort key
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(s) {
	case SortKeyGameType, SortKeyPlayers, SortKeyStage, SortKeyLastUpdated:
		return SortKey(s), nil
	default:
		return "", fmt.Errorf("unknown sort key %q", s)
	}
}

// Options controls sorting, filtering and pagination. Nil filters match
// everything.
type Options struct {
	Page      int
	SortOrder SortOrder
	SortKey   SortKey
	GameType  *model.GameType
	Players   *int
	Stage     *model.Stage
}

// DefaultOptions lists the first page, most recently updated first
func DefaultOptions() Options {
	return Options{
		Page:      1,
		SortOrder: SortDesc,
		SortKey:   SortKeyLastUpdated,
	}
}

// Apply sorts, paginates and filters the summaries.
//
// The pagination skip is applied before the filters: the first
// (page-1)*PageSize entries of the sorted, unfiltered sequence are skipped,
// then filters run over the remainder. Callers depend on this order of
// operations.
func Apply(summaries []model.GameSummary, opts Options) ([]model.GameSummary, error) {
	if opts.Page < 1 {
		return nil, fmt.Errorf("%w: got %d", model.ErrInvalidPage, opts.Page)
	}

	sorted := slices.Clone(summaries)
	slices.SortStableFunc(sorted, func(a, b model.GameSummary) int {
		return compare(a, b, opts.SortKey, opts.SortOrder)
	})

	skip := (opts.Page - 1) * PageSize
	result := []model.GameSummary{}
	for i := skip; i < len(sorted) && len(result) < PageSize; i++ {
		if matches(sorted[i], opts) {
			result = append(result, sorted[i])
		}
	}
	return result, nil
}

// compare orders two summaries by the requested key, breaking ties by
// cycling through the remaining keys in a fixed ring until a difference is
// found or all four keys are exhausted. Descending order reverses the
// comparator result rather than the final sequence, so ties break the same
// way in both directions.
func compare(a, b model.GameSummary, key SortKey, order SortOrder) int {
	c := 0
	for i := 0; i < 4; i++ {
		c = compareByKey(a, b, key)
		if c != 0 {
			break
		}
		key = nextSortKey(key)
	}
	if order == SortDesc {
		c = -c
	}
	return c
}

func compareByKey(a, b model.GameSummary, key SortKey) int {
	switch key {
	case SortKeyGameType:
		return strings.Compare(string(a.GameType), string(b.GameType))
	case SortKeyPlayers:
		return cmp.Compare(len(a.Players), len(b.Players))
	case SortKeyStage:
		return cmp.Compare(a.Stage.Order(), b.Stage.Order())
	default:
		return a.LastUpdated.Compare(b.LastUpdated)
	}
}

func nextSortKey(key SortKey) SortKey {
	switch key {
	case SortKeyGameType:
		return SortKeyPlayers
	case SortKeyPlayers:
		return SortKeyStage
	case SortKeyStage:
		return SortKeyLastUpdated
	default:
		return SortKeyGameType
	}
}

func matches(s model.GameSummary, opts Options) bool {
	if opts.GameType != nil && s.GameType != *opts.GameType {
		return false
	}
	if opts.Players != nil && len(s.Players) != *opts.Players {
		return false
	}
	if opts.Stage != nil && s.Stage != *opts.Stage {
		return false
	}
	return true
}
