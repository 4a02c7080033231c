// Package indexselect picks which index, if any, should drive a
// query's table scan, by prefix-matching WHERE-referenced columns
// against each index's declared column order.
package indexselect

import (
	"strings"

	"github.com/mattleeder/sgl/internal/predicate"
	"github.com/mattleeder/sgl/internal/schema"
)

// Candidate is one index available on the queried table, with its
// column list already recovered from its CREATE INDEX SQL.
type Candidate struct {
	RootPage uint32
	Columns  []string
}

// Choice is the winning index and the single predicate that drives its
// cursor (the predicate on the index's leading column).
type Choice struct {
	RootPage uint32
	Leading  predicate.Predicate
}

// Select implements the prefix-match scoring procedure: the referenced
// column set is matched against each candidate's ordered column list,
// counting only a contiguous prefix of hits, and the greatest positive
// count wins ties going to the first index encountered.
func Select(preds []predicate.Predicate, candidates []Candidate) (Choice, bool) {
	referenced := predicate.ColumnSet(preds)

	bestScore := 0
	var best Candidate
	found := false
	for _, c := range candidates {
		score := prefixMatchScore(c.Columns, referenced)
		if score > bestScore {
			bestScore = score
			best = c
			found = true
		}
	}
	if !found {
		return Choice{}, false
	}

	leadingCol := strings.ToLower(best.Columns[0])
	for _, p := range preds {
		if strings.ToLower(p.Column) == leadingCol {
			return Choice{RootPage: best.RootPage, Leading: p}, true
		}
	}
	return Choice{}, false
}

// prefixMatchScore counts how many leading columns of cols appear in
// referenced, stopping at the first column not referenced.
func prefixMatchScore(cols []string, referenced map[string]bool) int {
	count := 0
	for _, col := range cols {
		if !referenced[strings.ToLower(col)] {
			break
		}
		count++
	}
	return count
}

// FromSchema builds Candidates from the table's index schema records,
// parsing each one's CREATE INDEX column list.
func FromSchema(indexes []schema.Record) []Candidate {
	out := make([]Candidate, 0, len(indexes))
	for _, idx := range indexes {
		cols := schema.ParseCreateIndexColumns(idx.SQL)
		if len(cols) == 0 {
			continue
		}
		out = append(out, Candidate{RootPage: idx.RootPage, Columns: cols})
	}
	return out
}
