package reconcile

import (
	"math"
	"strings"

	"github.com/helixir/bibliomatch-service/internal/domain"
	"github.com/helixir/bibliomatch-service/internal/textsim"
)

// Pre-dedup bounds: at least minPreDedup records, or preDedupFactor times the
// requested results.
const (
	preDedupFactor = 3
	minPreDedup    = 12
)

const richnessTieEpsilon = 1e-9

// preDedupLimit is the number of records kept before enrichment.
func preDedupLimit(maxResults int) int {
	return max(preDedupFactor*maxResults, minPreDedup)
}

// PreDedup keeps the first record of each folded title, skipping untitled
// records, and stops after limit records.
func PreDedup(records []*domain.Record, limit int) []*domain.Record {
	seen := make(map[string]struct{})
	out := make([]*domain.Record, 0, min(len(records), limit))
	for _, r := range records {
		t := textsim.Fold(r.Title)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, r)
		if len(out) >= limit {
			break
		}
	}
	return out
}

// DedupWorks keeps one record per WorkKey: the richest, or on a richness tie the
// most recent. Groups keep the order in which their key was first seen. Records
// whose key has neither surname nor title are dropped.
func DedupWorks(records []*domain.Record) []*domain.Record {
	best := make(map[string]*domain.Record)
	var order []string

	for _, r := range records {
		k := WorkKey(r)
		if strings.Trim(k, " :") == "" {
			continue
		}
		cur, ok := best[k]
		if !ok {
			best[k] = r
			order = append(order, k)
			continue
		}

		curRich, newRich := Richness(cur), Richness(r)
		if newRich > curRich ||
			(math.Abs(newRich-curRich) < richnessTieEpsilon && YearInt(r.Year) > YearInt(cur.Year)) {
			best[k] = r
		}
	}

	out := make([]*domain.Record, 0, len(order))
	for _, k := range order {
		out = append(out, best[k])
	}
	return out
}
