// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedup reconciles articles pooled from several databases. Records
// sharing normalized authors and title are grouped; groups whose members
// disagree on the year are only merged where DOI, URL or abstract evidence
// confirms the duplicate. Each group keeps the record from the most
// authoritative source (pubmed > europepmc > openalex).
package dedup

import (
	"sort"
	"strings"

	"github.com/pdiddy/litsearch/pkg/types"
)

// JaccardThreshold is the abstract similarity a year-conflict pair must
// exceed to count as one publication.
const JaccardThreshold = 0.80

// Reason explains why a record was discarded.
type Reason string

const (
	// ReasonExact marks a duplicate sharing key and year with the kept record.
	ReasonExact Reason = "exact"
	// ReasonYearConflict marks a duplicate confirmed despite a year difference.
	ReasonYearConflict Reason = "year-conflict"
)

// Evidence names the field that confirmed a year-conflict duplicate.
type Evidence string

const (
	EvidenceNone     Evidence = ""
	EvidenceDOI      Evidence = "doi"
	EvidenceURL      Evidence = "url"
	EvidenceAbstract Evidence = "abstract"
)

// Discard records one rejected duplicate and the record it was matched
// against. Exact duplicates point at the kept record of their year, which
// may itself be discarded as a year conflict.
type Discard struct {
	Article  types.Article
	Kept     types.Article
	Reason   Reason
	Evidence Evidence
}

// Group is a set of two or more records resolved to one kept record.
type Group struct {
	Key       Key
	Kept      types.Article
	Discarded []Discard
}

// Result is the output of Deduplicate.
type Result struct {
	// Articles holds one record per publication, in order of first arrival.
	Articles []types.Article

	// Groups lists every resolved duplicate group.
	Groups []Group

	// Discards lists every rejected record; within a key group in input
	// order.
	Discards []Discard

	Stats Stats
}

// member is an article with its position in the input.
type member struct {
	index   int
	article types.Article
}

// Deduplicate collapses records that describe the same publication. It is a
// pure function of its input: the statistics describe this call only and
// the output order depends solely on input order.
func Deduplicate(articles []types.Article) Result {
	res := Result{Stats: NewStats()}

	var order []Key
	groups := make(map[Key][]member)
	for i, a := range articles {
		k := KeyOf(a)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], member{index: i, article: a})
	}

	for _, k := range order {
		members := groups[k]
		if len(members) == 1 {
			res.Articles = append(res.Articles, members[0].article)
			continue
		}
		res.resolveGroup(k, members)
	}

	for _, a := range res.Articles {
		res.Stats.addUnique(a.SourceDatabase)
	}
	for _, d := range res.Discards {
		res.Stats.addDuplicate(d.Article.SourceDatabase)
	}
	return res
}

// unit is a set of members collapsed to one kept member.
type unit struct {
	kept     member
	discards []indexedDiscard
}

type indexedDiscard struct {
	index int
	Discard
}

// resolveGroup reconciles the members of one key group. Members sharing a
// year are exact duplicates. The surviving member of each year is then
// compared against every other year; the confirmed duplicate relation is
// closed transitively so that a second pass finds nothing left to merge.
func (r *Result) resolveGroup(k Key, members []member) {
	var years []string
	byYear := make(map[string][]member)
	for _, m := range members {
		y := normalizeYear(m.article.Year)
		if _, ok := byYear[y]; !ok {
			years = append(years, y)
		}
		byYear[y] = append(byYear[y], m)
	}

	units := make([]unit, len(years))
	for i, y := range years {
		units[i] = collapse(byYear[y], ReasonExact, nil)
	}

	var all []indexedDiscard
	for _, c := range clusterByEvidence(units) {
		u := c.unit
		if len(c.members) > 1 {
			u = collapse(c.keptMembers(units), ReasonYearConflict, c.evidence)
			for _, i := range c.members {
				u.discards = append(u.discards, units[i].discards...)
			}
		}
		sortDiscards(u.discards)

		r.Articles = append(r.Articles, u.kept.article)
		if len(u.discards) == 0 {
			continue
		}
		g := Group{Key: k, Kept: u.kept.article}
		for _, d := range u.discards {
			g.Discarded = append(g.Discarded, d.Discard)
		}
		r.Groups = append(r.Groups, g)
		all = append(all, u.discards...)
	}

	sortDiscards(all)
	for _, d := range all {
		r.Discards = append(r.Discards, d.Discard)
	}
}

// collapse keeps the highest-priority member and discards the rest. Equal
// priorities keep the earliest arrival. evidence maps a member's input index
// to the evidence that linked it to the kept member.
func collapse(members []member, reason Reason, evidence map[int]Evidence) unit {
	kept := members[0]
	for _, m := range members[1:] {
		pm, pk := m.article.SourceDatabase.Priority(), kept.article.SourceDatabase.Priority()
		if pm < pk || (pm == pk && m.index < kept.index) {
			kept = m
		}
	}

	u := unit{kept: kept}
	for _, m := range members {
		if m.index == kept.index {
			continue
		}
		ev := EvidenceNone
		if reason == ReasonYearConflict {
			ev = evidence[m.index]
		}
		u.discards = append(u.discards, indexedDiscard{
			index:   m.index,
			Discard: Discard{Article: m.article, Kept: kept.article, Reason: reason, Evidence: ev},
		})
	}
	return u
}

func sortDiscards(ds []indexedDiscard) {
	sort.Slice(ds, func(i, j int) bool { return ds[i].index < ds[j].index })
}

// cluster is a connected set of year units, by position in the units slice.
type cluster struct {
	members  []int
	unit     unit
	evidence map[int]Evidence
}

func (c cluster) keptMembers(units []unit) []member {
	ms := make([]member, len(c.members))
	for i, u := range c.members {
		ms[i] = units[u].kept
	}
	return ms
}

// clusterByEvidence links every pair of year units confirmed as one
// publication and returns the connected components in order of their first
// unit. A unit's evidence is the one linking it to the component's kept
// member when they are directly confirmed, else the first link found for it.
func clusterByEvidence(units []unit) []cluster {
	parent := make([]int, len(units))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}

	pair := make(map[[2]int]Evidence)
	firstLink := make(map[int]Evidence)
	for i := range units {
		for j := i + 1; j < len(units); j++ {
			dup, ev := IsYearConflictDuplicate(units[i].kept.article, units[j].kept.article)
			if !dup {
				continue
			}
			pair[[2]int{i, j}] = ev
			for _, u := range []int{i, j} {
				if _, ok := firstLink[u]; !ok {
					firstLink[u] = ev
				}
			}
			if ri, rj := find(i), find(j); ri != rj {
				if rj < ri {
					ri, rj = rj, ri
				}
				parent[rj] = ri
			}
		}
	}

	var roots []int
	byRoot := make(map[int][]int)
	for i := range units {
		root := find(i)
		if _, ok := byRoot[root]; !ok {
			roots = append(roots, root)
		}
		byRoot[root] = append(byRoot[root], i)
	}

	clusters := make([]cluster, 0, len(roots))
	for _, root := range roots {
		c := cluster{members: byRoot[root], unit: units[root]}
		if len(c.members) > 1 {
			kept := collapse(c.keptMembers(units), ReasonExact, nil).kept
			keptUnit := -1
			for _, u := range c.members {
				if units[u].kept.index == kept.index {
					keptUnit = u
				}
			}
			c.evidence = make(map[int]Evidence, len(c.members))
			for _, u := range c.members {
				lo, hi := u, keptUnit
				if hi < lo {
					lo, hi = hi, lo
				}
				ev, direct := pair[[2]int{lo, hi}]
				if !direct {
					ev = firstLink[u]
				}
				c.evidence[units[u].kept.index] = ev
			}
		}
		clusters = append(clusters, c)
	}
	return clusters
}

// IsYearConflictDuplicate decides whether two records with the same key but
// different years describe one publication. The first applicable rule
// decides: matching DOIs, then matching URLs, then abstract similarity above
// JaccardThreshold. Without any of that evidence the pair is kept apart.
func IsYearConflictDuplicate(a, b types.Article) (bool, Evidence) {
	if !types.IsMissing(a.DOI) && !types.IsMissing(b.DOI) {
		if equalFoldTrim(a.DOI, b.DOI) {
			return true, EvidenceDOI
		}
		return false, EvidenceNone
	}

	if !types.IsMissing(a.URL) && !types.IsMissing(b.URL) {
		if equalFoldTrim(a.URL, b.URL) {
			return true, EvidenceURL
		}
		return false, EvidenceNone
	}

	absA, absB := NormalizeAbstract(a.Abstract), NormalizeAbstract(b.Abstract)
	if absA != "" && absB != "" && Jaccard(absA, absB) > JaccardThreshold {
		return true, EvidenceAbstract
	}
	return false, EvidenceNone
}

func equalFoldTrim(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func distinctYears(members []member) int {
	years := make(map[string]struct{}, len(members))
	for _, m := range members {
		years[normalizeYear(m.article.Year)] = struct{}{}
	}
	return len(years)
}
