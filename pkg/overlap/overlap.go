// Package overlap computes set intersections and coverage statistics over
// matched identifier sets. Everything here is a pure function over its
// inputs; outputs are sorted so reports are reproducible.
package overlap

import "sort"

// Pair is the result of comparing two identifier sets.
type Pair struct {
	NameA string `json:"name_a"`
	NameB string `json:"name_b"`

	// Overlap holds the identifiers present in both sets, sorted.
	Overlap []string `json:"overlap"`

	// UniqueA and UniqueB hold the identifiers present in only one set,
	// sorted.
	UniqueA []string `json:"unique_a"`
	UniqueB []string `json:"unique_b"`

	// CountA and CountB are the distinct identifier counts per set.
	CountA int `json:"count_a"`
	CountB int `json:"count_b"`

	// PercentOfA and PercentOfB express the overlap relative to each
	// side's distinct count, 0-100. An empty side yields 0, not an error.
	PercentOfA float64 `json:"percent_of_a"`
	PercentOfB float64 `json:"percent_of_b"`
}

// Analyze compares two identifier sets by exact string equality.
// Duplicates within a set collapse; order of the inputs is irrelevant.
func Analyze(a, b []string, nameA, nameB string) Pair {
	setA := toSet(a)
	setB := toSet(b)

	var overlap, uniqueA, uniqueB []string
	for id := range setA {
		if _, ok := setB[id]; ok {
			overlap = append(overlap, id)
		} else {
			uniqueA = append(uniqueA, id)
		}
	}
	for id := range setB {
		if _, ok := setA[id]; !ok {
			uniqueB = append(uniqueB, id)
		}
	}
	sort.Strings(overlap)
	sort.Strings(uniqueA)
	sort.Strings(uniqueB)

	return Pair{
		NameA:      nameA,
		NameB:      nameB,
		Overlap:    overlap,
		UniqueA:    uniqueA,
		UniqueB:    uniqueB,
		CountA:     len(setA),
		CountB:     len(setB),
		PercentOfA: percent(len(overlap), len(setA)),
		PercentOfB: percent(len(overlap), len(setB)),
	}
}

// Venn is the region breakdown of a three-set comparison. Each identifier
// lands in exactly one region based on its memberships.
type Venn struct {
	Names [3]string `json:"names"`

	// OnlyA, OnlyB, OnlyC hold identifiers in exactly one set, sorted.
	OnlyA []string `json:"only_a"`
	OnlyB []string `json:"only_b"`
	OnlyC []string `json:"only_c"`

	// AB, AC, BC hold identifiers in exactly the named two sets, sorted.
	AB []string `json:"ab"`
	AC []string `json:"ac"`
	BC []string `json:"bc"`

	// ABC holds identifiers in all three sets, sorted.
	ABC []string `json:"abc"`
}

// AnalyzeThree assigns every identifier across three sets to its Venn
// region. Region assignment is deterministic: it depends only on which
// sets contain the identifier.
func AnalyzeThree(a, b, c []string, nameA, nameB, nameC string) Venn {
	setA := toSet(a)
	setB := toSet(b)
	setC := toSet(c)

	all := make(map[string]struct{}, len(setA)+len(setB)+len(setC))
	for id := range setA {
		all[id] = struct{}{}
	}
	for id := range setB {
		all[id] = struct{}{}
	}
	for id := range setC {
		all[id] = struct{}{}
	}

	v := Venn{Names: [3]string{nameA, nameB, nameC}}
	for id := range all {
		_, inA := setA[id]
		_, inB := setB[id]
		_, inC := setC[id]
		switch {
		case inA && inB && inC:
			v.ABC = append(v.ABC, id)
		case inA && inB:
			v.AB = append(v.AB, id)
		case inA && inC:
			v.AC = append(v.AC, id)
		case inB && inC:
			v.BC = append(v.BC, id)
		case inA:
			v.OnlyA = append(v.OnlyA, id)
		case inB:
			v.OnlyB = append(v.OnlyB, id)
		default:
			v.OnlyC = append(v.OnlyC, id)
		}
	}
	for _, region := range [][]string{v.OnlyA, v.OnlyB, v.OnlyC, v.AB, v.AC, v.BC, v.ABC} {
		sort.Strings(region)
	}
	return v
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func percent(overlap, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(overlap) / float64(total)
}
