package a

import (
	"slices"
	"sort"
)

type report struct {
	IDs []string
}

func unsorted(degrees map[string]int) []string {
	var ids []string
	for id := range degrees {
		ids = append(ids, id) // want "ids is filled in map iteration order and never sorted"
	}
	return ids
}

func unsortedField(degrees map[string]int) report {
	var r report
	for id := range degrees {
		r.IDs = append(r.IDs, id) // want "r.IDs is filled in map iteration order and never sorted"
	}
	return r
}

func sortedAfter(degrees map[string]int) []string {
	ids := make([]string, 0, len(degrees))
	for id := range degrees {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func sortedWithSlices(degrees map[string]int) report {
	var r report
	for id := range degrees {
		r.IDs = append(r.IDs, id)
	}
	slices.Sort(r.IDs)
	return r
}

func sliceRange(chars []string) []string {
	var ids []string
	for _, id := range chars {
		ids = append(ids, id)
	}
	return ids
}
