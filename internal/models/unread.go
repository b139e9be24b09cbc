package models

import "time"

// UnreadSnapshot is the aggregate unread state for one user across all
// of their classes. Counts are derived from content items minus read
// markers and are never negative.
type UnreadSnapshot struct {
	TotalByKind map[ContentKind]int          `json:"total_by_kind"`
	PerClass    map[uint]map[ContentKind]int `json:"per_class"`
	Version     uint64                       `json:"version"`
	ComputedAt  time.Time                    `json:"computed_at"`
}

func (s *UnreadSnapshot) Total() int {
	total := 0
	for _, n := range s.TotalByKind {
		total += n
	}
	return total
}

func (s *UnreadSnapshot) ClassCount(classID uint, kind ContentKind) int {
	if byKind, ok := s.PerClass[classID]; ok {
		return byKind[kind]
	}
	return 0
}
