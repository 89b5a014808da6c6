package dedup

import "jobwatch-engine/internal/domain"

// NotifiedSet is the set of identities already delivered, in the order they
// were first marked. It is not safe for concurrent use.
type NotifiedSet struct {
	order []domain.JobIdentity
	index map[domain.JobIdentity]struct{}
}

func NewNotifiedSet(ids ...domain.JobIdentity) *NotifiedSet {
	s := &NotifiedSet{index: make(map[domain.JobIdentity]struct{}, len(ids))}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s *NotifiedSet) Has(id domain.JobIdentity) bool {
	_, ok := s.index[id]
	return ok
}

// Add reports whether id was new.
func (s *NotifiedSet) Add(id domain.JobIdentity) bool {
	if s.Has(id) {
		return false
	}
	s.index[id] = struct{}{}
	s.order = append(s.order, id)
	return true
}

func (s *NotifiedSet) Len() int { return len(s.order) }

// IDs returns a copy of the identities in insertion order.
func (s *NotifiedSet) IDs() []domain.JobIdentity {
	out := make([]domain.JobIdentity, len(s.order))
	copy(out, s.order)
	return out
}

func (s *NotifiedSet) strings() []string {
	out := make([]string, len(s.order))
	for i, id := range s.order {
		out[i] = string(id)
	}
	return out
}
