package scrape

import (
	"jobwatch-engine/internal/domain"
	"jobwatch-engine/internal/scrape/util"
)

const (
	DefaultRemoteKeyword = "remote"
	DefaultMaxAgeDays    = 2
)

// Filter keeps records that are remote and fresh enough.
type Filter struct {
	RemoteKeyword string
	MaxAgeDays    int
}

func NewFilter(remoteKeyword string, maxAgeDays int) Filter {
	if remoteKeyword == "" {
		remoteKeyword = DefaultRemoteKeyword
	}
	return Filter{RemoteKeyword: remoteKeyword, MaxAgeDays: maxAgeDays}
}

func (f Filter) Keep(r domain.JobRecord) (keep bool, reason string) {
	if !util.ContainsFold(r.Location, f.RemoteKeyword) {
		return false, "location"
	}
	if r.AgeInDays > f.MaxAgeDays {
		return false, "age"
	}
	return true, ""
}

// Apply returns the kept records in input order. Records are not modified.
func (f Filter) Apply(records []domain.JobRecord) []domain.JobRecord {
	out := make([]domain.JobRecord, 0, len(records))
	for _, r := range records {
		if keep, _ := f.Keep(r); keep {
			out = append(out, r)
		}
	}
	return out
}
