package dedup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"jobwatch-engine/internal/domain"
)

// identitySep matches the key format of existing state files. Fields are
// escaped so a literal "|" inside a field cannot fake a boundary.
const identitySep = "|"

var fieldEscaper = strings.NewReplacer(`\`, `\\`, identitySep, `\`+identitySep)

// Backend persists the notified identities as one ordered list.
type Backend interface {
	Read(ctx context.Context) ([]string, error)
	Write(ctx context.Context, ids []string) error
}

// Store owns the persisted NotifiedSet. Load it once per run, pass the set
// through the pipeline and hand it back to MarkNotified.
type Store struct {
	backend Backend
	log     *slog.Logger
}

func NewStore(backend Backend, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{backend: backend, log: log}
}

// IdentityOf is lower(company|role|location). The application link is
// left out: it changes between reposts.
func IdentityOf(r domain.JobRecord) domain.JobIdentity {
	key := fieldEscaper.Replace(r.Company) + identitySep +
		fieldEscaper.Replace(r.Role) + identitySep +
		fieldEscaper.Replace(r.Location)
	return domain.JobIdentity(strings.ToLower(key))
}

// Load never fails: missing or unreadable state yields an empty set.
func (s *Store) Load(ctx context.Context) *NotifiedSet {
	ids, err := s.backend.Read(ctx)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.log.Debug("no notified state yet")
		return NewNotifiedSet()
	case err != nil:
		s.log.Warn("notified state unreadable, starting empty", "err", err)
		return NewNotifiedSet()
	}

	set := NewNotifiedSet()
	for _, id := range ids {
		set.Add(domain.JobIdentity(id))
	}
	s.log.Debug("loaded notified state", "count", set.Len())
	return set
}

// DiffNew returns the records whose identity is not in set, in input order.
func DiffNew(filtered []domain.JobRecord, set *NotifiedSet) []domain.JobRecord {
	out := make([]domain.JobRecord, 0, len(filtered))
	for _, r := range filtered {
		if !set.Has(IdentityOf(r)) {
			out = append(out, r)
		}
	}
	return out
}

// MarkNotified adds the records to set and rewrites the persisted state.
// Nothing is written when no identity is new, so a set that fell back to
// empty on an unreadable state cannot overwrite what is stored.
// A write failure is returned: swallowing it would re-notify these records
// on the next run.
func (s *Store) MarkNotified(ctx context.Context, records []domain.JobRecord, set *NotifiedSet) error {
	added := 0
	for _, r := range records {
		if set.Add(IdentityOf(r)) {
			added++
		}
	}
	if added == 0 {
		s.log.Debug("nothing new to mark", "total", set.Len())
		return nil
	}

	if err := s.backend.Write(ctx, set.strings()); err != nil {
		return fmt.Errorf("persist notified set: %w", err)
	}
	s.log.Info("marked notified", "added", added, "total", set.Len())
	return nil
}
