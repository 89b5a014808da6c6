package dedup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobwatch-engine/internal/domain"
	"jobwatch-engine/internal/store"
)

func job(company, role, location, app, age string) domain.JobRecord {
	return domain.JobRecord{Company: company, Role: role, Location: location, ApplicationRef: app, AgeToken: age}
}

type failingBackend struct {
	readErr  error
	writeErr error
	written  [][]string
}

func (f *failingBackend) Read(context.Context) ([]string, error) { return nil, f.readErr }
func (f *failingBackend) Write(_ context.Context, ids []string) error {
	f.written = append(f.written, ids)
	return f.writeErr
}

func TestIdentityOf(t *testing.T) {
	a := job("Acme Corp", "Backend Engineer", "Remote (US)", "https://a", "1d")
	assert.Equal(t, domain.JobIdentity("acme corp|backend engineer|remote (us)"), IdentityOf(a))

	repost := job("ACME Corp", "Backend Engineer", "Remote (US)", `<a href="https://b">Apply</a>`, "5d")
	assert.Equal(t, IdentityOf(a), IdentityOf(repost))

	other := job("Acme Corp", "Backend Engineer", "Remote (EU)", "https://a", "1d")
	assert.NotEqual(t, IdentityOf(a), IdentityOf(other))
}

func TestIdentityOfDelimiterInsideField(t *testing.T) {
	x := job("a|b", "c", "remote", "x", "1d")
	y := job("a", "b|c", "remote", "x", "1d")
	assert.NotEqual(t, IdentityOf(x), IdentityOf(y))
}

func TestDiffNewOrderAndIdempotence(t *testing.T) {
	filtered := []domain.JobRecord{
		job("C", "r", "Remote", "x", "1d"),
		job("A", "r", "Remote", "x", "1d"),
		job("B", "r", "Remote", "x", "1d"),
	}
	set := NewNotifiedSet(IdentityOf(filtered[1]))

	first := DiffNew(filtered, set)
	second := DiffNew(filtered, set)

	require.Len(t, first, 2)
	assert.Equal(t, "C", first[0].Company)
	assert.Equal(t, "B", first[1].Company)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, set.Len())
}

func TestLoadMissingStateIsEmpty(t *testing.T) {
	s := NewStore(store.NewJSONNotified(filepath.Join(t.TempDir(), "none.json")), nil)
	set := s.Load(context.Background())
	assert.Zero(t, set.Len())
}

func TestLoadUnreadableStateIsEmpty(t *testing.T) {
	s := NewStore(&failingBackend{readErr: errors.New("disk on fire")}, nil)
	assert.Zero(t, s.Load(context.Background()).Len())

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("nope"), 0o644))
	assert.Zero(t, NewStore(store.NewJSONNotified(path), nil).Load(context.Background()).Len())
}

func TestMarkNotifiedRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "notified_jobs.json")

	s := NewStore(store.NewJSONNotified(path), nil)
	set := s.Load(ctx)
	require.NoError(t, s.MarkNotified(ctx, []domain.JobRecord{job("A", "r", "Remote", "x", "1d")}, set))

	s2 := NewStore(store.NewJSONNotified(path), nil)
	set2 := s2.Load(ctx)
	batch := []domain.JobRecord{
		job("C", "r", "Remote", "x", "1d"),
		job("B", "r", "Remote", "x", "1d"),
		job("A", "r", "Remote", "y", "2d"),
	}
	require.NoError(t, s2.MarkNotified(ctx, batch, set2))

	fresh := NewStore(store.NewJSONNotified(path), nil).Load(ctx)
	assert.ElementsMatch(t, []domain.JobIdentity{
		"a|r|remote", "b|r|remote", "c|r|remote",
	}, fresh.IDs())
}

func TestMarkNotifiedEmptyKeepsState(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "notified_jobs.json")
	s := NewStore(store.NewJSONNotified(path), nil)

	set := s.Load(ctx)
	require.NoError(t, s.MarkNotified(ctx, []domain.JobRecord{job("A", "r", "Remote", "x", "1d")}, set))
	require.NoError(t, s.MarkNotified(ctx, nil, s.Load(ctx)))

	assert.Equal(t, []domain.JobIdentity{"a|r|remote"}, s.Load(ctx).IDs())
}

func TestMarkNotifiedEmptyLeavesUnreadableStateAlone(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "notified_jobs.json")
	seeded := []byte(`["acme corp|backend engineer|remote (us)", 5]`)
	require.NoError(t, os.WriteFile(path, seeded, 0o644))

	s := NewStore(store.NewJSONNotified(path), nil)
	set := s.Load(ctx)
	require.Zero(t, set.Len())

	require.NoError(t, s.MarkNotified(ctx, nil, set))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, seeded, got)
}

func TestMarkNotifiedAlreadyKnownSkipsWrite(t *testing.T) {
	be := &failingBackend{}
	s := NewStore(be, nil)
	a := job("A", "r", "Remote", "x", "1d")
	set := NewNotifiedSet(IdentityOf(a))

	require.NoError(t, s.MarkNotified(context.Background(), []domain.JobRecord{a}, set))
	assert.Empty(t, be.written)
}

func TestMarkNotifiedWriteFailurePropagates(t *testing.T) {
	be := &failingBackend{writeErr: errors.New("read-only fs")}
	s := NewStore(be, nil)
	set := NewNotifiedSet()

	err := s.MarkNotified(context.Background(), []domain.JobRecord{job("A", "r", "Remote", "x", "1d")}, set)
	require.Error(t, err)
	assert.ErrorIs(t, err, be.writeErr)
	require.Len(t, be.written, 1)
	assert.Equal(t, []string{"a|r|remote"}, be.written[0])
}

func TestMarkNotifiedSQLiteBackend(t *testing.T) {
	ctx := context.Background()
	db, err := store.Open(filepath.Join(t.TempDir(), "watch.db"))
	require.NoError(t, err)
	defer db.Close()

	s := NewStore(store.NewSQLiteNotified(db), nil)
	set := s.Load(ctx)
	require.NoError(t, s.MarkNotified(ctx, []domain.JobRecord{
		job("A", "r", "Remote", "x", "1d"),
		job("A", "r", "Remote", "x", "1d"),
	}, set))

	assert.Equal(t, []domain.JobIdentity{"a|r|remote"}, s.Load(ctx).IDs())
}
