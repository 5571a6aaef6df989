package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/distill/internal/distill"
	"github.com/dgallion1/distill/internal/doctree"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Options{InMemory: true}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleRecord(hash string, created time.Time) Record {
	return Record{
		Hash:      hash,
		Filename:  hash + ".epub",
		Title:     "Book " + hash,
		Author:    "Someone",
		Summary:   true,
		Sentences: 2,
		Chapters: []distill.Chapter{
			{Entry: doctree.Entry{ID: "chapter_001", Title: "One", Href: "one.xhtml"}, Found: true, Summary: []string{"First."}},
			{Entry: doctree.Entry{ID: "chapter_002", Title: "Two", Href: "two.xhtml"}},
		},
		CreatedAt: created,
	}
}

func TestStore_PutGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := sampleRecord("abc", time.Now().UTC().Truncate(time.Second))
	require.NoError(t, s.Put(ctx, rec))

	got, err := s.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, rec.Title, got.Title)
	require.Len(t, got.Chapters, 2)
	assert.Equal(t, "chapter_001", got.Chapters[0].ID)
	assert.Equal(t, []string{"First."}, got.Chapters[0].Summary)
	assert.True(t, rec.CreatedAt.Equal(got.CreatedAt))
}

func TestStore_GetMissing(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_PutRequiresHash(t *testing.T) {
	s := openTestStore(t)
	assert.Error(t, s.Put(context.Background(), Record{Title: "x"}))
}

func TestStore_PutSetsCreatedAt(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, Record{Hash: "h"}))

	got, err := s.Get(ctx, "h")
	require.NoError(t, err)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestStore_ListNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Put(ctx, sampleRecord("old", base)))
	require.NoError(t, s.Put(ctx, sampleRecord("new", base.Add(time.Hour))))
	require.NoError(t, s.Put(ctx, sampleRecord("mid", base.Add(time.Minute))))

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "new", all[0].Hash)
	assert.Equal(t, "mid", all[1].Hash)
	assert.Equal(t, 2, all[0].Chapters)

	two, err := s.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, two, 2)
}

func TestStore_Delete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, sampleRecord("gone", time.Now())))

	require.NoError(t, s.Delete(ctx, "gone"))
	_, err := s.Get(ctx, "gone")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "gone"), ErrNotFound)
}

func TestStore_CancelledContext(t *testing.T) {
	s := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Put(ctx, sampleRecord("x", time.Now())), context.Canceled)
}

func TestStore_OnDiskReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	ctx := context.Background()

	s, err := Open(Options{Dir: dir}, nil)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, sampleRecord("keep", time.Now())))
	require.NoError(t, s.Close())

	s, err = Open(Options{Dir: dir}, nil)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.Get(ctx, "keep")
	require.NoError(t, err)
	assert.Equal(t, "keep.epub", got.Filename)
}

func TestOpen_RequiresDir(t *testing.T) {
	_, err := Open(Options{}, nil)
	assert.Error(t, err)
}

func TestRecord_Matches(t *testing.T) {
	rec := sampleRecord("m", time.Now())
	assert.True(t, rec.Matches(false, 0))
	assert.True(t, rec.Matches(true, 2))
	assert.False(t, rec.Matches(true, 3))

	rec.Summary = false
	assert.False(t, rec.Matches(true, 2))
}
