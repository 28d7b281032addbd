package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/retreat/internal/stamp"
)

func TestKV_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "k", "a"))
	require.NoError(t, s.Set(ctx, "k", "b"))
	v, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "b", v, "last write wins")

	require.NoError(t, s.Delete(ctx, "k"))
	require.NoError(t, s.Delete(ctx, "k"))
	_, ok, _ = s.Get(ctx, "k")
	assert.False(t, ok)
}

func TestUpdatedAt_UsesClock(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	pinned := time.Date(2026, time.January, 12, 9, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return pinned })

	require.NoError(t, s.Set(ctx, KeyUserName, "지민"))
	require.NoError(t, s.SubmitTestimony(ctx, "감사합니다"))
	require.NoError(t, s.SaveStampEntry(ctx, "praise", stamp.Entry{TargetName: "하늘"}))

	for _, q := range []string{
		`SELECT updated_at FROM kv WHERE key = 'userName'`,
		`SELECT updated_at FROM kv WHERE key = 'testimony_submitted'`,
		`SELECT updated_at FROM stamp_entries WHERE activity_id = 'praise'`,
	} {
		var ms int64
		require.NoError(t, s.db.QueryRow(q).Scan(&ms))
		assert.Equal(t, pinned.UnixMilli(), ms, q)
	}

	s.SetClock(nil)
	require.NoError(t, s.Set(ctx, KeyUserName, "민수"))
	var ms int64
	require.NoError(t, s.db.QueryRow(`SELECT updated_at FROM kv WHERE key = 'userName'`).Scan(&ms))
	assert.Greater(t, ms, pinned.UnixMilli(), "nil restores the wall clock")
}

func TestCompletedMissions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ids, err := s.CompletedMissions(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, s.SaveCompletedMissions(ctx, []int{5, 1, 3}))
	raw, _, _ := s.Get(ctx, KeyCompletedMissions)
	assert.Equal(t, "[1,3,5]", raw)

	ids, err = s.CompletedMissions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 5}, ids)

	require.NoError(t, s.SaveCompletedMissions(ctx, nil))
	raw, _, _ = s.Get(ctx, KeyCompletedMissions)
	assert.Equal(t, "[]", raw)
}

func TestCompletedMissions_Malformed(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, KeyCompletedMissions, "{not json"))
	ids, err := s.CompletedMissions(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestTestimony(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, KeyTestimonyDraft, "초안"))
	draft, submitted, err := s.Testimony(ctx)
	require.NoError(t, err)
	assert.Equal(t, "초안", draft)
	assert.Empty(t, submitted)

	require.NoError(t, s.SubmitTestimony(ctx, "은혜"))
	draft, submitted, err = s.Testimony(ctx)
	require.NoError(t, err)
	assert.Empty(t, draft, "submit clears the draft")
	assert.Equal(t, "은혜", submitted)
}

func TestSplashShown(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	shown, err := s.SplashShown(ctx)
	require.NoError(t, err)
	assert.False(t, shown)

	require.NoError(t, s.MarkSplashShown(ctx))
	shown, _ = s.SplashShown(ctx)
	assert.True(t, shown)
}

func TestStampEntries_PersistAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveStampEntry(ctx, "a1", stamp.Entry{
		TargetName:          "지민",
		SelectedOptionIndex: 2,
		PhotoData:           "data:image/png;base64,AAAA",
		Completed:           true,
	}))
	require.NoError(t, s.SaveStampEntry(ctx, "a2", stamp.Entry{TargetName: "x", SelectedOptionIndex: 0}))
	require.NoError(t, s.SaveStampEntry(ctx, "a2", stamp.Entry{TargetName: "y", SelectedOptionIndex: 1}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	entries, err := s.StampEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, stamp.Completed, entries["a1"].State())
	assert.Equal(t, "지민", entries["a1"].TargetName)
	assert.Equal(t, 2, entries["a1"].SelectedOptionIndex)
	assert.Equal(t, "y", entries["a2"].TargetName)
}

func TestStampEntries_SkipsMalformed(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveStampEntry(ctx, "ok", stamp.Entry{TargetName: "a", SelectedOptionIndex: 0}))
	_, err := s.db.Exec(`INSERT INTO stamp_entries (activity_id, entry, updated_at) VALUES ('bad', 'nope', 0)`)
	require.NoError(t, err)

	entries, err := s.StampEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Contains(t, entries, "ok")
}

func TestSurveys(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	at := time.Date(2026, 2, 8, 12, 0, 0, 0, time.UTC)
	id, err := s.SaveSurvey(ctx, SurveyResponse{Best: "찬양", Improve: "식사", Satisfaction: 4, SubmittedAt: at})
	require.NoError(t, err)
	assert.Positive(t, id)

	_, err = s.SaveSurvey(ctx, SurveyResponse{Satisfaction: 9, SubmittedAt: at})
	assert.Error(t, err)

	all, err := s.Surveys(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "찬양", all[0].Best)
	assert.Equal(t, 4, all[0].Satisfaction)
	assert.True(t, at.Equal(all[0].SubmittedAt))
}
