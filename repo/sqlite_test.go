package repo

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"WorksForMeBot/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// publishedPlan creates an enabled plan with the given options.
func publishedPlan(t *testing.T, s *SQLiteStore, owner int64, question string, options ...string) (int64, []int64) {
	t.Helper()
	ctx := context.Background()
	planID, err := s.CreatePlan(ctx, owner, question)
	require.NoError(t, err)
	var ids []int64
	for _, o := range options {
		id, err := s.AddOption(ctx, planID, o)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	out, err := s.MarkReady(ctx, planID)
	require.NoError(t, err)
	require.Equal(t, model.Found, out)
	return planID, ids
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "plans.db")
	store, err := NewSQLiteStore(dbPath, zerolog.Nop())
	require.NoError(t, err)
	defer store.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestNewSQLiteStore_ReopenKeepsData(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "plans.db")
	store, err := NewSQLiteStore(dbPath, zerolog.Nop())
	require.NoError(t, err)
	planID, err := store.CreatePlan(context.Background(), 1, "Beach Day")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = NewSQLiteStore(dbPath, zerolog.Nop())
	require.NoError(t, err)
	defer store.Close()
	plan, err := store.GetPlan(context.Background(), planID)
	require.NoError(t, err)
	assert.Equal(t, "Beach Day", plan.Question)
}

func TestCreatePlan_StartsDisabled(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	planID, err := s.CreatePlan(ctx, 42, "Beach Day")
	require.NoError(t, err)

	plan, err := s.GetPlan(ctx, planID)
	require.NoError(t, err)
	assert.Equal(t, int64(42), plan.CreatorUserID)
	assert.Equal(t, "Beach Day", plan.Question)
	assert.False(t, plan.Enabled)
	assert.WithinDuration(t, time.Now(), plan.CreationDate, time.Minute)

	plans, err := s.ListOwnedPlans(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, plans, "disabled plans are not listed")

	out, err := s.MarkReady(ctx, planID)
	require.NoError(t, err)
	assert.Equal(t, model.Found, out)

	plans, err = s.ListOwnedPlans(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, []model.PlanSummary{{ID: planID, Question: "Beach Day"}}, plans)
}

func TestMarkReady_Missing(t *testing.T) {
	s := setupTestStore(t)
	out, err := s.MarkReady(context.Background(), 999)
	require.NoError(t, err)
	assert.Equal(t, model.NotFound, out)
}

func TestGetPlan_NotFound(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.GetPlan(context.Background(), 12345)
	assert.ErrorIs(t, err, model.ErrPlanNotFound)
}

func TestGetOwnedPlan_HidesOtherOwners(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	planID, _ := publishedPlan(t, s, 1, "Dinner")

	plan, err := s.GetOwnedPlan(ctx, planID, 1)
	require.NoError(t, err)
	assert.Equal(t, planID, plan.ID)

	_, err = s.GetOwnedPlan(ctx, planID, 2)
	assert.ErrorIs(t, err, model.ErrPlanNotFound)
}

func TestRenameTitle_OwnerOnly(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	planID, _ := publishedPlan(t, s, 1, "Dinner")

	out, err := s.RenameTitle(ctx, planID, 2, "Hijacked")
	require.NoError(t, err)
	assert.Equal(t, model.NotFound, out)

	out, err = s.RenameTitle(ctx, planID, 1, "Lunch")
	require.NoError(t, err)
	assert.Equal(t, model.Found, out)

	plan, err := s.GetPlan(ctx, planID)
	require.NoError(t, err)
	assert.Equal(t, "Lunch", plan.Question)
}

func TestRemoveOption_MustBelongToPlan(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	planA, optsA := publishedPlan(t, s, 1, "A", "a1", "a2")
	planB, _ := publishedPlan(t, s, 1, "B", "b1")

	out, err := s.RemoveOption(ctx, planB, optsA[0])
	require.NoError(t, err)
	assert.Equal(t, model.NotFound, out)

	out, err = s.RemoveOption(ctx, planA, optsA[0])
	require.NoError(t, err)
	assert.Equal(t, model.Found, out)

	options, err := s.ListOptions(ctx, planA)
	require.NoError(t, err)
	require.Len(t, options, 1)
	assert.Equal(t, "a2", options[0].Option)

	_, err = s.GetOption(ctx, optsA[0])
	assert.ErrorIs(t, err, model.ErrOptionNotFound)
}

func TestRemoveOption_CascadesAnswers(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	planID, opts := publishedPlan(t, s, 1, "A", "a1")
	require.NoError(t, s.CastVote(ctx, opts[0], 7, "@seven", model.AnswerYes))

	_, err := s.RemoveOption(ctx, planID, opts[0])
	require.NoError(t, err)

	_, found, err := s.GetVote(ctx, opts[0], 7)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCastVote_InsertThenUpdate(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	planID, opts := publishedPlan(t, s, 1, "Beach Day", "Saturday")

	_, found, err := s.GetVote(ctx, opts[0], 2)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.CastVote(ctx, opts[0], 2, "@bob", model.AnswerYes))
	require.NoError(t, s.CastVote(ctx, opts[0], 2, "@bob", model.AnswerIfNecessary))

	v, found, err := s.GetVote(ctx, opts[0], 2)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, model.AnswerIfNecessary, v)

	voters, err := s.ListOptionsWithNames(ctx, planID)
	require.NoError(t, err)
	require.Len(t, voters, 1)
	assert.Equal(t, 0, voters[0].YesCount)
	assert.Equal(t, 1, voters[0].MaybeCount, "the pair must keep a single row")
}

func TestListOptionsWithTally(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	planID, opts := publishedPlan(t, s, 1, "When?", "Mon", "Tue", "Wed")

	// Mon: 2 yes, 1 maybe, 1 no. Tue: 0 yes, 2 maybe. Wed: nothing.
	require.NoError(t, s.CastVote(ctx, opts[0], 10, "a", model.AnswerYes))
	require.NoError(t, s.CastVote(ctx, opts[0], 11, "b", model.AnswerYes))
	require.NoError(t, s.CastVote(ctx, opts[0], 12, "c", model.AnswerIfNecessary))
	require.NoError(t, s.CastVote(ctx, opts[0], 13, "d", model.AnswerNo))
	require.NoError(t, s.CastVote(ctx, opts[1], 10, "a", model.AnswerIfNecessary))
	require.NoError(t, s.CastVote(ctx, opts[1], 11, "b", model.AnswerIfNecessary))

	tallies, err := s.ListOptionsWithTally(ctx, planID)
	require.NoError(t, err)
	assert.Equal(t, []model.OptionTally{
		{ID: opts[0], Option: "Mon", YesCount: 2, MaybeCount: 1},
		{ID: opts[1], Option: "Tue", YesCount: 0, MaybeCount: 2},
		{ID: opts[2], Option: "Wed", YesCount: 0, MaybeCount: 0},
	}, tallies)
}

func TestListOptionsWithNames_VoteOrder(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	planID, opts := publishedPlan(t, s, 1, "When?", "Mon", "Tue")

	require.NoError(t, s.CastVote(ctx, opts[0], 11, "Zed, Jr.", model.AnswerYes))
	require.NoError(t, s.CastVote(ctx, opts[0], 10, "@amy", model.AnswerYes))
	require.NoError(t, s.CastVote(ctx, opts[0], 12, "@cal", model.AnswerIfNecessary))

	voters, err := s.ListOptionsWithNames(ctx, planID)
	require.NoError(t, err)
	require.Len(t, voters, 2)

	assert.Equal(t, []string{"Zed, Jr.", "@amy"}, voters[0].YesNames)
	assert.Equal(t, 2, voters[0].YesCount)
	assert.Equal(t, []string{"@cal"}, voters[0].MaybeNames)
	assert.Equal(t, 1, voters[0].MaybeCount)

	assert.Equal(t, "Tue", voters[1].Option)
	assert.Empty(t, voters[1].YesNames)
	assert.Zero(t, voters[1].YesCount)
	assert.Zero(t, voters[1].MaybeCount)
}

func TestDeletePlan_Cascades(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	planID, opts := publishedPlan(t, s, 1, "Beach Day", "Saturday", "Sunday")
	require.NoError(t, s.CastVote(ctx, opts[0], 2, "@bob", model.AnswerYes))
	require.NoError(t, s.CastVote(ctx, opts[1], 3, "@cat", model.AnswerIfNecessary))

	out, err := s.DeletePlan(ctx, 1, planID)
	require.NoError(t, err)
	assert.Equal(t, model.Found, out)

	_, err = s.GetPlan(ctx, planID)
	assert.ErrorIs(t, err, model.ErrPlanNotFound)

	options, err := s.ListOptions(ctx, planID)
	require.NoError(t, err)
	assert.Empty(t, options)

	for _, id := range opts {
		_, found, err := s.GetVote(ctx, id, 2)
		require.NoError(t, err)
		assert.False(t, found)
		_, found, err = s.GetVote(ctx, id, 3)
		require.NoError(t, err)
		assert.False(t, found)
	}
}

func TestDeletePlan_NotOwnerLeavesEverything(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	planID, opts := publishedPlan(t, s, 1, "Beach Day", "Saturday")
	require.NoError(t, s.CastVote(ctx, opts[0], 2, "@bob", model.AnswerYes))

	out, err := s.DeletePlan(ctx, 99, planID)
	require.NoError(t, err)
	assert.Equal(t, model.NotFound, out)

	tallies, err := s.ListOptionsWithTally(ctx, planID)
	require.NoError(t, err)
	require.Len(t, tallies, 1)
	assert.Equal(t, 1, tallies[0].YesCount)
}

func TestListOwnedPlansFiltered(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Hour)
	}

	older, _ := publishedPlan(t, s, 1, "Beach Day")
	_, _ = publishedPlan(t, s, 1, "Movie night")
	newer, _ := publishedPlan(t, s, 1, "BEACH volleyball")
	_, _ = publishedPlan(t, s, 2, "Beach party")
	_, err := s.CreatePlan(ctx, 1, "Beach draft") // never published
	require.NoError(t, err)

	plans, err := s.ListOwnedPlansFiltered(ctx, 1, "beach", 10)
	require.NoError(t, err)
	assert.Equal(t, []model.PlanSummary{
		{ID: newer, Question: "BEACH volleyball"},
		{ID: older, Question: "Beach Day"},
	}, plans)

	plans, err = s.ListOwnedPlansFiltered(ctx, 1, "", 10)
	require.NoError(t, err)
	assert.Len(t, plans, 3)

	plans, err = s.ListOwnedPlansFiltered(ctx, 1, "", 2)
	require.NoError(t, err)
	assert.Len(t, plans, 2)
	assert.Equal(t, newer, plans[0].ID)
}

func TestListOwnedPlansFiltered_Cap(t *testing.T) {
	s := setupTestStore(t)
	for i := 0; i < 12; i++ {
		publishedPlan(t, s, 1, "Plan")
	}
	plans, err := s.ListOwnedPlansFiltered(context.Background(), 1, "plan", 10)
	require.NoError(t, err)
	assert.Len(t, plans, 10)
}

func TestListOwnedPlansFiltered_SubSecondOrder(t *testing.T) {
	s := setupTestStore(t)
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	times := []time.Time{base, base.Add(100 * time.Millisecond), base.Add(120 * time.Millisecond)}
	s.now = func() time.Time {
		next := times[0]
		times = times[1:]
		return next
	}

	first, _ := publishedPlan(t, s, 1, "First")
	second, _ := publishedPlan(t, s, 1, "Second")
	third, _ := publishedPlan(t, s, 1, "Third")

	plans, err := s.ListOwnedPlansFiltered(context.Background(), 1, "", 10)
	require.NoError(t, err)
	require.Len(t, plans, 3)
	assert.Equal(t, []int64{third, second, first}, []int64{plans[0].ID, plans[1].ID, plans[2].ID})

	plan, err := s.GetPlan(context.Background(), second)
	require.NoError(t, err)
	assert.True(t, plan.CreationDate.Equal(base.Add(100*time.Millisecond)))
}
