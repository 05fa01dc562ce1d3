package internal_test

import (
	"context"
	"net/http"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/calispro/internal/client"
	"github.com/2beens/calispro/internal/ledger"
	"github.com/2beens/calispro/internal/tracker"
	"github.com/2beens/calispro/internal/users"
)

func (s *EndToEndSuite) signupAndLogin(ctx context.Context) *client.Client {
	t := s.T()
	anon := s.newClient()

	email := gofakeit.Email()
	password := gofakeit.Password(true, true, true, false, false, 12)
	signup, err := anon.Signup(ctx, users.SignupRequest{
		Name:     gofakeit.Name(),
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)
	require.NotEmpty(t, signup.User.ID)

	login, err := anon.Login(ctx, email, password)
	require.NoError(t, err)
	require.NotEmpty(t, login.Token)
	return anon.WithToken(login.Token)
}

func (s *EndToEndSuite) TestAnonymousAccess() {
	t := s.T()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	anon := s.newClient()

	exercises, err := anon.Exercises(ctx)
	require.NoError(t, err)
	assert.Len(t, exercises, 3)

	_, err = anon.Exercise(ctx, "nope")
	assert.ErrorIs(t, err, client.ErrNotFound)

	_, err = anon.Streaks(ctx)
	assert.ErrorIs(t, err, client.ErrUnauthorized)

	_, err = anon.Login(ctx, "nobody@calispro.test", "wrong")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}

func (s *EndToEndSuite) TestSkillSessionEndToEnd() {
	t := s.T()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	api := s.signupAndLogin(ctx)

	lib, err := api.Library(ctx)
	require.NoError(t, err)
	skill, err := api.Skill(ctx, "push-mastery")
	require.NoError(t, err)

	trk, err := tracker.NewTracker(tracker.NewTrackerParams{
		Target:  tracker.SkillTarget{Skill: *skill},
		Library: lib,
		Ledger:  api,
	})
	require.NoError(t, err)
	require.Len(t, trk.Entries(), 1)

	for i := range trk.Sets(0) {
		require.NoError(t, trk.ToggleSet(i))
	}
	adv, err := trk.Next()
	require.NoError(t, err)
	require.Equal(t, tracker.AdvanceFinish, adv)

	rec, err := trk.Finish(ctx)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, trk.Finished())
	assert.Equal(t, ledger.SessionTypeSkill, rec.SessionType)
	// mastery is keyed by skill name
	assert.Equal(t, "Push-up Mastery", rec.SkillID)

	mastery, err := api.Mastery(ctx)
	require.NoError(t, err)
	require.Len(t, mastery, 1)
	assert.Equal(t, "Push-up Mastery", mastery[0].SkillID)
	assert.Greater(t, mastery[0].CurrentPoints, 0)

	streaks, err := api.Streaks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, streaks.CurrentStreak)
	assert.Equal(t, 1, streaks.TotalActiveDays)
	assert.True(t, streaks.HasTrainedToday)

	history, err := api.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, rec.ID, history[0].ID)

	require.NoError(t, api.DeleteHistoryEntry(ctx, rec.ID))
	history, err = api.History(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, history)

	streaks, err = api.Streaks(ctx)
	require.NoError(t, err)
	assert.Zero(t, streaks.CurrentStreak)
	assert.False(t, streaks.HasTrainedToday)
}

func (s *EndToEndSuite) TestWorkoutSession() {
	t := s.T()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	api := s.signupAndLogin(ctx)

	lib, err := api.Library(ctx)
	require.NoError(t, err)
	workout, err := api.Workout(ctx, "starter")
	require.NoError(t, err)

	trk, err := tracker.NewTracker(tracker.NewTrackerParams{
		Target:  tracker.WorkoutTarget{Workout: *workout},
		Library: lib,
		Ledger:  api,
	})
	require.NoError(t, err)
	require.Len(t, trk.Entries(), 2)

	for {
		idx, _ := trk.Current()
		for i := range trk.Sets(idx) {
			require.NoError(t, trk.ToggleSet(i))
		}
		adv, err := trk.Next()
		require.NoError(t, err)
		if adv != tracker.AdvanceMoved {
			break
		}
	}

	rec, err := trk.Finish(ctx)
	require.NoError(t, err)
	// base 50 plus round(20/2) and round(30/2)
	assert.Equal(t, 75, rec.XPGained)
	assert.Equal(t, "starter", rec.WorkoutID)
	require.Len(t, rec.Exercises, 2)

	// the server accrues workout mastery itself: push-ups unlock Push-up Mastery, round(5 + 20*2)
	mastery, err := api.Mastery(ctx)
	require.NoError(t, err)
	require.Len(t, mastery, 1)
	assert.Equal(t, "Push-up Mastery", mastery[0].SkillID)
	assert.Equal(t, 45, mastery[0].CurrentPoints)
	assert.Zero(t, mastery[0].CurrentLevel)
}

func (s *EndToEndSuite) TestLogoutRevokesToken() {
	t := s.T()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	api := s.signupAndLogin(ctx)
	_, err := api.Streaks(ctx)
	require.NoError(t, err)

	require.NoError(t, api.Logout(ctx))

	_, err = api.Streaks(ctx)
	assert.ErrorIs(t, err, client.ErrUnauthorized)
}
