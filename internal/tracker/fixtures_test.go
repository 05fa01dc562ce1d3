package tracker_test

import (
	"time"

	"github.com/2beens/calispro/internal/catalog"
	"github.com/2beens/calispro/internal/ledger"
	"github.com/2beens/calispro/internal/tracker"
)

func testLibrary() tracker.Library {
	return tracker.Library{
		Exercises: []catalog.Exercise{
			{ID: "ex-pushup", Name: "Push-up", Category: catalog.CategoryPush, Level: catalog.LevelBeginner,
				Progressions: catalog.Progressions{Harder: []string{"Diamond Push-up"}}},
			{ID: "ex-diamond", Name: "Diamond Push-up", Category: catalog.CategoryPush, Level: catalog.LevelIntermediate,
				Progressions: catalog.Progressions{Easier: []string{"ex-pushup"}}},
			{ID: "ex-archer", Name: "Archer Push-up", Category: catalog.CategoryPush, Level: catalog.LevelAdvanced},
			{ID: "ex-pullup", Name: "Pull-up", Category: catalog.CategoryPull, Level: catalog.LevelIntermediate},
			{ID: "ex-lsit", Name: "L-sit", Category: catalog.CategoryStatic, Level: catalog.LevelIntermediate},
			{ID: "ex-squat", Name: "Squat", Category: catalog.CategoryLegs, Level: catalog.LevelBeginner},
		},
		Skills: []catalog.Skill{
			{
				ID: "sk-pushup", Name: "Push-up Mastery", Category: catalog.CategoryPush,
				MasteryLevels: []catalog.MasteryLevel{
					{Level: 0, PointsRequired: 0, UnlockedExercises: []string{"Push-up"}},
					{Level: 1, PointsRequired: 100, UnlockedExercises: []string{"ex-diamond", "push-up"}},
					{Level: 2, PointsRequired: 250, UnlockedExercises: []string{"Archer Push-up"}},
				},
			},
			{
				ID: "sk-strength", Name: "Upper Strength", Category: catalog.CategoryFullBody,
				MasteryLevels: []catalog.MasteryLevel{
					{Level: 0, UnlockedExercises: []string{"Push-up", "Pull-up"}},
				},
			},
		},
	}
}

func exerciseByID(lib tracker.Library, id string) catalog.Exercise {
	e, _ := catalog.FindExercise(lib.Exercises, id)
	return e
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
}

type recordedCue struct {
	cue     tracker.Cue
	message string
}

type cueRecorder struct {
	cues []recordedCue
}

func (r *cueRecorder) Notify(cue tracker.Cue, message string) {
	r.cues = append(r.cues, recordedCue{cue: cue, message: message})
}

func (r *cueRecorder) count(cue tracker.Cue) int {
	n := 0
	for _, c := range r.cues {
		if c.cue == cue {
			n++
		}
	}
	return n
}

func historyRecord(req ledger.LogRequest) *ledger.HistoryRecord {
	return &ledger.HistoryRecord{
		ID:          "hist-1",
		SessionType: req.SessionType,
		SessionName: req.SessionName,
		XPGained:    req.XPGained,
	}
}
