package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"practice_backend/internal/model"
	"practice_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) advanceDays(n int) { c.now = c.now.AddDate(0, 0, n) }

func newTestProgressService(store *memStore) (*ProgressService, *testClock) {
	clock := &testClock{now: time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)}
	svc := NewProgressService(store, &MasteryEngine{Now: clock.Now})
	svc.Now = clock.Now
	return svc, clock
}

func TestProgressService_RecordAnswer(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc, _ := newTestProgressService(store)

	p, err := svc.RecordAnswer(ctx, "math", "money", true, "q1")
	require.NoError(t, err)
	assert.Equal(t, 1, p.TotalAttempts)
	assert.Equal(t, 3, p.Stars)

	got, err := svc.GetModuleProgress(ctx, "math", "money")
	require.NoError(t, err)
	assert.Equal(t, p, got)

	_, err = svc.RecordAnswer(ctx, "math", "algebra", true, "q1")
	assert.ErrorIs(t, err, util.ErrModuleNotFound)
}

func TestProgressService_GetAllProgressFillsCatalog(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	require.NoError(t, store.Save(ctx, model.KeyProgress, json.RawMessage(`{"math":{"money":{"currentLevel":4,"history":[]}}}`)))
	svc, _ := newTestProgressService(store)

	all, err := svc.GetAllProgress(ctx)
	require.NoError(t, err)

	for _, mod := range model.AllModules() {
		_, ok := all.Get(mod.Subject, mod.ID)
		assert.True(t, ok, "%s/%s", mod.Subject, mod.ID)
	}
	money, _ := all.Get("math", "money")
	assert.Equal(t, 4, money.CurrentLevel)
	reading, _ := all.Get("english", "readingComprehension")
	assert.Equal(t, 1, reading.CurrentLevel)
	assert.NotNil(t, reading.History)
}

func TestProgressService_MalformedLocalDataFallsBack(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	require.NoError(t, store.Save(ctx, model.KeySessions, json.RawMessage(`"oops"`)))
	svc, _ := newTestProgressService(store)

	log, err := svc.GetSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, log.TotalSessions)
	assert.NotNil(t, log.Log)
}

func TestProgressService_RecordSessionStreak(t *testing.T) {
	ctx := context.Background()
	svc, clock := newTestProgressService(newMemStore())

	log, err := svc.RecordSession(ctx, "math", "money")
	require.NoError(t, err)
	assert.Equal(t, 1, log.Streak)
	assert.Equal(t, 1, log.TotalSessions)

	log, err = svc.RecordSession(ctx, "english", "greetings")
	require.NoError(t, err)
	assert.Equal(t, 1, log.Streak, "same day does not extend the streak")
	assert.Equal(t, 2, log.TotalSessions)

	clock.advanceDays(1)
	log, err = svc.RecordSession(ctx, "math", "time")
	require.NoError(t, err)
	assert.Equal(t, 2, log.Streak)
	require.NotNil(t, log.LastSessionDate)
	assert.Equal(t, "2026-03-15", *log.LastSessionDate)

	streak, err := svc.CurrentStreak(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, streak)

	clock.advanceDays(3)
	streak, err = svc.CurrentStreak(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, streak)
}

func TestProgressService_SessionLogBounded(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestProgressService(newMemStore())

	for i := 0; i < model.MaxLogEntries+5; i++ {
		_, err := svc.RecordSession(ctx, "math", "adding")
		require.NoError(t, err)
	}

	log, err := svc.GetSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, log.Log, model.MaxLogEntries)
	assert.Equal(t, model.MaxLogEntries+5, log.TotalSessions)
}

func TestProgressService_TodayCompleted(t *testing.T) {
	ctx := context.Background()
	svc, clock := newTestProgressService(newMemStore())

	_, err := svc.RecordSession(ctx, "math", "money")
	require.NoError(t, err)

	done, err := svc.TodayCompleted(ctx, "math")
	require.NoError(t, err)
	assert.True(t, done)

	done, err = svc.TodayCompleted(ctx, "english")
	require.NoError(t, err)
	assert.False(t, done)

	clock.advanceDays(1)
	done, err = svc.TodayCompleted(ctx, "math")
	require.NoError(t, err)
	assert.False(t, done)
}

func TestProgressService_ResetModule(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestProgressService(newMemStore())

	_, err := svc.RecordAnswer(ctx, "math", "money", false, "m1")
	require.NoError(t, err)
	_, err = svc.RecordAnswer(ctx, "math", "time", false, "t1")
	require.NoError(t, err)
	require.NoError(t, svc.RecordWrongAnswer(ctx, "math", "money", WrongAnswerInput{QuestionID: "m1", SelectedAnswer: "$2"}))
	require.NoError(t, svc.RecordWrongAnswer(ctx, "math", "time", WrongAnswerInput{QuestionID: "t1", SelectedAnswer: "3:00"}))
	require.NoError(t, svc.RecordHintUsage(ctx, "math", "money", HintUsageInput{QuestionID: "m1"}))
	require.NoError(t, svc.RecordHintUsage(ctx, "math", "time", HintUsageInput{QuestionID: "t1", AnsweredCorrect: true}))

	require.NoError(t, svc.ResetModule(ctx, "math", "money"))

	money, err := svc.GetModuleProgress(ctx, "math", "money")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultModuleProgress(), money)

	timeProgress, err := svc.GetModuleProgress(ctx, "math", "time")
	require.NoError(t, err)
	assert.Equal(t, 1, timeProgress.TotalAttempts)

	wrong, err := svc.GetWrongAnswers(ctx)
	require.NoError(t, err)
	require.Len(t, wrong, 1)
	assert.Equal(t, "time", wrong[0].ModuleID)

	hints, err := svc.GetHintUsages(ctx)
	require.NoError(t, err)
	require.Len(t, hints, 1)
	assert.Equal(t, "time", hints[0].ModuleID)

	assert.ErrorIs(t, svc.ResetModule(ctx, "life", "cooking"), util.ErrModuleNotFound)
}

func TestProgressService_ResetAllKeepsSettings(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc, _ := newTestProgressService(store)
	require.NoError(t, store.Save(ctx, model.KeySettings, json.RawMessage(`{"sessionMinutes":20}`)))

	_, err := svc.RecordAnswer(ctx, "life", "workSkills", true, "w1")
	require.NoError(t, err)
	_, err = svc.RecordSession(ctx, "life", "workSkills")
	require.NoError(t, err)
	require.NoError(t, svc.RecordWrongAnswer(ctx, "life", "workSkills", WrongAnswerInput{QuestionID: "w1"}))

	require.NoError(t, svc.ResetAll(ctx))

	all, err := svc.GetAllProgress(ctx)
	require.NoError(t, err)
	work, _ := all.Get("life", "workSkills")
	assert.Equal(t, 0, work.TotalAttempts)

	log, err := svc.GetSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, log.TotalSessions)
	assert.Empty(t, log.Log)

	wrong, err := svc.GetWrongAnswers(ctx)
	require.NoError(t, err)
	assert.Empty(t, wrong)

	assert.JSONEq(t, `{"sessionMinutes":20}`, store.raw(model.KeySettings))
}

func TestProgressService_WrongAnswersBounded(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestProgressService(newMemStore())

	for i := 0; i < model.MaxLogEntries+1; i++ {
		require.NoError(t, svc.RecordWrongAnswer(ctx, "math", "adding", WrongAnswerInput{QuestionID: model.QuestionIDFromInt(i)}))
	}

	wrong, err := svc.GetWrongAnswers(ctx)
	require.NoError(t, err)
	require.Len(t, wrong, model.MaxLogEntries)
	assert.Equal(t, model.QuestionID("1"), wrong[0].QuestionID)
	assert.Equal(t, time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC), wrong[0].Timestamp)
}
