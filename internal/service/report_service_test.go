package service

import (
	"context"
	"testing"

	"practice_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportService_Dashboard(t *testing.T) {
	ctx := context.Background()
	progress, clock := newTestProgressService(newMemStore())

	for i, correct := range []bool{true, true, false, true} {
		_, err := progress.RecordAnswer(ctx, "math", "money", correct, model.QuestionIDFromInt(i))
		require.NoError(t, err)
	}
	_, err := progress.RecordAnswer(ctx, "english", "pronouns", false, "p1")
	require.NoError(t, err)

	_, err = progress.RecordSession(ctx, "math", "money")
	require.NoError(t, err)
	clock.advanceDays(1)
	_, err = progress.RecordSession(ctx, "english", "pronouns")
	require.NoError(t, err)

	for _, sel := range []string{"he", "they"} {
		require.NoError(t, progress.RecordWrongAnswer(ctx, "english", "pronouns", WrongAnswerInput{
			QuestionID: "p1", QuestionText: "___ is my friend", CorrectAnswer: "She", SelectedAnswer: sel,
		}))
	}
	// 不同模块里相同的题号分开统计
	require.NoError(t, progress.RecordWrongAnswer(ctx, "math", "money", WrongAnswerInput{QuestionID: "p1"}))
	require.NoError(t, progress.RecordHintUsage(ctx, "math", "money", HintUsageInput{QuestionID: "2", AnsweredCorrect: true}))
	require.NoError(t, progress.RecordHintUsage(ctx, "math", "money", HintUsageInput{QuestionID: "2"}))

	svc := NewReportService(progress)
	svc.Now = clock.Now

	d, err := svc.Dashboard(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, d.TotalSessions)
	assert.Equal(t, 2, d.Streak)
	assert.Equal(t, 2, d.CalendarStreak)
	assert.Equal(t, 2, d.DaysActive)
	assert.Equal(t, 5, d.TotalAttempts)
	assert.Equal(t, 3, d.TotalCorrect)
	assert.Equal(t, 60, d.OverallAccuracy)

	require.Len(t, d.Subjects, 3)
	assert.Equal(t, model.SubjectStats{Subject: "math", Attempts: 4, Correct: 3, Accuracy: 75}, d.Subjects[0])
	assert.Equal(t, model.SubjectStats{Subject: "english", Attempts: 1, Correct: 0, Accuracy: 0}, d.Subjects[1])

	assert.Len(t, d.Modules, len(model.AllModules()))
	assert.Equal(t, "money", d.Modules[0].ModuleID)
	assert.Equal(t, 75, d.Modules[0].MasteryPct)

	require.Len(t, d.MostMissed, 2)
	assert.Equal(t, "pronouns", d.MostMissed[0].ModuleID)
	assert.Equal(t, 2, d.MostMissed[0].Count)
	assert.Equal(t, "they", d.MostMissed[0].SelectedAnswer)
	assert.Equal(t, "money", d.MostMissed[1].ModuleID)

	require.Len(t, d.MostHinted, 1)
	assert.Equal(t, 2, d.MostHinted[0].Count)
	assert.Equal(t, 1, d.MostHinted[0].CorrectCount)

	require.Len(t, d.RecentSessions, 2)
	assert.Equal(t, "pronouns", d.RecentSessions[0].Module, "newest first")
}

func TestReportService_TopListsAreBounded(t *testing.T) {
	var records []model.WrongAnswerRecord
	for i := 0; i < 12; i++ {
		records = append(records, model.WrongAnswerRecord{Subject: "math", ModuleID: "adding", QuestionID: model.QuestionIDFromInt(i)})
	}
	records = append(records, model.WrongAnswerRecord{Subject: "math", ModuleID: "adding", QuestionID: "11"})

	missed := mostMissed(records)

	require.Len(t, missed, topQuestionsLimit)
	assert.Equal(t, model.QuestionID("11"), missed[0].QuestionID)
	assert.Equal(t, 2, missed[0].Count)
	assert.Equal(t, model.QuestionID("0"), missed[1].QuestionID, "ties keep first-seen order")
}
