package service

import (
	"context"
	"encoding/json"
	"testing"

	"practice_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyPlanService_Build(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()

	progress := model.NewProgressMap()
	set := func(subject, id string, mastery float64, last string) {
		p := model.DefaultModuleProgress()
		p.MasteryScore = mastery
		p.LastPracticed = &last
		progress.Set(subject, id, p)
	}
	// 先把所有模块放在中间水平，再设置最弱和最强的几个
	for _, mod := range model.AllModules() {
		set(mod.Subject, mod.ID, 0.5, "2026-03-10")
	}
	set("math", "money", 0.1, "2026-03-12")
	set("math", "time", 0.1, "2026-03-11")
	set("english", "greetings", 0.95, "2026-03-13")
	set("life", "workSkills", 0.95, "2026-03-01")
	data, err := json.Marshal(progress)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, model.KeyProgress, data))
	require.NoError(t, store.Save(ctx, model.KeySettings, json.RawMessage(`{"sessionMinutes":20}`)))

	progressSvc, clock := newTestProgressService(store)
	_, err = progressSvc.RecordSession(ctx, "math", "time")
	require.NoError(t, err)

	svc := NewDailyPlanService(progressSvc, NewSettingsService(store, testConfig()))
	svc.Now = clock.Now

	plan, err := svc.Build(ctx)
	require.NoError(t, err)

	require.Len(t, plan.Items, 3)
	assert.Equal(t, "2026-03-14", plan.Date)
	assert.Equal(t, 20, plan.TotalMinutes)

	assert.Equal(t, "time", plan.Items[0].ModuleID, "least recently practiced of the weakest")
	assert.Equal(t, model.PlanReasonNeedsPractice, plan.Items[0].Reason)
	assert.True(t, plan.Items[0].DoneToday)
	assert.Equal(t, "money", plan.Items[1].ModuleID)
	assert.Equal(t, "greetings", plan.Items[2].ModuleID, "most recently practiced of the strongest")
	assert.Equal(t, model.PlanReasonConfidence, plan.Items[2].Reason)

	for _, item := range plan.Items {
		assert.Equal(t, 7, item.Minutes)
	}
	assert.False(t, plan.AllDone)
}
