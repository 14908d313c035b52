package service

import (
	"context"
	"math"
	"sort"
	"time"

	"practice_backend/internal/model"
	"practice_backend/internal/util"
)

const (
	planSize      = 3
	planWeakCount = 2
)

type DailyPlanService struct {
	progress *ProgressService
	settings *SettingsService
	Now      func() time.Time
}

func NewDailyPlanService(progress *ProgressService, settings *SettingsService) *DailyPlanService {
	return &DailyPlanService{progress: progress, settings: settings, Now: time.Now}
}

type scoredModule struct {
	model.ModuleInfo
	mastery  float64
	lastTime int64
}

// Build 两个最需要练习的模块加一个最擅长的模块，练习时间平均分配
func (s *DailyPlanService) Build(ctx context.Context) (model.DailyPlan, error) {
	all, err := s.progress.GetAllProgress(ctx)
	if err != nil {
		return model.DailyPlan{}, err
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return model.DailyPlan{}, err
	}
	sessions, err := s.progress.GetSessions(ctx)
	if err != nil {
		return model.DailyPlan{}, err
	}

	today := util.DateString(s.Now())
	doneToday := make(map[string]bool)
	for _, e := range sessions.Log {
		if e.Date == today {
			doneToday[e.Subject+"/"+e.Module] = true
		}
	}

	var scored []scoredModule
	for _, mod := range model.AllModules() {
		p, _ := all.Get(mod.Subject, mod.ID)
		var last int64
		if p.LastPracticed != nil {
			if t, err := time.Parse(util.DateFormat, *p.LastPracticed); err == nil {
				last = t.Unix()
			}
		}
		scored = append(scored, scoredModule{ModuleInfo: mod, mastery: p.MasteryScore, lastTime: last})
	}

	byNeed := append([]scoredModule(nil), scored...)
	sort.SliceStable(byNeed, func(i, j int) bool {
		if byNeed[i].mastery != byNeed[j].mastery {
			return byNeed[i].mastery < byNeed[j].mastery
		}
		return byNeed[i].lastTime < byNeed[j].lastTime
	})
	byStrength := append([]scoredModule(nil), scored...)
	sort.SliceStable(byStrength, func(i, j int) bool {
		if byStrength[i].mastery != byStrength[j].mastery {
			return byStrength[i].mastery > byStrength[j].mastery
		}
		return byStrength[i].lastTime > byStrength[j].lastTime
	})

	var items []model.PlanItem
	picked := make(map[string]bool)
	take := func(list []scoredModule, limit int, reason string) {
		for _, m := range list {
			if len(items) >= limit {
				return
			}
			key := m.Subject + "/" + m.ID
			if picked[key] {
				continue
			}
			picked[key] = true
			items = append(items, model.PlanItem{
				Subject:   m.Subject,
				ModuleID:  m.ID,
				Name:      m.Name,
				Icon:      m.Icon,
				Reason:    reason,
				Mastery:   m.mastery,
				DoneToday: doneToday[key],
			})
		}
	}
	take(byNeed, planWeakCount, model.PlanReasonNeedsPractice)
	take(byStrength, planSize, model.PlanReasonConfidence)
	take(byNeed, planSize, model.PlanReasonNeedsPractice)

	perModule := int(math.Floor(float64(settings.SessionMinutes)/float64(max(len(items), 1)) + 0.5))
	allDone := len(items) > 0
	for i := range items {
		items[i].Minutes = perModule
		if !items[i].DoneToday {
			allDone = false
		}
	}

	return model.DailyPlan{
		Date:         today,
		TotalMinutes: settings.SessionMinutes,
		Items:        items,
		AllDone:      allDone,
	}, nil
}
