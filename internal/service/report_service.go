package service

import (
	"context"
	"math"
	"sort"
	"time"

	"practice_backend/internal/model"
)

const (
	topQuestionsLimit  = 8
	recentSessionLimit = 10
)

type ReportService struct {
	progress *ProgressService
	Now      func() time.Time
}

func NewReportService(progress *ProgressService) *ReportService {
	return &ReportService{progress: progress, Now: time.Now}
}

func percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return int(math.Floor(float64(part)*100/float64(whole) + 0.5))
}

// Dashboard 汇总家长看板需要的全部统计
func (s *ReportService) Dashboard(ctx context.Context) (model.Dashboard, error) {
	all, err := s.progress.GetAllProgress(ctx)
	if err != nil {
		return model.Dashboard{}, err
	}
	sessions, err := s.progress.GetSessions(ctx)
	if err != nil {
		return model.Dashboard{}, err
	}
	wrong, err := s.progress.GetWrongAnswers(ctx)
	if err != nil {
		return model.Dashboard{}, err
	}
	hints, err := s.progress.GetHintUsages(ctx)
	if err != nil {
		return model.Dashboard{}, err
	}

	d := model.Dashboard{
		TotalSessions:  sessions.TotalSessions,
		Streak:         sessions.Streak,
		CalendarStreak: streakFromLog(sessions, s.Now()),
		Subjects:       []model.SubjectStats{},
		Modules:        []model.ModuleSummary{},
	}

	days := make(map[string]struct{})
	for _, e := range sessions.Log {
		days[e.Date] = struct{}{}
	}
	d.DaysActive = len(days)

	for _, subject := range model.Subjects {
		stats := model.SubjectStats{Subject: subject}
		for _, mod := range model.SubjectModules(subject) {
			p, _ := all.Get(subject, mod.ID)
			stats.Attempts += p.TotalAttempts
			stats.Correct += p.TotalCorrect
			d.Modules = append(d.Modules, model.ModuleSummary{
				Subject:       subject,
				ModuleID:      mod.ID,
				Name:          mod.Name,
				Icon:          mod.Icon,
				CurrentLevel:  p.CurrentLevel,
				MaxLevel:      mod.MaxLevel,
				MasteryPct:    int(math.Floor(p.MasteryScore*100 + 0.5)),
				Stars:         p.Stars,
				TotalAttempts: p.TotalAttempts,
			})
		}
		stats.Accuracy = percent(stats.Correct, stats.Attempts)
		d.TotalAttempts += stats.Attempts
		d.TotalCorrect += stats.Correct
		d.Subjects = append(d.Subjects, stats)
	}
	d.OverallAccuracy = percent(d.TotalCorrect, d.TotalAttempts)

	d.MostMissed = mostMissed(wrong)
	d.MostHinted = mostHinted(hints)

	recent := lastN(sessions.Log, recentSessionLimit)
	d.RecentSessions = make([]model.SessionEntry, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		d.RecentSessions = append(d.RecentSessions, recent[i])
	}
	return d, nil
}

func questionKey(subject, moduleID string, id model.QuestionID) string {
	return subject + "/" + moduleID + "/" + string(id)
}

// mostMissed 按题目聚合错题，保留最近一次选错的答案
func mostMissed(records []model.WrongAnswerRecord) []model.MissedQuestion {
	index := make(map[string]int)
	out := []model.MissedQuestion{}
	for _, w := range records {
		key := questionKey(w.Subject, w.ModuleID, w.QuestionID)
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, model.MissedQuestion{
				Subject:       w.Subject,
				ModuleID:      w.ModuleID,
				QuestionID:    w.QuestionID,
				QuestionText:  w.QuestionText,
				CorrectAnswer: w.CorrectAnswer,
			})
		}
		out[i].Count++
		out[i].SelectedAnswer = w.SelectedAnswer
		out[i].LastSeen = w.Timestamp
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out[:min(len(out), topQuestionsLimit)]
}

func mostHinted(records []model.HintUsageRecord) []model.HintedQuestion {
	index := make(map[string]int)
	out := []model.HintedQuestion{}
	for _, h := range records {
		key := questionKey(h.Subject, h.ModuleID, h.QuestionID)
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, model.HintedQuestion{
				Subject:      h.Subject,
				ModuleID:     h.ModuleID,
				QuestionID:   h.QuestionID,
				QuestionText: h.QuestionText,
			})
		}
		out[i].Count++
		if h.AnsweredCorrect {
			out[i].CorrectCount++
		}
		out[i].LastSeen = h.Timestamp
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out[:min(len(out), topQuestionsLimit)]
}
