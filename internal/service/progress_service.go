package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"practice_backend/internal/model"
	"practice_backend/internal/repository"
	"practice_backend/internal/util"
	"practice_backend/pkg/monitoring"
)

type ProgressService struct {
	store   repository.PersistentStore
	mastery *MasteryEngine
	Now     func() time.Time

	// 同一设备上的读-改-写串行执行
	mu sync.Mutex
}

func NewProgressService(store repository.PersistentStore, mastery *MasteryEngine) *ProgressService {
	return &ProgressService{
		store:   store,
		mastery: mastery,
		Now:     time.Now,
	}
}

func (s *ProgressService) today() string {
	return util.DateString(s.Now())
}

func (s *ProgressService) loadProgress(ctx context.Context) (model.ProgressMap, error) {
	p, err := loadJSON(ctx, s.store, model.KeyProgress, model.NewProgressMap)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = make(model.ProgressMap)
	}
	for subject, mods := range p {
		for id, mp := range mods {
			if mp.History == nil {
				mp.History = []model.AnswerRecord{}
				p[subject][id] = mp
			}
		}
	}
	return p, nil
}

func (s *ProgressService) loadSessions(ctx context.Context) (model.SessionLog, error) {
	log, err := loadJSON(ctx, s.store, model.KeySessions, model.DefaultSessionLog)
	if err != nil {
		return log, err
	}
	if log.Log == nil {
		log.Log = []model.SessionEntry{}
	}
	return log, nil
}

func (s *ProgressService) loadWrongAnswers(ctx context.Context) ([]model.WrongAnswerRecord, error) {
	list, err := loadJSON(ctx, s.store, model.KeyWrongAnswers, func() []model.WrongAnswerRecord {
		return []model.WrongAnswerRecord{}
	})
	if list == nil && err == nil {
		list = []model.WrongAnswerRecord{}
	}
	return list, err
}

func (s *ProgressService) loadHintUsages(ctx context.Context) ([]model.HintUsageRecord, error) {
	list, err := loadJSON(ctx, s.store, model.KeyHintUsages, func() []model.HintUsageRecord {
		return []model.HintUsageRecord{}
	})
	if list == nil && err == nil {
		list = []model.HintUsageRecord{}
	}
	return list, err
}

// GetAllProgress 目录中的每个模块都会出现，未练习过的为默认值
func (s *ProgressService) GetAllProgress(ctx context.Context) (model.ProgressMap, error) {
	p, err := s.loadProgress(ctx)
	if err != nil {
		return nil, err
	}
	for _, mod := range model.AllModules() {
		if _, ok := p.Get(mod.Subject, mod.ID); !ok {
			p.Set(mod.Subject, mod.ID, model.DefaultModuleProgress())
		}
	}
	return p, nil
}

func (s *ProgressService) GetModuleProgress(ctx context.Context, subject, moduleID string) (model.ModuleProgress, error) {
	if _, ok := model.GetModule(subject, moduleID); !ok {
		return model.ModuleProgress{}, util.ErrModuleNotFound
	}
	p, err := s.loadProgress(ctx)
	if err != nil {
		return model.ModuleProgress{}, err
	}
	if mp, ok := p.Get(subject, moduleID); ok {
		return mp, nil
	}
	return model.DefaultModuleProgress(), nil
}

// RecordAnswer 用掌握度引擎更新模块进度并持久化
func (s *ProgressService) RecordAnswer(ctx context.Context, subject, moduleID string, correct bool, questionID model.QuestionID) (model.ModuleProgress, error) {
	mod, ok := model.GetModule(subject, moduleID)
	if !ok {
		return model.ModuleProgress{}, util.ErrModuleNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.loadProgress(ctx)
	if err != nil {
		return model.ModuleProgress{}, err
	}
	current, ok := p.Get(subject, moduleID)
	if !ok {
		current = model.DefaultModuleProgress()
	}

	updated := s.mastery.RecordAnswer(current, correct, questionID, mod.MaxLevel)
	p.Set(subject, moduleID, updated)
	if err := saveJSON(ctx, s.store, model.KeyProgress, p); err != nil {
		return model.ModuleProgress{}, err
	}

	monitoring.AnswerCounter.WithLabelValues(subject, strconv.FormatBool(correct)).Inc()
	return updated, nil
}

// RecordSession 完成一次练习。同一天多次练习不增加 streak，totalSessions 每次加一
func (s *ProgressService) RecordSession(ctx context.Context, subject, moduleID string) (model.SessionLog, error) {
	if _, ok := model.GetModule(subject, moduleID); !ok {
		return model.SessionLog{}, util.ErrModuleNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	log, err := s.loadSessions(ctx)
	if err != nil {
		return model.SessionLog{}, err
	}

	today := s.today()
	if log.LastSessionDate == nil || *log.LastSessionDate != today {
		log.Streak++
	}
	log.LastSessionDate = &today
	log.TotalSessions++
	log.Log = lastN(append(log.Log, model.SessionEntry{Date: today, Subject: subject, Module: moduleID}), model.MaxLogEntries)

	if err := saveJSON(ctx, s.store, model.KeySessions, log); err != nil {
		return model.SessionLog{}, err
	}
	return log, nil
}

type WrongAnswerInput struct {
	QuestionID     model.QuestionID `json:"questionId"`
	QuestionText   string           `json:"questionText"`
	CorrectAnswer  string           `json:"correctAnswer"`
	SelectedAnswer string           `json:"selectedAnswer"`
}

func (s *ProgressService) RecordWrongAnswer(ctx context.Context, subject, moduleID string, in WrongAnswerInput) error {
	if _, ok := model.GetModule(subject, moduleID); !ok {
		return util.ErrModuleNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.loadWrongAnswers(ctx)
	if err != nil {
		return err
	}
	list = append(list, model.WrongAnswerRecord{
		Subject:        subject,
		ModuleID:       moduleID,
		QuestionID:     in.QuestionID,
		QuestionText:   in.QuestionText,
		CorrectAnswer:  in.CorrectAnswer,
		SelectedAnswer: in.SelectedAnswer,
		Timestamp:      s.Now().UTC(),
	})
	return saveJSON(ctx, s.store, model.KeyWrongAnswers, lastN(list, model.MaxLogEntries))
}

type HintUsageInput struct {
	QuestionID      model.QuestionID `json:"questionId"`
	QuestionText    string           `json:"questionText"`
	AnsweredCorrect bool             `json:"answeredCorrect"`
}

func (s *ProgressService) RecordHintUsage(ctx context.Context, subject, moduleID string, in HintUsageInput) error {
	if _, ok := model.GetModule(subject, moduleID); !ok {
		return util.ErrModuleNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.loadHintUsages(ctx)
	if err != nil {
		return err
	}
	list = append(list, model.HintUsageRecord{
		Subject:         subject,
		ModuleID:        moduleID,
		QuestionID:      in.QuestionID,
		QuestionText:    in.QuestionText,
		AnsweredCorrect: in.AnsweredCorrect,
		Timestamp:       s.Now().UTC(),
	})
	return saveJSON(ctx, s.store, model.KeyHintUsages, lastN(list, model.MaxLogEntries))
}

// ResetModule 恢复该模块的默认进度，并只删除该模块的错题和提示记录
func (s *ProgressService) ResetModule(ctx context.Context, subject, moduleID string) error {
	if _, ok := model.GetModule(subject, moduleID); !ok {
		return util.ErrModuleNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.loadProgress(ctx)
	if err != nil {
		return err
	}
	p.Set(subject, moduleID, model.DefaultModuleProgress())
	if err := saveJSON(ctx, s.store, model.KeyProgress, p); err != nil {
		return err
	}

	wrong, err := s.loadWrongAnswers(ctx)
	if err != nil {
		return err
	}
	keptWrong := make([]model.WrongAnswerRecord, 0, len(wrong))
	for _, w := range wrong {
		if w.Subject == subject && w.ModuleID == moduleID {
			continue
		}
		keptWrong = append(keptWrong, w)
	}
	if err := saveJSON(ctx, s.store, model.KeyWrongAnswers, keptWrong); err != nil {
		return err
	}

	hints, err := s.loadHintUsages(ctx)
	if err != nil {
		return err
	}
	keptHints := make([]model.HintUsageRecord, 0, len(hints))
	for _, h := range hints {
		if h.Subject == subject && h.ModuleID == moduleID {
			continue
		}
		keptHints = append(keptHints, h)
	}
	return saveJSON(ctx, s.store, model.KeyHintUsages, keptHints)
}

// ResetAll 清空所有学习数据，设置保持不变
func (s *ProgressService) ResetAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := saveJSON(ctx, s.store, model.KeyProgress, model.NewProgressMap()); err != nil {
		return err
	}
	if err := saveJSON(ctx, s.store, model.KeySessions, model.DefaultSessionLog()); err != nil {
		return err
	}
	if err := saveJSON(ctx, s.store, model.KeyWrongAnswers, []model.WrongAnswerRecord{}); err != nil {
		return err
	}
	return saveJSON(ctx, s.store, model.KeyHintUsages, []model.HintUsageRecord{})
}

func (s *ProgressService) GetSessions(ctx context.Context) (model.SessionLog, error) {
	return s.loadSessions(ctx)
}

func (s *ProgressService) GetWrongAnswers(ctx context.Context) ([]model.WrongAnswerRecord, error) {
	return s.loadWrongAnswers(ctx)
}

func (s *ProgressService) GetHintUsages(ctx context.Context) ([]model.HintUsageRecord, error) {
	return s.loadHintUsages(ctx)
}

// TodayCompleted 今天是否已经完成过该科目的练习
func (s *ProgressService) TodayCompleted(ctx context.Context, subject string) (bool, error) {
	log, err := s.loadSessions(ctx)
	if err != nil {
		return false, err
	}
	today := s.today()
	for _, e := range log.Log {
		if e.Date == today && e.Subject == subject {
			return true, nil
		}
	}
	return false, nil
}

// CurrentStreak 按日历计算的连续练习天数
func (s *ProgressService) CurrentStreak(ctx context.Context) (int, error) {
	log, err := s.loadSessions(ctx)
	if err != nil {
		return 0, err
	}
	return streakFromLog(log, s.Now()), nil
}

func streakFromLog(log model.SessionLog, now time.Time) int {
	dates := make([]string, 0, len(log.Log))
	for _, e := range log.Log {
		dates = append(dates, e.Date)
	}
	return util.CalculateStreak(dates, now)
}
