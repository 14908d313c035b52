package model

import "time"

// HistorySize 掌握度计算使用的最近答题窗口
const HistorySize = 10

type AnswerRecord struct {
	Correct    bool       `json:"correct"`
	QuestionID QuestionID `json:"questionId"`
	Timestamp  time.Time  `json:"timestamp"`
	Level      int        `json:"level"`
}

// ModuleProgress 单个 subject+module 的学习进度
type ModuleProgress struct {
	CurrentLevel  int            `json:"currentLevel"`
	MasteryScore  float64        `json:"masteryScore"`
	CorrectStreak int            `json:"correctStreak"`
	TotalAttempts int            `json:"totalAttempts"`
	TotalCorrect  int            `json:"totalCorrect"`
	Stars         int            `json:"stars"`
	LastPracticed *string        `json:"lastPracticed"`
	History       []AnswerRecord `json:"history"`
}

func DefaultModuleProgress() ModuleProgress {
	return ModuleProgress{
		CurrentLevel: 1,
		History:      []AnswerRecord{},
	}
}

// ProgressMap subject -> moduleId -> progress
type ProgressMap map[string]map[string]ModuleProgress

func (p ProgressMap) Get(subject, moduleID string) (ModuleProgress, bool) {
	mods, ok := p[subject]
	if !ok {
		return ModuleProgress{}, false
	}
	mp, ok := mods[moduleID]
	return mp, ok
}

func (p ProgressMap) Set(subject, moduleID string, mp ModuleProgress) {
	if p[subject] == nil {
		p[subject] = make(map[string]ModuleProgress)
	}
	p[subject][moduleID] = mp
}

// NewProgressMap 为目录中的每个模块生成默认进度
func NewProgressMap() ProgressMap {
	p := make(ProgressMap)
	for _, mod := range AllModules() {
		p.Set(mod.Subject, mod.ID, DefaultModuleProgress())
	}
	return p
}
