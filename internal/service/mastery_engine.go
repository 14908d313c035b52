package service

import (
	"time"

	"practice_backend/internal/model"
	"practice_backend/internal/util"
)

const (
	LevelUpMastery       = 0.8
	LevelUpStreak        = 3
	LevelDownMastery     = 0.5
	LevelDownMinAttempts = 5

	StarThreeMastery = 0.8
	StarTwoMastery   = 0.6
	StarOneMastery   = 0.01
)

// MasteryEngine 根据一次答题结果计算新的模块进度，不做任何 I/O
type MasteryEngine struct {
	Now func() time.Time
}

func NewMasteryEngine() *MasteryEngine {
	return &MasteryEngine{Now: time.Now}
}

// RecordAnswer 返回新的进度记录，入参 p 不会被修改。
//
// 升级只统计在当前等级连续答对的题目：降级之后，在原等级开始的连对不会计入下一次升级，
// CorrectStreak 本身照常累加，但需要在新等级重新答对 LevelUpStreak 题才能再升级。
func (e *MasteryEngine) RecordAnswer(p model.ModuleProgress, correct bool, questionID model.QuestionID, maxLevel int) model.ModuleProgress {
	now := e.Now()

	history := make([]model.AnswerRecord, 0, model.HistorySize)
	if len(p.History) >= model.HistorySize {
		history = append(history, p.History[len(p.History)-(model.HistorySize-1):]...)
	} else {
		history = append(history, p.History...)
	}
	history = append(history, model.AnswerRecord{
		Correct:    correct,
		QuestionID: questionID,
		Timestamp:  now.UTC(),
		Level:      p.CurrentLevel,
	})

	next := p
	next.History = history
	next.MasteryScore = CalculateMastery(history)
	if correct {
		next.CorrectStreak = p.CorrectStreak + 1
		next.TotalCorrect = p.TotalCorrect + 1
	} else {
		next.CorrectStreak = 0
	}
	next.TotalAttempts = p.TotalAttempts + 1
	today := util.DateString(now)
	next.LastPracticed = &today

	next.CurrentLevel = nextLevel(next, maxLevel)
	next.Stars = CalculateStars(next.MasteryScore, p.Stars)
	return next
}

func CalculateMastery(history []model.AnswerRecord) float64 {
	if len(history) == 0 {
		return 0
	}
	correct := 0
	for _, h := range history {
		if h.Correct {
			correct++
		}
	}
	return float64(correct) / float64(len(history))
}

// CalculateStars 星级只增不减
func CalculateStars(mastery float64, current int) int {
	stars := 0
	switch {
	case mastery >= StarThreeMastery:
		stars = 3
	case mastery >= StarTwoMastery:
		stars = 2
	case mastery >= StarOneMastery:
		stars = 1
	}
	if current > stars {
		return current
	}
	return stars
}

// nextLevel 先判断升级再判断降级。升级要求最近连续答对的题目都是在当前等级作答的，
// 刚升级后需要在新等级重新积累连对
func nextLevel(p model.ModuleProgress, maxLevel int) int {
	if p.MasteryScore >= LevelUpMastery && p.CorrectStreak >= LevelUpStreak &&
		levelStreak(p.History, p.CurrentLevel) >= LevelUpStreak {
		if p.CurrentLevel+1 > maxLevel {
			return maxLevel
		}
		return p.CurrentLevel + 1
	}
	if p.MasteryScore < LevelDownMastery && p.TotalAttempts >= LevelDownMinAttempts {
		if p.CurrentLevel-1 < 1 {
			return 1
		}
		return p.CurrentLevel - 1
	}
	return p.CurrentLevel
}

func levelStreak(history []model.AnswerRecord, level int) int {
	n := 0
	for i := len(history) - 1; i >= 0; i-- {
		if !history[i].Correct || history[i].Level != level {
			break
		}
		n++
	}
	return n
}
