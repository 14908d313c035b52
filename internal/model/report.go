package model

import (
	"encoding/json"
	"time"
)

type SubjectStats struct {
	Subject  string `json:"subject"`
	Attempts int    `json:"attempts"`
	Correct  int    `json:"correct"`
	Accuracy int    `json:"accuracy"`
}

type ModuleSummary struct {
	Subject       string `json:"subject"`
	ModuleID      string `json:"moduleId"`
	Name          string `json:"name"`
	Icon          string `json:"icon"`
	CurrentLevel  int    `json:"currentLevel"`
	MaxLevel      int    `json:"maxLevel"`
	MasteryPct    int    `json:"masteryPct"`
	Stars         int    `json:"stars"`
	TotalAttempts int    `json:"totalAttempts"`
}

type MissedQuestion struct {
	Subject        string     `json:"subject"`
	ModuleID       string     `json:"moduleId"`
	QuestionID     QuestionID `json:"questionId"`
	QuestionText   string     `json:"questionText"`
	CorrectAnswer  string     `json:"correctAnswer"`
	SelectedAnswer string     `json:"selectedAnswer"`
	Count          int        `json:"count"`
	LastSeen       time.Time  `json:"lastSeen"`
}

type HintedQuestion struct {
	Subject      string     `json:"subject"`
	ModuleID     string     `json:"moduleId"`
	QuestionID   QuestionID `json:"questionId"`
	QuestionText string     `json:"questionText"`
	Count        int        `json:"count"`
	CorrectCount int        `json:"correctCount"`
	LastSeen     time.Time  `json:"lastSeen"`
}

// Dashboard 家长看板
type Dashboard struct {
	TotalSessions   int              `json:"totalSessions"`
	Streak          int              `json:"streak"`
	CalendarStreak  int              `json:"calendarStreak"`
	DaysActive      int              `json:"daysActive"`
	TotalAttempts   int              `json:"totalAttempts"`
	TotalCorrect    int              `json:"totalCorrect"`
	OverallAccuracy int              `json:"overallAccuracy"`
	Subjects        []SubjectStats   `json:"subjects"`
	Modules         []ModuleSummary  `json:"modules"`
	MostMissed      []MissedQuestion `json:"mostMissed"`
	MostHinted      []HintedQuestion `json:"mostHinted"`
	RecentSessions  []SessionEntry   `json:"recentSessions"`
}

const (
	PlanReasonNeedsPractice = "needs-practice"
	PlanReasonConfidence    = "confidence"
)

type PlanItem struct {
	Subject   string  `json:"subject"`
	ModuleID  string  `json:"moduleId"`
	Name      string  `json:"name"`
	Icon      string  `json:"icon"`
	Reason    string  `json:"reason"`
	Mastery   float64 `json:"mastery"`
	Minutes   int     `json:"minutes"`
	DoneToday bool    `json:"doneToday"`
}

type DailyPlan struct {
	Date         string     `json:"date"`
	TotalMinutes int        `json:"totalMinutes"`
	Items        []PlanItem `json:"items"`
	AllDone      bool       `json:"allDone"`
}

// Snapshot 所有同步键的本地导出，用于备份
type Snapshot struct {
	UserID    string                     `json:"userId"`
	CreatedAt time.Time                  `json:"createdAt"`
	Data      map[string]json.RawMessage `json:"data"`
}
