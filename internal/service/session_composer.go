package service

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"practice_backend/internal/model"
)

const (
	DefaultWarmupCount           = 2
	DefaultAvgSecondsPerQuestion = 40
	// 练习部分至少 3 题
	minPracticeCount = 3
)

// SessionComposer 根据当前等级和练习时长从题库中挑选一次练习的题目
type SessionComposer struct {
	mu                    sync.Mutex
	rng                   *rand.Rand
	warmupCount           int
	avgSecondsPerQuestion int
}

func NewSessionComposer(warmupCount, avgSecondsPerQuestion int) *SessionComposer {
	seed := uint64(time.Now().UnixNano())
	return NewSessionComposerWithRand(warmupCount, avgSecondsPerQuestion, rand.New(rand.NewPCG(seed, seed>>1|1)))
}

func NewSessionComposerWithRand(warmupCount, avgSecondsPerQuestion int, rng *rand.Rand) *SessionComposer {
	c := &SessionComposer{rng: rng}
	c.SetTuning(warmupCount, avgSecondsPerQuestion)
	return c
}

// SetTuning 配置热更新时调用，非法值回退到默认值
func (c *SessionComposer) SetTuning(warmupCount, avgSecondsPerQuestion int) {
	if warmupCount < 0 {
		warmupCount = DefaultWarmupCount
	}
	if avgSecondsPerQuestion <= 0 {
		avgSecondsPerQuestion = DefaultAvgSecondsPerQuestion
	}
	c.mu.Lock()
	c.warmupCount = warmupCount
	c.avgSecondsPerQuestion = avgSecondsPerQuestion
	c.mu.Unlock()
}

func (c *SessionComposer) Tuning() (warmupCount, avgSecondsPerQuestion int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.warmupCount, c.avgSecondsPerQuestion
}

// TotalTarget 一次练习计划出的题目总数
func (c *SessionComposer) TotalTarget(sessionMinutes int) int {
	warmup, avg := c.Tuning()
	return totalTarget(warmup, avg, sessionMinutes)
}

func totalTarget(warmupCount, avgSeconds, sessionMinutes int) int {
	byDuration := int(math.Floor(float64(sessionMinutes*60)/float64(avgSeconds) + 0.5))
	if byDuration < warmupCount+minPracticeCount {
		return warmupCount + minPracticeCount
	}
	return byDuration
}

// SelectSessionQuestions 返回 热身题 ++ 练习题，题号不重复，题库不足时返回更少的题目
func (c *SessionComposer) SelectSessionQuestions(bank []model.Question, currentLevel, maxLevel, sessionMinutes int) []model.Question {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := totalTarget(c.warmupCount, c.avgSecondsPerQuestion, sessionMinutes)
	practiceTarget := total - c.warmupCount

	bank = dedupeByID(bank)
	used := make(map[model.QuestionID]struct{}, total)

	warmupCeil := max(1, currentLevel-1)
	warmup := c.pick(filterQuestions(bank, used, func(q model.Question) bool {
		return q.Level <= warmupCeil
	}), c.warmupCount)
	markUsed(used, warmup)

	practiceCeil := min(currentLevel+1, maxLevel)
	practice := c.pick(filterQuestions(bank, used, func(q model.Question) bool {
		return q.Level >= currentLevel && q.Level <= practiceCeil
	}), practiceTarget)
	markUsed(used, practice)

	if len(practice) < practiceTarget {
		widerFloor := max(1, currentLevel-2)
		wider := c.pick(filterQuestions(bank, used, func(q model.Question) bool {
			return q.Level >= widerFloor && q.Level <= maxLevel
		}), practiceTarget-len(practice))
		markUsed(used, wider)
		practice = append(practice, wider...)
	}

	if len(practice) < practiceTarget {
		rest := c.pick(filterQuestions(bank, used, func(model.Question) bool { return true }), practiceTarget-len(practice))
		practice = append(practice, rest...)
	}

	out := make([]model.Question, 0, len(warmup)+len(practice))
	out = append(out, warmup...)
	return append(out, practice...)
}

// pick Fisher-Yates 洗牌后取前 n 个
func (c *SessionComposer) pick(pool []model.Question, n int) []model.Question {
	for i := len(pool) - 1; i > 0; i-- {
		j := c.rng.IntN(i + 1)
		pool[i], pool[j] = pool[j], pool[i]
	}
	if n < 0 {
		n = 0
	}
	if n < len(pool) {
		pool = pool[:n]
	}
	return pool
}

func filterQuestions(bank []model.Question, used map[model.QuestionID]struct{}, keep func(model.Question) bool) []model.Question {
	var out []model.Question
	for _, q := range bank {
		if _, ok := used[q.ID]; ok {
			continue
		}
		if keep(q) {
			out = append(out, q)
		}
	}
	return out
}

func markUsed(used map[model.QuestionID]struct{}, qs []model.Question) {
	for _, q := range qs {
		used[q.ID] = struct{}{}
	}
}

func dedupeByID(bank []model.Question) []model.Question {
	seen := make(map[model.QuestionID]struct{}, len(bank))
	out := make([]model.Question, 0, len(bank))
	for _, q := range bank {
		if _, ok := seen[q.ID]; ok {
			continue
		}
		seen[q.ID] = struct{}{}
		out = append(out, q)
	}
	return out
}
