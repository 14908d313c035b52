package util

import (
	"sort"
	"time"
)

// DateString 返回 t 的 UTC 日期
func DateString(t time.Time) string {
	return t.UTC().Format(DateFormat)
}

// CalculateStreak 统计以今天或昨天结尾的连续练习天数，dates 可以无序且重复
func CalculateStreak(dates []string, now time.Time) int {
	if len(dates) == 0 {
		return 0
	}

	seen := make(map[string]struct{}, len(dates))
	unique := make([]string, 0, len(dates))
	for _, d := range dates {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		unique = append(unique, d)
	}
	// 日期格式固定，字典序即时间序
	sort.Sort(sort.Reverse(sort.StringSlice(unique)))

	today := DateString(now)
	yesterday := DateString(now.AddDate(0, 0, -1))
	if unique[0] != today && unique[0] != yesterday {
		return 0
	}

	streak := 1
	prev, err := time.Parse(DateFormat, unique[0])
	if err != nil {
		return 0
	}
	for _, d := range unique[1:] {
		cur, err := time.Parse(DateFormat, d)
		if err != nil {
			break
		}
		if prev.Sub(cur) != 24*time.Hour {
			break
		}
		streak++
		prev = cur
	}
	return streak
}
