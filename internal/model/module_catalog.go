package model

const (
	SubjectMath    = "math"
	SubjectEnglish = "english"
	SubjectLife    = "life"
)

type ModuleInfo struct {
	ID          string `json:"id"`
	Subject     string `json:"subject"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	MaxLevel    int    `json:"maxLevel"`
	Description string `json:"description"`
}

// Subjects 按展示顺序排列
var Subjects = []string{SubjectMath, SubjectEnglish, SubjectLife}

var modules = map[string][]ModuleInfo{
	SubjectMath: {
		{ID: "money", Name: "Money", Icon: "💰", MaxLevel: 10, Description: "Coins, prices, and change"},
		{ID: "time", Name: "Time", Icon: "🕐", MaxLevel: 10, Description: "Clocks and schedules"},
		{ID: "adding", Name: "Adding", Icon: "➕", MaxLevel: 10, Description: "Addition practice"},
		{ID: "subtracting", Name: "Subtracting", Icon: "➖", MaxLevel: 10, Description: "Subtraction practice"},
	},
	SubjectEnglish: {
		{ID: "pronouns", Name: "Pronouns", Icon: "👤", MaxLevel: 8, Description: "I, you, he, she"},
		{ID: "greetings", Name: "Greetings", Icon: "👋", MaxLevel: 8, Description: "Hello and workplace phrases"},
		{ID: "askingForHelp", Name: "Asking for Help", Icon: "🗣️", MaxLevel: 8, Description: "How to ask for help"},
		{ID: "readingComprehension", Name: "Reading", Icon: "📖", MaxLevel: 6, Description: "Read and understand passages"},
	},
	SubjectLife: {
		{ID: "workSkills", Name: "Work Skills", Icon: "🏨", MaxLevel: 6, Description: "Hotel tasks and workplace scenarios"},
	},
}

func GetModule(subject, moduleID string) (ModuleInfo, bool) {
	for _, m := range modules[subject] {
		if m.ID == moduleID {
			m.Subject = subject
			return m, true
		}
	}
	return ModuleInfo{}, false
}

func SubjectModules(subject string) []ModuleInfo {
	out := make([]ModuleInfo, 0, len(modules[subject]))
	for _, m := range modules[subject] {
		m.Subject = subject
		out = append(out, m)
	}
	return out
}

func AllModules() []ModuleInfo {
	var out []ModuleInfo
	for _, subject := range Subjects {
		out = append(out, SubjectModules(subject)...)
	}
	return out
}
