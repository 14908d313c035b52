package model

const (
	DefaultSessionMinutes = 30
	MinSessionMinutes     = 15
	MaxSessionMinutes     = 45
	DefaultParentPIN      = "1234"
)

type Settings struct {
	AudioEnabled           bool   `json:"audioEnabled"`
	AutoReadEnabled        bool   `json:"autoReadEnabled"`
	SoundEffectsEnabled    bool   `json:"soundEffectsEnabled"`
	SuggestedModuleEnabled bool   `json:"suggestedModuleEnabled"`
	SessionMinutes         int    `json:"sessionMinutes"`
	ParentPin              string `json:"parentPin"`
}

func DefaultSettings() Settings {
	return Settings{
		AudioEnabled:           true,
		AutoReadEnabled:        true,
		SoundEffectsEnabled:    true,
		SuggestedModuleEnabled: true,
		SessionMinutes:         DefaultSessionMinutes,
		ParentPin:              DefaultParentPIN,
	}
}

// SettingsPatch 部分更新，nil 字段保持不变
type SettingsPatch struct {
	AudioEnabled           *bool `json:"audioEnabled"`
	AutoReadEnabled        *bool `json:"autoReadEnabled"`
	SoundEffectsEnabled    *bool `json:"soundEffectsEnabled"`
	SuggestedModuleEnabled *bool `json:"suggestedModuleEnabled"`
	SessionMinutes         *int  `json:"sessionMinutes"`
}
