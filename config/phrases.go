package config

import (
	"errors"
	"maps"
	"os"
	"strings"

	"narrative_framework/formatting"
	"narrative_framework/narrative"
)

// PhraseConfig carries the deployment-tunable wording of generated
// narratives. It is read from the `phrases:` block of the config file.
type PhraseConfig struct {
	DelayDescriptions map[string]string `json:"delay_descriptions" yaml:"delay_descriptions"`
	VitalsNormal      string            `json:"vitals_normal" yaml:"vitals_normal"`
	ExamNormal        string            `json:"exam_normal" yaml:"exam_normal"`
	RefusalCapacity   string            `json:"refusal_capacity" yaml:"refusal_capacity"`
}

// DefaultPhraseConfig returns the built-in wording.
func DefaultPhraseConfig() PhraseConfig {
	return PhraseConfig{
		DelayDescriptions: formatting.DefaultDelayDescriptions(),
		VitalsNormal:      narrative.DefaultVitalsText,
		ExamNormal:        narrative.DefaultExamText,
		RefusalCapacity:   narrative.DefaultRefusalCapacityText,
	}
}

// LoadPhraseConfig reads YAML/JSON and merges its phrases block with defaults.
func LoadPhraseConfig(path string) (PhraseConfig, error) {
	cfg := DefaultPhraseConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if len(data) == 0 {
		return cfg, errors.New("empty config file")
	}
	var parsed struct {
		Phrases PhraseConfig `json:"phrases" yaml:"phrases"`
	}
	if err := unmarshalByExt(path, data, &parsed); err != nil {
		return cfg, err
	}
	return MergePhraseConfig(cfg, parsed.Phrases), nil
}

// MergePhraseConfig overlays non-empty fields onto the base config. Delay
// descriptions merge per code.
func MergePhraseConfig(base PhraseConfig, override PhraseConfig) PhraseConfig {
	merged := make(map[string]string, len(base.DelayDescriptions)+len(override.DelayDescriptions))
	maps.Copy(merged, base.DelayDescriptions)
	for code, text := range override.DelayDescriptions {
		code = strings.ToLower(strings.TrimSpace(code))
		if code == "" || strings.TrimSpace(text) == "" {
			continue
		}
		merged[code] = strings.TrimSpace(text)
	}
	base.DelayDescriptions = merged
	if strings.TrimSpace(override.VitalsNormal) != "" {
		base.VitalsNormal = strings.TrimSpace(override.VitalsNormal)
	}
	if strings.TrimSpace(override.ExamNormal) != "" {
		base.ExamNormal = strings.TrimSpace(override.ExamNormal)
	}
	if strings.TrimSpace(override.RefusalCapacity) != "" {
		base.RefusalCapacity = strings.TrimSpace(override.RefusalCapacity)
	}
	return base
}

// ToPhrases converts the configuration into builder wording.
func (p PhraseConfig) ToPhrases() narrative.Phrases {
	return narrative.Phrases{
		DelayDescriptions:      maps.Clone(p.DelayDescriptions),
		VitalsDefault:          p.VitalsNormal,
		ExamDefault:            p.ExamNormal,
		RefusalCapacityDefault: p.RefusalCapacity,
	}
}
