package formatting

import "strings"

// Scenario names used to pick scenario-specific narrative templates.
const (
	ScenarioChestPain    = "chest-pain"
	ScenarioMentalHealth = "mental-health"
	ScenarioFall         = "fall"
	ScenarioGeneral      = "general"
)

// ClassifyScenario maps a free-form dispatch reason into a small, stable scenario set.
func ClassifyScenario(reason string) string {
	t := strings.ToLower(reason)
	switch {
	case strings.Contains(t, "chest"), strings.Contains(t, "cardiac"):
		return ScenarioChestPain
	case strings.Contains(t, "psych"), strings.Contains(t, "mental"), strings.Contains(t, "suicid"), strings.Contains(t, "behavior"):
		return ScenarioMentalHealth
	case strings.Contains(t, "fall"), strings.Contains(t, "fell"):
		return ScenarioFall
	default:
		return ScenarioGeneral
	}
}
