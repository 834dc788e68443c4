package narrative

import "narrative_framework/formatting"

// Canned sentences used when a checkbox is set without accompanying text.
const (
	DefaultVitalsText          = "Initial assessment revealed all vital signs were within normal limits."
	DefaultExamText            = "Patient was negative for any DCAP-BTLS throughout the body."
	DefaultRefusalCapacityText = "They demonstrated capacity to refuse by being alert and oriented, understanding the risks explained, and making a rational decision."
	DefaultMentalStatus        = "alert and oriented times four"

	vitalsConnector = "with the following readings"
	examConnector   = "with the exception of"
)

// Phrases holds the deployment-tunable wording used by the builders.
type Phrases struct {
	DelayDescriptions      map[string]string
	VitalsDefault          string
	ExamDefault            string
	RefusalCapacityDefault string
}

// DefaultPhrases returns the built-in wording.
func DefaultPhrases() Phrases {
	return Phrases{
		DelayDescriptions:      formatting.DefaultDelayDescriptions(),
		VitalsDefault:          DefaultVitalsText,
		ExamDefault:            DefaultExamText,
		RefusalCapacityDefault: DefaultRefusalCapacityText,
	}
}

// withDefaults fills empty fields from the built-in wording.
func (p Phrases) withDefaults() Phrases {
	if len(p.DelayDescriptions) == 0 {
		p.DelayDescriptions = formatting.DefaultDelayDescriptions()
	}
	if p.VitalsDefault == "" {
		p.VitalsDefault = DefaultVitalsText
	}
	if p.ExamDefault == "" {
		p.ExamDefault = DefaultExamText
	}
	if p.RefusalCapacityDefault == "" {
		p.RefusalCapacityDefault = DefaultRefusalCapacityText
	}
	return p
}
