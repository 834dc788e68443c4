package templates

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"narrative_framework/formatting"
)

// Section names a narrative section in render order.
type Section string

const (
	SectionDispatch       Section = "dispatch"
	SectionResponse       Section = "response"
	SectionPatientContact Section = "patientContact"
	SectionAssessment     Section = "assessment"
	SectionTreatment      Section = "treatment"
	SectionTransport      Section = "transport"
	SectionHandoff        Section = "handoff"
)

// Sections lists every section in render order.
var Sections = []Section{
	SectionDispatch,
	SectionResponse,
	SectionPatientContact,
	SectionAssessment,
	SectionTreatment,
	SectionTransport,
	SectionHandoff,
}

// ErrUnknownSection is returned for a section name not in the library.
var ErrUnknownSection = errors.New("unknown template section")

// Template renders one section from scenario data.
type Template func(d ScenarioData) string

var library = map[Section]map[string]Template{
	SectionDispatch: {
		"standard":             dispatchStandard,
		"withNotes":            dispatchWithNotes,
		"policeAssist":         dispatchPoliceAssist,
		"limitedInfo":          dispatchLimitedInfo,
		"canceledEnRoute":      dispatchCanceledEnRoute,
		"fallResponse":         dispatchFall,
		"chestPainResponse":    dispatchChestPain,
		"mentalHealthResponse": dispatchMentalHealth,
	},
	SectionResponse: {
		"immediate":    responseImmediate,
		"delayed":      responseDelayed,
		"accessIssues": responseAccessIssues,
		"policeCancel": responsePoliceCancel,
	},
	SectionPatientContact: {
		"standard":               contactStandard,
		"withLocation":           contactWithLocation,
		"refusal":                contactRefusal,
		"languageBarrier":        contactLanguageBarrier,
		"fallAssessment":         contactFall,
		"mentalHealthAssessment": contactMentalHealth,
	},
	SectionAssessment: {
		"full":    assessmentFull,
		"focused": assessmentFocused,
	},
	SectionTreatment: {
		"detailed": treatmentDetailed,
		"basic":    treatmentBasic,
	},
	SectionTransport: {
		"detailed":     transportDetailed,
		"refusal":      transportRefusal,
		"cancellation": transportCancellation,
	},
	SectionHandoff: {
		"standard": handoffStandard,
		"detailed": handoffDetailed,
		"critical": handoffCritical,
	},
}

// Lookup returns a named template.
func Lookup(section Section, name string) (Template, bool) {
	t, ok := library[section][name]
	return t, ok
}

// Names lists the template names of a section, sorted.
func Names(section Section) []string {
	names := make([]string, 0, len(library[section]))
	for name := range library[section] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Choose returns the name of the template SelectTemplate would use. The
// priority per section is:
//
//	dispatch:       canceled, requesting agency, limited info, scenario
//	                (chest-pain, mental-health, fall), notes, standard
//	response:       canceled, access issues, delay > 0, immediate
//	patientContact: refusal, language, scenario (fall or mental-health with
//	                a position), location, standard
//	assessment:     detailed -> full, else focused
//	treatment:      detailed -> detailed, else basic
//	transport:      canceled, refusal, detailed
//	handoff:        critical, detailed, standard
func Choose(section Section, d ScenarioData) (string, error) {
	switch section {
	case SectionDispatch:
		switch {
		case d.Canceled:
			return "canceledEnRoute", nil
		case d.RequestingAgency != "":
			return "policeAssist", nil
		case d.LimitedInfo:
			return "limitedInfo", nil
		}
		switch d.ScenarioKind() {
		case formatting.ScenarioChestPain:
			return "chestPainResponse", nil
		case formatting.ScenarioMentalHealth:
			return "mentalHealthResponse", nil
		case formatting.ScenarioFall:
			return "fallResponse", nil
		}
		if d.DispatchNotes != "" {
			return "withNotes", nil
		}
		return "standard", nil
	case SectionResponse:
		switch {
		case d.Canceled:
			return "policeCancel", nil
		case d.AccessIssues != "":
			return "accessIssues", nil
		case d.ResponseDelay > 0:
			return "delayed", nil
		}
		return "immediate", nil
	case SectionPatientContact:
		switch {
		case d.Refusal:
			return "refusal", nil
		case d.Language != "":
			return "languageBarrier", nil
		}
		if d.Position != "" {
			switch d.ScenarioKind() {
			case formatting.ScenarioFall:
				return "fallAssessment", nil
			case formatting.ScenarioMentalHealth:
				return "mentalHealthAssessment", nil
			}
		}
		if d.Location != "" {
			return "withLocation", nil
		}
		return "standard", nil
	case SectionAssessment:
		if d.Detailed {
			return "full", nil
		}
		return "focused", nil
	case SectionTreatment:
		if d.Detailed {
			return "detailed", nil
		}
		return "basic", nil
	case SectionTransport:
		switch {
		case d.Canceled:
			return "cancellation", nil
		case d.Refusal:
			return "refusal", nil
		}
		return "detailed", nil
	case SectionHandoff:
		switch {
		case d.Critical:
			return "critical", nil
		case d.Detailed:
			return "detailed", nil
		}
		return "standard", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSection, section)
	}
}

// SelectTemplate renders section with the template chosen for d.
func SelectTemplate(section Section, d ScenarioData) (string, error) {
	name, err := Choose(section, d)
	if err != nil {
		return "", err
	}
	return library[section][name](d), nil
}

// Render builds the whole narrative: each applicable section rendered,
// normalized and separated by a blank line. A canceled call renders only
// dispatch, response and transport; handoff requires a facility and is
// skipped for refusals.
func Render(d ScenarioData) string {
	paragraphs := make([]string, 0, len(Sections))
	for _, section := range renderOrder(d) {
		text, err := SelectTemplate(section, d)
		if err != nil {
			continue
		}
		if text = formatting.Normalize(text); text != "" {
			paragraphs = append(paragraphs, text)
		}
	}
	return strings.Join(paragraphs, "\n\n")
}

func renderOrder(d ScenarioData) []Section {
	if d.Canceled {
		return []Section{SectionDispatch, SectionResponse, SectionTransport}
	}
	order := make([]Section, 0, len(Sections))
	for _, s := range Sections {
		if s == SectionHandoff && (d.Refusal || d.Facility == "") {
			continue
		}
		order = append(order, s)
	}
	return order
}
