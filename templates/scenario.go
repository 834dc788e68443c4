// Package templates is a declarative library of narrative phrase templates
// keyed by section and scenario, with a selector that picks one template per
// section from the flags on a ScenarioData.
package templates

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"narrative_framework/formatting"
)

// ScenarioData is the input to every template. Presence of a field, or a set
// flag, steers template selection.
type ScenarioData struct {
	Unit     string `json:"unit" yaml:"unit"`
	Age      string `json:"age" yaml:"age"`
	Gender   string `json:"gender" yaml:"gender"`
	Location string `json:"location" yaml:"location"`
	Scenario string `json:"scenario" yaml:"scenario"`

	DispatchDesc     string `json:"dispatch_desc" yaml:"dispatch_desc"`
	DispatchNotes    string `json:"dispatch_notes" yaml:"dispatch_notes"`
	RequestingAgency string `json:"requesting_agency" yaml:"requesting_agency"`
	LimitedInfo      bool   `json:"limited_info" yaml:"limited_info"`
	Canceled         bool   `json:"canceled" yaml:"canceled"`
	CancelingAgency  string `json:"canceling_agency" yaml:"canceling_agency"`

	History            string `json:"history" yaml:"history"`
	RiskFactors        string `json:"risk_factors" yaml:"risk_factors"`
	Onset              string `json:"onset" yaml:"onset"`
	Quality            string `json:"quality" yaml:"quality"`
	Radiation          string `json:"radiation" yaml:"radiation"`
	AssociatedSymptoms string `json:"associated_symptoms" yaml:"associated_symptoms"`
	Medications        string `json:"medications" yaml:"medications"`
	Symptoms           string `json:"symptoms" yaml:"symptoms"`
	SafetyConcerns     string `json:"safety_concerns" yaml:"safety_concerns"`
	SupportSystem      string `json:"support_system" yaml:"support_system"`
	RecentEvents       string `json:"recent_events" yaml:"recent_events"`
	LegalStatus        string `json:"legal_status" yaml:"legal_status"`

	ResponseType  string `json:"response_type" yaml:"response_type"`
	ResponseDelay int    `json:"response_delay" yaml:"response_delay"`
	ResponseNotes string `json:"response_notes" yaml:"response_notes"`
	AccessIssues  string `json:"access_issues" yaml:"access_issues"`

	Condition             string `json:"condition" yaml:"condition"`
	ChiefComplaint        string `json:"chief_complaint" yaml:"chief_complaint"`
	Refusal               bool   `json:"refusal" yaml:"refusal"`
	RefusalDetails        string `json:"refusal_details" yaml:"refusal_details"`
	Language              string `json:"language" yaml:"language"`
	Translator            string `json:"translator" yaml:"translator"`
	CommunicationBarriers string `json:"communication_barriers" yaml:"communication_barriers"`
	Position              string `json:"position" yaml:"position"`
	FallDetails           string `json:"fall_details" yaml:"fall_details"`
	MentalStatus          string `json:"mental_status" yaml:"mental_status"`

	Detailed     bool     `json:"detailed" yaml:"detailed"`
	Vitals       string   `json:"vitals" yaml:"vitals"`
	Neuro        *Neuro   `json:"neuro,omitempty" yaml:"neuro,omitempty"`
	ExamFindings string   `json:"exam_findings" yaml:"exam_findings"`
	Pain         *Pain    `json:"pain,omitempty" yaml:"pain,omitempty"`
	Negatives    []string `json:"negatives" yaml:"negatives"`
	Findings     string   `json:"findings" yaml:"findings"`

	Interventions       string `json:"interventions" yaml:"interventions"`
	TreatmentMeds       string `json:"treatment_medications" yaml:"treatment_medications"`
	TreatmentResponse   string `json:"treatment_response" yaml:"treatment_response"`
	TreatmentMonitoring string `json:"treatment_monitoring" yaml:"treatment_monitoring"`
	Treatments          string `json:"treatments" yaml:"treatments"`

	Stabilization       bool   `json:"stabilization" yaml:"stabilization"`
	Destination         string `json:"destination" yaml:"destination"`
	TransportPosition   string `json:"transport_position" yaml:"transport_position"`
	TransportMonitoring string `json:"transport_monitoring" yaml:"transport_monitoring"`
	PreAlert            string `json:"pre_alert" yaml:"pre_alert"`
	Team                string `json:"team" yaml:"team"`
	Room                string `json:"room" yaml:"room"`
	Staff               string `json:"staff" yaml:"staff"`

	Witness           string `json:"witness" yaml:"witness"`
	Capacity          string `json:"capacity" yaml:"capacity"`
	Instructions      string `json:"instructions" yaml:"instructions"`
	MedicalFindings   string `json:"medical_findings" yaml:"medical_findings"`
	Encouragement     string `json:"encouragement" yaml:"encouragement"`
	MedicationStatus  string `json:"medication_status" yaml:"medication_status"`
	AssessmentDetails string `json:"assessment_details" yaml:"assessment_details"`
	RiskDiscussion    string `json:"risk_discussion" yaml:"risk_discussion"`
	BloodThinners     *bool  `json:"blood_thinners,omitempty" yaml:"blood_thinners,omitempty"`

	Facility      string `json:"facility" yaml:"facility"`
	ReportDetails string `json:"report_details" yaml:"report_details"`
	Critical      bool   `json:"critical" yaml:"critical"`
}

// Neuro is a neurological status with its GCS.
type Neuro struct {
	Status string `json:"status" yaml:"status"`
	GCS    int    `json:"gcs" yaml:"gcs"`
}

// Pain is a self-reported pain score and site.
type Pain struct {
	Level    int    `json:"level" yaml:"level"`
	Location string `json:"location" yaml:"location"`
}

// ScenarioKind returns the explicit scenario or, when unset, the one implied
// by the dispatch description.
func (d ScenarioData) ScenarioKind() string {
	if s := strings.ToLower(strings.TrimSpace(d.Scenario)); s != "" {
		return s
	}
	return formatting.ClassifyScenario(d.DispatchDesc)
}

// LoadScenario decodes a YAML or JSON scenario file, choosing the format by
// extension.
func LoadScenario(data []byte, filename string) (ScenarioData, error) {
	var d ScenarioData
	if len(data) == 0 {
		return d, errors.New("empty scenario file")
	}
	var err error
	if strings.EqualFold(filepath.Ext(filename), ".json") {
		err = json.Unmarshal(data, &d)
	} else {
		err = yaml.Unmarshal(data, &d)
	}
	if err != nil {
		return d, fmt.Errorf("decode scenario %s: %w", filepath.Base(filename), err)
	}
	if strings.TrimSpace(d.Unit) == "" {
		return d, errors.New("scenario unit is required")
	}
	return d, nil
}
