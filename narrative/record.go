package narrative

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// CallStatus is the top-level branch between an active response and a
// cancelled one.
type CallStatus string

const (
	StatusActive    CallStatus = "active"
	StatusCancelled CallStatus = "cancelled"
)

// CancellationType identifies who cancelled the response.
type CancellationType string

const (
	CancelDispatch CancellationType = "dispatch"
	CancelPolice   CancellationType = "pd"
	CancelCaller   CancellationType = "caller"
	CancelOther    CancellationType = "other"
)

// TransportDecision is the disposition of the patient.
type TransportDecision string

const (
	TransportTransported TransportDecision = "transported"
	TransportRefused     TransportDecision = "refused"
)

// OtherUnit is the unit designator that defers to CustomUnit.
const OtherUnit = "other"

// ErrInvalidRecord wraps every validation failure.
var ErrInvalidRecord = errors.New("invalid call record")

// CallRecord is the single input of the narrative engine. It is built once
// per request and never mutated by the builders.
type CallRecord struct {
	Unit           string     `json:"unit" yaml:"unit"`
	CustomUnit     string     `json:"custom_unit,omitempty" yaml:"custom_unit,omitempty"`
	DispatchReason string     `json:"dispatch_reason" yaml:"dispatch_reason"`
	ResponseDelays []string   `json:"response_delays,omitempty" yaml:"response_delays,omitempty"`
	Status         CallStatus `json:"call_status" yaml:"call_status"`

	Cancellation Cancellation `json:"cancellation,omitempty" yaml:"cancellation,omitempty"`
	Patient      Patient      `json:"patient,omitempty" yaml:"patient,omitempty"`
	OPQRST       OPQRST       `json:"opqrst,omitempty" yaml:"opqrst,omitempty"`
	Findings     Findings     `json:"findings,omitempty" yaml:"findings,omitempty"`
	Treatment    Treatment    `json:"treatment,omitempty" yaml:"treatment,omitempty"`
	Transport    Transport    `json:"transport,omitempty" yaml:"transport,omitempty"`

	// Assessment gates the assessment section. The active path always sets it.
	Assessment bool `json:"assessment,omitempty" yaml:"assessment,omitempty"`
}

// Cancellation holds the fields that are meaningful only on cancelled calls.
type Cancellation struct {
	Type        CancellationType `json:"type,omitempty" yaml:"type,omitempty"`
	Badge       string           `json:"badge,omitempty" yaml:"badge,omitempty"`
	OtherReason string           `json:"other_reason,omitempty" yaml:"other_reason,omitempty"`
}

// Patient describes who was found on scene.
type Patient struct {
	Age            string `json:"age,omitempty" yaml:"age,omitempty"`
	Gender         string `json:"gender,omitempty" yaml:"gender,omitempty"`
	Location       string `json:"location,omitempty" yaml:"location,omitempty"`
	ChiefComplaint string `json:"chief_complaint,omitempty" yaml:"chief_complaint,omitempty"`
	MedicalHistory string `json:"medical_history,omitempty" yaml:"medical_history,omitempty"`
	MentalStatus   string `json:"mental_status,omitempty" yaml:"mental_status,omitempty"`
	Pupils         string `json:"pupils,omitempty" yaml:"pupils,omitempty"`
	// GCSTotal is the externally computed Glasgow Coma Scale total; zero means not recorded.
	GCSTotal int `json:"gcs_total,omitempty" yaml:"gcs_total,omitempty"`
}

// OPQRST carries the symptom history mnemonic.
type OPQRST struct {
	Enabled     bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Onset       string `json:"onset,omitempty" yaml:"onset,omitempty"`
	Provocation string `json:"provocation,omitempty" yaml:"provocation,omitempty"`
	Quality     string `json:"quality,omitempty" yaml:"quality,omitempty"`
	Radiation   string `json:"radiation,omitempty" yaml:"radiation,omitempty"`
	Severity    string `json:"severity,omitempty" yaml:"severity,omitempty"`
	Duration    string `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// Findings holds vitals and physical exam results.
type Findings struct {
	Vitals             string `json:"vitals,omitempty" yaml:"vitals,omitempty"`
	VitalsNormal       bool   `json:"vitals_normal,omitempty" yaml:"vitals_normal,omitempty"`
	Exam               string `json:"exam,omitempty" yaml:"exam,omitempty"`
	ExamNormal         bool   `json:"dcap_normal,omitempty" yaml:"dcap_normal,omitempty"`
	AdditionalSymptoms string `json:"additional_symptoms,omitempty" yaml:"additional_symptoms,omitempty"`
}

// Treatment lists the interventions performed.
type Treatment struct {
	BLSAssessment bool   `json:"bls_assessment,omitempty" yaml:"bls_assessment,omitempty"`
	IVAccess      bool   `json:"iv_access,omitempty" yaml:"iv_access,omitempty"`
	ECG           bool   `json:"ecg,omitempty" yaml:"ecg,omitempty"`
	IcePack       bool   `json:"ice_pack,omitempty" yaml:"ice_pack,omitempty"`
	WoundCare     bool   `json:"wound_care,omitempty" yaml:"wound_care,omitempty"`
	Additional    string `json:"additional,omitempty" yaml:"additional,omitempty"`
}

// Transport holds the disposition and its branch-specific fields.
type Transport struct {
	Decision            TransportDecision `json:"decision,omitempty" yaml:"decision,omitempty"`
	Hospital            string            `json:"hospital,omitempty" yaml:"hospital,omitempty"`
	Room                string            `json:"room,omitempty" yaml:"room,omitempty"`
	Staff               string            `json:"staff,omitempty" yaml:"staff,omitempty"`
	RefusalWitness      string            `json:"refusal_witness,omitempty" yaml:"refusal_witness,omitempty"`
	RefusalCapacity     string            `json:"refusal_capacity,omitempty" yaml:"refusal_capacity,omitempty"`
	RefusalInstructions string            `json:"refusal_instructions,omitempty" yaml:"refusal_instructions,omitempty"`
}

// UnitName returns the effective unit designator.
func (r CallRecord) UnitName() string {
	if strings.EqualFold(strings.TrimSpace(r.Unit), OtherUnit) {
		return strings.TrimSpace(r.CustomUnit)
	}
	if unit := strings.TrimSpace(r.Unit); unit != "" {
		return unit
	}
	return strings.TrimSpace(r.CustomUnit)
}

// Cancelled reports whether the record routes through the cancellation path.
func (r CallRecord) Cancelled() bool {
	return r.Status == StatusCancelled
}

// Validate checks the required fields and value ranges. All problems are
// reported together.
func (r CallRecord) Validate() error {
	var errs []error
	if r.UnitName() == "" {
		errs = append(errs, errors.New("unit is required"))
	}
	if strings.TrimSpace(r.DispatchReason) == "" {
		errs = append(errs, errors.New("dispatch reason is required"))
	}
	switch r.Status {
	case StatusActive, StatusCancelled:
	case "":
		errs = append(errs, errors.New("call status is required"))
	default:
		errs = append(errs, fmt.Errorf("unknown call status %q", r.Status))
	}
	if sev := strings.TrimSpace(r.OPQRST.Severity); sev != "" {
		n, err := strconv.Atoi(sev)
		if err != nil || n < 0 || n > 10 {
			errs = append(errs, fmt.Errorf("severity must be 0-10 (got %q)", sev))
		}
	}
	if g := r.Patient.GCSTotal; g != 0 && (g < 3 || g > 15) {
		errs = append(errs, fmt.Errorf("gcs total must be 3-15 (got %d)", g))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidRecord, errors.Join(errs...))
}
