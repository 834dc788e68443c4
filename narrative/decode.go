package narrative

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Form field names used by the incident entry form.
const (
	FieldUnitNumber          = "unit-number"
	FieldCustomUnit          = "custom-unit"
	FieldDispatchReason      = "dispatch-reason"
	FieldResponseDelays      = "response-delays"
	FieldCallStatus          = "call-status"
	FieldCancellationType    = "cancellation-type"
	FieldPDBadge             = "pd-badge"
	FieldOtherReason         = "other-reason"
	FieldPatientAge          = "patient-age"
	FieldPatientGender       = "patient-gender"
	FieldPatientLocation     = "patient-location"
	FieldChiefComplaint      = "chief-complaint"
	FieldMedicalHistory      = "medical-history"
	FieldMentalStatus        = "mental-status"
	FieldPupils              = "pupils"
	FieldGCSTotal            = "gcs-total"
	FieldGCSEyes             = "gcs-eyes"
	FieldGCSVerbal           = "gcs-verbal"
	FieldGCSMotor            = "gcs-motor"
	FieldOPQRSTToggle        = "opqrst-toggle"
	FieldOnset               = "onset"
	FieldProvocation         = "provocation"
	FieldQuality             = "quality"
	FieldRadiation           = "radiation"
	FieldSeverity            = "severity"
	FieldTime                = "time"
	FieldVitalSigns          = "vital-signs"
	FieldVitalsNormal        = "vitals-normal"
	FieldPhysicalExam        = "physical-exam"
	FieldDCAPNormal          = "dcap-normal"
	FieldAdditionalSymptoms  = "additional-symptoms"
	FieldBLSAssessment       = "bls-assessment"
	FieldIVEstablished       = "iv-established"
	FieldECGPerformed        = "ecg-performed"
	FieldIcePack             = "ice-pack"
	FieldWoundCare           = "wound-care"
	FieldTreatment           = "treatment"
	FieldTransportDecision   = "transport-decision"
	FieldHospital            = "hospital"
	FieldRoomNumber          = "room-number"
	FieldStaffName           = "staff-name"
	FieldRefusalWitness      = "refusal-witness"
	FieldRefusalCapacity     = "refusal-capacity"
	FieldRefusalInstructions = "refusal-instructions"
	FieldAssessment          = "assessment"
)

// FromForm converts a submitted entry form into a validated CallRecord.
// Checkboxes are considered set when their value is "on", "true", "yes" or "1".
func FromForm(form url.Values) (CallRecord, error) {
	get := func(key string) string { return clean(form.Get(key)) }
	flag := func(key string) bool { return checked(form.Get(key)) }

	rec := CallRecord{
		Unit:           get(FieldUnitNumber),
		CustomUnit:     get(FieldCustomUnit),
		DispatchReason: get(FieldDispatchReason),
		Status:         CallStatus(strings.ToLower(get(FieldCallStatus))),
		Cancellation: Cancellation{
			Type:        CancellationType(strings.ToLower(get(FieldCancellationType))),
			Badge:       get(FieldPDBadge),
			OtherReason: get(FieldOtherReason),
		},
		Patient: Patient{
			Age:            get(FieldPatientAge),
			Gender:         get(FieldPatientGender),
			Location:       get(FieldPatientLocation),
			ChiefComplaint: get(FieldChiefComplaint),
			MedicalHistory: get(FieldMedicalHistory),
			MentalStatus:   get(FieldMentalStatus),
			Pupils:         get(FieldPupils),
		},
		OPQRST: OPQRST{
			Enabled:     flag(FieldOPQRSTToggle),
			Onset:       get(FieldOnset),
			Provocation: get(FieldProvocation),
			Quality:     get(FieldQuality),
			Radiation:   get(FieldRadiation),
			Severity:    get(FieldSeverity),
			Duration:    get(FieldTime),
		},
		Findings: Findings{
			Vitals:             get(FieldVitalSigns),
			VitalsNormal:       flag(FieldVitalsNormal),
			Exam:               get(FieldPhysicalExam),
			ExamNormal:         flag(FieldDCAPNormal),
			AdditionalSymptoms: get(FieldAdditionalSymptoms),
		},
		Treatment: Treatment{
			BLSAssessment: flag(FieldBLSAssessment),
			IVAccess:      flag(FieldIVEstablished),
			ECG:           flag(FieldECGPerformed),
			IcePack:       flag(FieldIcePack),
			WoundCare:     flag(FieldWoundCare),
			Additional:    get(FieldTreatment),
		},
		Transport: Transport{
			Decision:            TransportDecision(strings.ToLower(get(FieldTransportDecision))),
			Hospital:            get(FieldHospital),
			Room:                get(FieldRoomNumber),
			Staff:               get(FieldStaffName),
			RefusalWitness:      get(FieldRefusalWitness),
			RefusalCapacity:     get(FieldRefusalCapacity),
			RefusalInstructions: get(FieldRefusalInstructions),
		},
		Assessment: flag(FieldAssessment),
	}
	for _, d := range form[FieldResponseDelays] {
		if d = clean(d); d != "" {
			rec.ResponseDelays = append(rec.ResponseDelays, d)
		}
	}

	gcs, err := formGCS(form)
	if err != nil {
		return rec, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	rec.Patient.GCSTotal = gcs

	return rec, rec.Validate()
}

func formGCS(form url.Values) (int, error) {
	if total := clean(form.Get(FieldGCSTotal)); total != "" {
		n, err := strconv.Atoi(total)
		if err != nil {
			return 0, fmt.Errorf("gcs total %q is not a number", total)
		}
		return n, nil
	}
	parts := []string{clean(form.Get(FieldGCSEyes)), clean(form.Get(FieldGCSVerbal)), clean(form.Get(FieldGCSMotor))}
	if parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return 0, nil
	}
	sum := 0
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("gcs sub-score %q is not a number", p)
		}
		sum += n
	}
	return sum, nil
}

// DecodeRecord parses a YAML or JSON record file. The format is taken from the
// file extension; anything other than .json is read as YAML.
func DecodeRecord(data []byte, filename string) (CallRecord, error) {
	var rec CallRecord
	if len(data) == 0 {
		return rec, errors.New("empty record file")
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		if err := json.Unmarshal(data, &rec); err != nil {
			return rec, fmt.Errorf("decode json record: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &rec); err != nil {
			return rec, fmt.Errorf("decode yaml record: %w", err)
		}
	}
	rec = rec.sanitized()
	return rec, rec.Validate()
}

// sanitized returns a copy with all free text NFC-normalized and trimmed and
// enum values lower-cased.
func (r CallRecord) sanitized() CallRecord {
	out := r
	out.Unit = clean(r.Unit)
	out.CustomUnit = clean(r.CustomUnit)
	out.DispatchReason = clean(r.DispatchReason)
	out.Status = CallStatus(strings.ToLower(clean(string(r.Status))))
	out.ResponseDelays = nil
	for _, d := range r.ResponseDelays {
		if d = clean(d); d != "" {
			out.ResponseDelays = append(out.ResponseDelays, d)
		}
	}

	out.Cancellation.Type = CancellationType(strings.ToLower(clean(string(r.Cancellation.Type))))
	out.Cancellation.Badge = clean(r.Cancellation.Badge)
	out.Cancellation.OtherReason = clean(r.Cancellation.OtherReason)

	p := &out.Patient
	p.Age, p.Gender, p.Location = clean(p.Age), clean(p.Gender), clean(p.Location)
	p.ChiefComplaint, p.MedicalHistory = clean(p.ChiefComplaint), clean(p.MedicalHistory)
	p.MentalStatus, p.Pupils = clean(p.MentalStatus), clean(p.Pupils)

	o := &out.OPQRST
	o.Onset, o.Provocation, o.Quality = clean(o.Onset), clean(o.Provocation), clean(o.Quality)
	o.Radiation, o.Severity, o.Duration = clean(o.Radiation), clean(o.Severity), clean(o.Duration)

	f := &out.Findings
	f.Vitals, f.Exam, f.AdditionalSymptoms = clean(f.Vitals), clean(f.Exam), clean(f.AdditionalSymptoms)

	out.Treatment.Additional = clean(r.Treatment.Additional)

	t := &out.Transport
	t.Decision = TransportDecision(strings.ToLower(clean(string(t.Decision))))
	t.Hospital, t.Room, t.Staff = clean(t.Hospital), clean(t.Room), clean(t.Staff)
	t.RefusalWitness, t.RefusalCapacity = clean(t.RefusalWitness), clean(t.RefusalCapacity)
	t.RefusalInstructions = clean(t.RefusalInstructions)
	return out
}

func clean(v string) string {
	return strings.TrimSpace(norm.NFC.String(v))
}

func checked(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "yes", "1":
		return true
	default:
		return false
	}
}
