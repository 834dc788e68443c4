package narrative

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"narrative_framework/formatting"
)

const (
	unitFallback   = "Unit"
	reasonFallback = "an unspecified call"
)

var treatmentClauses = []struct {
	set    func(Treatment) bool
	clause string
}{
	{func(t Treatment) bool { return t.BLSAssessment }, "BLS assessment was performed"},
	{func(t Treatment) bool { return t.IVAccess }, "IV access was established"},
	{func(t Treatment) bool { return t.ECG }, "a 12 lead ECG was obtained"},
	{func(t Treatment) bool { return t.IcePack }, "an ice pack was applied"},
	{func(t Treatment) bool { return t.WoundCare }, "the wound was cleaned and bandaged"},
}

var transitionWords = []string{"additionally", "also", "and", "furthermore", "in addition", "then", "subsequently", "finally"}

const (
	refusalLead     = "Despite our recommendations for transport to further evaluate their condition, the patient refused transport."
	refusalRisks    = "The patient was advised of the risks associated with refusing medical care and transport."
	refusalAdvisory = "The patient signed a refusal form acknowledging these risks and was advised to call 911 if their condition worsens or they change their mind about transport."
)

// Builder renders the individual narrative sections. The zero value uses the
// built-in phrases.
type Builder struct {
	phrases Phrases
}

// NewBuilder returns a Builder using p, with empty fields taken from the defaults.
func NewBuilder(p Phrases) Builder {
	return Builder{phrases: p.withDefaults()}
}

func (b Builder) resolved() Phrases {
	return b.phrases.withDefaults()
}

var defaultBuilder = NewBuilder(DefaultPhrases())

// BuildDispatch renders the dispatch section with the built-in phrases.
func BuildDispatch(rec CallRecord) string { return defaultBuilder.Dispatch(rec) }

// BuildAssessment renders the assessment section with the built-in phrases.
func BuildAssessment(rec CallRecord) string { return defaultBuilder.Assessment(rec) }

// BuildTreatment renders the treatment section.
func BuildTreatment(rec CallRecord) string { return defaultBuilder.Treatment(rec) }

// BuildTransport renders the transport or refusal section.
func BuildTransport(rec CallRecord) string { return defaultBuilder.Transport(rec) }

// BuildCancellation renders the full cancelled-call narrative, before normalization.
func BuildCancellation(rec CallRecord) string { return defaultBuilder.Cancellation(rec) }

// Dispatch renders "{unit} was dispatched to {reason}." plus any delay suffix.
func (b Builder) Dispatch(rec CallRecord) string {
	reason := formatting.EnhanceDispatchText(rec.DispatchReason)
	if reason == "" {
		reason = reasonFallback
	}
	delays := formatting.DescribeResponseDelays(rec.ResponseDelays, b.resolved().DelayDescriptions)
	return fmt.Sprintf("%s was dispatched to %s.%s", unitOrDefault(rec), reason, delays)
}

// Assessment renders the on-scene findings. It is empty unless the record's
// assessment flag is set.
func (b Builder) Assessment(rec CallRecord) string {
	if !rec.Assessment {
		return ""
	}
	p := rec.Patient
	sentences := []string{
		arrivalSentence(p),
		opqrstSentence(rec.OPQRST),
		historySentence(p.MedicalHistory),
		neuroSentence(p),
		pupilsSentence(p.Pupils),
		sentence(b.VitalsClause(rec)),
		sentence(b.ExamClause(rec)),
		sentence(rec.Findings.AdditionalSymptoms),
	}
	return formatting.JoinNonEmpty(" ", sentences...)
}

// VitalsClause combines the normal-vitals checkbox with the vitals text.
func (b Builder) VitalsClause(rec CallRecord) string {
	return Combine(rec.Findings.VitalsNormal, rec.Findings.Vitals, b.resolved().VitalsDefault, vitalsConnector)
}

// ExamClause combines the normal DCAP-BTLS checkbox with the exam text.
func (b Builder) ExamClause(rec CallRecord) string {
	return Combine(rec.Findings.ExamNormal, rec.Findings.Exam, b.resolved().ExamDefault, examConnector)
}

func arrivalSentence(p Patient) string {
	var sb strings.Builder
	sb.WriteString("Upon arrival, we found ")
	sb.WriteString(patientDescriptor(p, false))
	location := trimPeriod(p.Location)
	if location != "" {
		sb.WriteString(" " + location)
	}
	if complaint := trimPeriod(p.ChiefComplaint); complaint != "" {
		if location != "" {
			sb.WriteString(",")
		}
		sb.WriteString(" complaining of " + lowerFirst(complaint))
	}
	sb.WriteString(".")
	return sb.String()
}

// patientDescriptor renders "a 45 year old male patient", degrading to
// "the patient" when neither age nor gender is known. definite forces "the".
func patientDescriptor(p Patient, definite bool) string {
	age := strings.TrimSpace(p.Age)
	gender := strings.ToLower(strings.TrimSpace(p.Gender))
	if age == "" && gender == "" {
		return "the patient"
	}
	parts := make([]string, 0, 3)
	if age != "" {
		parts = append(parts, age+" year old")
	}
	if gender != "" {
		parts = append(parts, gender)
	}
	parts = append(parts, "patient")
	desc := strings.Join(parts, " ")
	switch {
	case definite:
		return "the " + desc
	case age != "" && ageTakesAn(age):
		return "an " + desc
	case age == "":
		return formatting.WithArticle(desc)
	default:
		return "a " + desc
	}
}

// ageTakesAn reports whether a spoken age starts with a vowel sound: 8, 11,
// 18 and 80-89.
func ageTakesAn(age string) bool {
	return strings.HasPrefix(age, "8") || age == "11" || age == "18"
}

func opqrstSentence(o OPQRST) string {
	if !o.Enabled {
		return ""
	}
	var parts []string
	if v := trimPeriod(o.Onset); v != "" {
		parts = append(parts, "reported that the symptoms began "+lowerFirst(v))
	}
	if v := trimPeriod(o.Provocation); v != "" {
		parts = append(parts, "stated that "+lowerFirst(v)+" affects their condition")
	}
	if v := trimPeriod(o.Quality); v != "" {
		parts = append(parts, "described the sensation as "+lowerFirst(v))
	}
	if v := trimPeriod(o.Radiation); v != "" {
		parts = append(parts, "noted that the discomfort radiates to "+lowerFirst(v))
	}
	if v := strings.TrimSpace(o.Severity); v != "" {
		parts = append(parts, "rated the severity as "+v+"/10 on the pain scale")
	}
	if v := trimPeriod(o.Duration); v != "" {
		parts = append(parts, "indicated that symptoms have been present for "+lowerFirst(v))
	}
	if len(parts) == 0 {
		return ""
	}
	return "The patient " + strings.Join(parts, ", ") + "."
}

func historySentence(history string) string {
	history = trimPeriod(history)
	if history == "" {
		return ""
	}
	if deniesHistory(history) {
		return "The patient denied any significant medical history."
	}
	return "The patient's medical history was significant for " + history + "."
}

var staffCredentials = []string{"rn", "lpn", "np", "pa", "md", "do", "dr", "dr.", "medic", "paramedic", "emt"}

// receivingStaff names the person taking the handoff, as "RN {name}" unless
// the name already opens with a credential.
func receivingStaff(name string) string {
	name = trimPeriod(name)
	if name == "" {
		return ""
	}
	first := strings.ToLower(strings.Fields(name)[0])
	first = strings.TrimSuffix(first, ",")
	for _, c := range staffCredentials {
		if first == c {
			return name
		}
	}
	return "RN " + name
}

// historyNoWords are findings that start with "no" but are not denials.
var historyNoWords = []string{"nosebleed", "nocturia", "nodule", "norovirus", "nocardia"}

// deniesHistory matches answers that start with "no" (no, none, nothing,
// noncontributory) plus "denies" and NKDA. Findings listed in historyNoWords
// still print.
func deniesHistory(history string) bool {
	lower := strings.ToLower(strings.TrimSpace(history))
	if strings.Contains(lower, "denies") || strings.Contains(lower, "none") {
		return true
	}
	if lower == "nkda" || lower == "non-contributory" || lower == "n/a" {
		return true
	}
	if !strings.HasPrefix(lower, "no") {
		return false
	}
	for _, word := range historyNoWords {
		if strings.HasPrefix(lower, word) {
			return false
		}
	}
	return true
}

func neuroSentence(p Patient) string {
	status := trimPeriod(p.MentalStatus)
	if status == "" {
		status = DefaultMentalStatus
	}
	if p.GCSTotal > 0 {
		return fmt.Sprintf("The patient was %s, with a Glasgow Coma Scale of %d.", status, p.GCSTotal)
	}
	return fmt.Sprintf("The patient was %s.", status)
}

func pupilsSentence(pupils string) string {
	pupils = trimPeriod(pupils)
	switch {
	case pupils == "":
		return ""
	case strings.EqualFold(pupils, "PERRL"):
		return "Pupils were equal, round, and reactive to light."
	default:
		return "Pupils were noted as " + lowerFirst(pupils) + "."
	}
}

// Treatment lists the interventions performed. The wrapper sentence depends
// on whether the patient was transported.
func (b Builder) Treatment(rec CallRecord) string {
	var items []string
	for _, tc := range treatmentClauses {
		if tc.set(rec.Treatment) {
			items = append(items, tc.clause)
		}
	}
	if extra := lowerFirst(trimPeriod(rec.Treatment.Additional)); extra != "" {
		if len(items) > 0 && !startsWithTransition(extra) {
			extra = "additionally, " + extra
		}
		items = append(items, extra)
	}
	if len(items) == 0 {
		return ""
	}
	list := formatting.JoinWithAnd(items)
	if rec.Transport.Decision == TransportTransported {
		return "Based on our assessment findings, the following interventions were performed: " + list + "."
	}
	return "After completing our assessment, the following care was offered: " + list + "."
}

func startsWithTransition(text string) bool {
	lower := strings.ToLower(text)
	for _, w := range transitionWords {
		if lower == w || strings.HasPrefix(lower, w+" ") || strings.HasPrefix(lower, w+",") {
			return true
		}
	}
	return false
}

// Transport renders the transport or refusal disclosure. Any other decision
// yields an empty section.
func (b Builder) Transport(rec CallRecord) string {
	t := rec.Transport
	switch t.Decision {
	case TransportTransported:
		var sb strings.Builder
		sb.WriteString("The patient was transported")
		room := ""
		if r := strings.TrimSpace(t.Room); r != "" {
			room = "room " + r
		}
		if dest := formatting.JoinNonEmpty(" ", t.Hospital, room); dest != "" {
			sb.WriteString(" to " + dest)
		}
		if staff := receivingStaff(t.Staff); staff != "" {
			sb.WriteString(" and left in the care of " + staff)
		}
		sb.WriteString(".")
		return sb.String()
	case TransportRefused:
		capacity := sentence(t.RefusalCapacity)
		if capacity == "" {
			capacity = b.resolved().RefusalCapacityDefault
		}
		witness := ""
		if w := trimPeriod(t.RefusalWitness); w != "" {
			witness = "The refusal was witnessed by " + w + "."
		}
		instructions := ""
		if in := trimPeriod(t.RefusalInstructions); in != "" {
			instructions = "The patient was further advised to " + lowerFirst(in) + "."
		}
		return formatting.JoinNonEmpty(" ", refusalLead, refusalRisks, capacity, witness, instructions, refusalAdvisory)
	default:
		return ""
	}
}

// Cancellation renders the cancelled-call narrative: the dispatch context
// followed by the sentence for the cancellation type. Only the caller branch
// reads patient fields. An unknown type yields the context alone.
func (b Builder) Cancellation(rec CallRecord) string {
	unit := unitOrDefault(rec)
	lead := b.Dispatch(rec)
	c := rec.Cancellation
	var outcome string
	switch c.Type {
	case CancelDispatch:
		outcome = "Before departing the station, dispatch advised that our services were no longer required and that we could cancel the response. " + unit + " returned to service."
	case CancelPolice:
		agency := "the police department"
		if badge := strings.TrimPrefix(strings.TrimSpace(c.Badge), "#"); badge != "" {
			agency += " (Badge #" + badge + ")"
		}
		outcome = "Upon arrival, we were immediately canceled by " + agency + " who determined no EMS services were needed. We returned to service without further action."
	case CancelCaller:
		outcome = "Upon arrival, we found " + patientDescriptor(rec.Patient, true) + " had decided they no longer required EMS services and was refusing further assistance. We were canceled on scene and promptly returned to service."
	case CancelOther:
		if reason := sentence(c.OtherReason); reason != "" {
			outcome = reason + " " + unit + " returned to service."
		} else {
			outcome = "The call was canceled and " + unit + " returned to service."
		}
	}
	return formatting.JoinNonEmpty(" ", lead, outcome)
}

func unitOrDefault(rec CallRecord) string {
	if unit := rec.UnitName(); unit != "" {
		return unit
	}
	return unitFallback
}

// sentence trims free text, capitalizes it, and ensures terminal punctuation.
func sentence(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	text = upperFirst(text)
	switch text[len(text)-1] {
	case '.', '!', '?':
		return text
	default:
		return text + "."
	}
}

func trimPeriod(text string) string {
	return strings.TrimRight(strings.TrimSpace(text), ". ")
}

func lowerFirst(text string) string {
	r, size := utf8.DecodeRuneInString(text)
	if r == utf8.RuneError || !unicode.IsUpper(r) {
		return text
	}
	// Keep acronyms such as "CHF" or "BP" intact.
	if next, _ := utf8.DecodeRuneInString(text[size:]); unicode.IsUpper(next) {
		return text
	}
	return string(unicode.ToLower(r)) + text[size:]
}

func upperFirst(text string) string {
	r, size := utf8.DecodeRuneInString(text)
	if r == utf8.RuneError {
		return text
	}
	return string(unicode.ToUpper(r)) + text[size:]
}
