package templates

import (
	"fmt"
	"strings"
)

// sentences collects non-empty sentences and joins them with single spaces.
type sentences []string

func (s *sentences) add(format string, args ...any) {
	*s = append(*s, fmt.Sprintf(format, args...))
}

// addIf adds the sentence only when value is non-empty.
func (s *sentences) addIf(value, format string) {
	if strings.TrimSpace(value) != "" {
		s.add(format, value)
	}
}

func (s sentences) String() string {
	return strings.Join(s, " ")
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func drivingMode(d ScenarioData) string {
	if strings.EqualFold(strings.TrimSpace(d.ResponseType), "code 3") {
		return "with lights and sirens activated"
	}
	return "under normal driving conditions"
}

func dispatchStandard(d ScenarioData) string {
	return fmt.Sprintf("%s was dispatched to a call for a %s-year-old %s complaining of %s.", d.Unit, d.Age, d.Gender, d.DispatchDesc)
}

func dispatchWithNotes(d ScenarioData) string {
	return dispatchStandard(d) + " " + d.DispatchNotes
}

func dispatchPoliceAssist(d ScenarioData) string {
	return fmt.Sprintf("%s was dispatched to a medical call at the request of %s.", d.Unit, d.RequestingAgency)
}

func dispatchLimitedInfo(d ScenarioData) string {
	return d.Unit + " was dispatched to a medical call with limited information available."
}

func dispatchCanceledEnRoute(d ScenarioData) string {
	return d.Unit + " was dispatched but was canceled en route."
}

func dispatchFall(d ScenarioData) string {
	return fmt.Sprintf("%s was dispatched to a call for a %s-year-old %s who had fallen.", d.Unit, d.Age, d.Gender)
}

func dispatchChestPain(d ScenarioData) string {
	var s sentences
	if d.Location != "" {
		s.add("%s was dispatched to a reported case of severe chest pain at %s.", d.Unit, d.Location)
	} else {
		s.add("%s was dispatched to a reported case of severe chest pain.", d.Unit)
	}
	s.addIf(d.History, "The patient has a history of %s.")
	s.addIf(d.RiskFactors, "Identified cardiac risk factors include: %s.")
	s.addIf(d.Onset, "The pain began %s.")
	s.addIf(d.Quality, "The patient described the pain as %s.")
	s.addIf(d.Radiation, "The pain radiates to %s.")
	s.addIf(d.AssociatedSymptoms, "Associated symptoms include: %s.")
	s.addIf(d.Medications, "Current cardiac medications include: %s.")
	return s.String()
}

func dispatchMentalHealth(d ScenarioData) string {
	var s sentences
	s.add("%s was dispatched to a call for a %s-year-old %s experiencing %s.", d.Unit, d.Age, d.Gender, d.Symptoms)
	s.addIf(d.History, "The patient has a history of %s.")
	s.addIf(d.Medications, "Current medications include: %s.")
	s.addIf(d.RiskFactors, "Identified risk factors include: %s.")
	s.addIf(d.SafetyConcerns, "Safety concerns noted: %s.")
	s.addIf(d.SupportSystem, "The patient reports having %s as a support system.")
	s.addIf(d.RecentEvents, "Recent significant events include: %s.")
	s.addIf(d.LegalStatus, "The patient's legal status is %s.")
	return s.String()
}

func responseImmediate(d ScenarioData) string {
	return fmt.Sprintf("%s acknowledged the dispatch and proceeded immediately to the scene %s.", d.Unit, drivingMode(d))
}

func responseDelayed(d ScenarioData) string {
	return fmt.Sprintf("%s acknowledged the dispatch with a %d minute delay due to %s, then proceeded to the scene %s.",
		d.Unit, d.ResponseDelay, d.ResponseNotes, drivingMode(d))
}

func responseAccessIssues(d ScenarioData) string {
	return fmt.Sprintf("%s experienced difficulty accessing the scene due to %s.", d.Unit, d.AccessIssues)
}

func responsePoliceCancel(d ScenarioData) string {
	return fmt.Sprintf("%s arrived on scene but was canceled by %s who determined no EMS services were needed.", d.Unit, d.CancelingAgency)
}

func contactStandard(d ScenarioData) string {
	return fmt.Sprintf("Upon arrival, the crew encountered a %s-year-old %s patient who was %s. %s", d.Age, d.Gender, lower(d.Condition), d.ChiefComplaint)
}

func contactWithLocation(d ScenarioData) string {
	return fmt.Sprintf("Upon arrival at the scene, the crew found the patient, a %s-year-old %s, %s. The patient was %s, presenting with %s",
		d.Age, d.Gender, d.Location, lower(d.Condition), d.ChiefComplaint)
}

func contactRefusal(d ScenarioData) string {
	return fmt.Sprintf("Upon arrival, the patient was %s and stated they were refusing care. %s", lower(d.Condition), d.RefusalDetails)
}

func contactLanguageBarrier(d ScenarioData) string {
	var s sentences
	s.add("Upon arrival, the crew encountered a %s-year-old %s patient who primarily spoke %s.", d.Age, d.Gender, d.Language)
	if d.Translator != "" {
		s.add("With assistance from %s, it was determined the patient was %s and presenting with %s.", d.Translator, lower(d.Condition), d.ChiefComplaint)
	} else {
		s.add("It was determined the patient was %s and presenting with %s.", lower(d.Condition), d.ChiefComplaint)
	}
	s.addIf(d.CommunicationBarriers, "Communication barriers noted: %s.")
	return s.String()
}

func contactFall(d ScenarioData) string {
	return fmt.Sprintf("Upon arrival, we found the patient %s after a fall. The patient reported %s and denied any loss of consciousness.", d.Position, d.FallDetails)
}

func contactMentalHealth(d ScenarioData) string {
	return fmt.Sprintf("Upon arrival, we found the patient %s. The patient reported %s and appeared %s.", d.Position, d.Symptoms, d.MentalStatus)
}

func assessmentFull(d ScenarioData) string {
	var s sentences
	s.addIf(d.Vitals, "Initial assessment revealed the following vital signs: %s.")
	if d.Neuro != nil {
		s.add("Neurological assessment showed %s with GCS of %d.", d.Neuro.Status, d.Neuro.GCS)
	}
	s.addIf(d.ExamFindings, "Physical exam revealed: %s.")
	if d.Pain != nil {
		if d.Pain.Location != "" {
			s.add("The patient reported %d/10 pain in the %s.", d.Pain.Level, d.Pain.Location)
		} else {
			s.add("The patient reported %d/10 pain.", d.Pain.Level)
		}
	}
	s.addIf(d.History, "Medical history includes: %s.")
	if len(d.Negatives) > 0 {
		s.add("The patient denied any %s.", strings.Join(d.Negatives, ", "))
	}
	s.add("The patient denied headache, nausea, vomiting, abdominal pain, diarrhea, chest pain, stroke-like symptoms, or other medical complaints.")
	s.add("A full assessment revealed no deformities, contusions, abrasions, punctures, burns, tenderness, lacerations, or swelling.")
	return s.String()
}

func assessmentFocused(d ScenarioData) string {
	return fmt.Sprintf("Focused assessment revealed %s. The patient remained %s throughout.", d.Findings, lower(d.Condition))
}

func treatmentDetailed(d ScenarioData) string {
	var s sentences
	s.addIf(d.Interventions, "The following treatments were provided: %s.")
	s.addIf(d.TreatmentMeds, "Medications administered included: %s.")
	s.addIf(d.TreatmentResponse, "The patient's response to treatment was %s.")
	s.addIf(d.TreatmentMonitoring, "Continuous monitoring included: %s.")
	return s.String()
}

func treatmentBasic(d ScenarioData) string {
	if d.Treatments == "" {
		return ""
	}
	return fmt.Sprintf("Basic life support measures were implemented including %s.", d.Treatments)
}

func transportDetailed(d ScenarioData) string {
	var s sentences
	step := "assessment"
	if d.Stabilization {
		step = "stabilization"
	}
	s.add("Following %s, %s transported the patient to %s.", step, d.Unit, d.Destination)
	s.addIf(d.TransportPosition, "The patient was transported in %s position.")
	s.addIf(d.TransportMonitoring, "During transport, the patient was continuously monitored for %s.")
	if d.PreAlert != "" {
		team := d.Team
		if team == "" {
			team = "receiving team"
		}
		s.add("The receiving facility was pre-alerted with %s, ensuring the %s was ready upon arrival.", d.PreAlert, team)
	}
	s.add("Upon arrival, the patient was placed in room %s and left in the care of %s.", d.Room, d.Staff)
	return s.String()
}

func transportRefusal(d ScenarioData) string {
	var s sentences
	s.add("After thorough assessment and patient education, the patient refused transport.")
	s.addIf(d.Witness, "The refusal was witnessed by %s.")
	s.addIf(d.Capacity, "The patient demonstrated capacity to refuse care by %s.")
	s.addIf(d.Instructions, "The patient was advised to %s.")
	s.addIf(d.MedicalFindings, "Despite abnormal findings including %s, the patient maintained their refusal.")
	s.addIf(d.Encouragement, "Despite encouragement from %s, the patient maintained their refusal.")
	s.addIf(d.MedicationStatus, "The patient acknowledged %s regarding their medications.")
	s.addIf(d.AssessmentDetails, "Assessment revealed: %s.")
	s.addIf(d.RiskDiscussion, "The risks of refusing care including %s were thoroughly explained.")
	if d.BloodThinners != nil {
		if *d.BloodThinners {
			s.add("The patient was taking blood thinners.")
		} else {
			s.add("The patient was not taking blood thinners.")
		}
	}
	s.addIf(d.FallDetails, "Fall details: %s.")
	s.addIf(d.CommunicationBarriers, "Communication barriers noted: %s.")
	s.addIf(d.SupportSystem, "The patient reported having %s as a support system.")
	return s.String()
}

func transportCancellation(d ScenarioData) string {
	return fmt.Sprintf("%s was canceled on scene by %s who determined no EMS services were needed.", d.Unit, d.CancelingAgency)
}

func handoffStandard(d ScenarioData) string {
	return fmt.Sprintf("Upon arrival at %s, the patient was placed in %s and left in the care of %s.", d.Facility, d.Room, d.Staff)
}

func handoffDetailed(d ScenarioData) string {
	return fmt.Sprintf("Upon arrival at %s, the patient was placed in %s. A full report was given to %s, including %s.", d.Facility, d.Room, d.Staff, d.ReportDetails)
}

func handoffCritical(d ScenarioData) string {
	return fmt.Sprintf("Upon arrival at %s, the patient was immediately transferred to %s where the %s was standing by. A full report was given to %s including %s.",
		d.Facility, d.Room, d.Team, d.Staff, d.ReportDetails)
}
