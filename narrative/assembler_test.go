package narrative

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"narrative_framework/logging"
	"narrative_framework/metrics"
)

type recordingObserver struct {
	mu    sync.Mutex
	texts []string
}

func (r *recordingObserver) Observe(_ context.Context, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
}

type panickingObserver struct{}

func (panickingObserver) Observe(context.Context, string) { panic("model exploded") }

func newTestAssembler(opts ...Option) *Assembler {
	return NewAssembler(append([]Option{WithLogger(logging.Discard())}, opts...)...)
}

func TestActiveNarrativeFallScenario(t *testing.T) {
	a := newTestAssembler()
	got := a.Generate(context.Background(), CallRecord{Unit: "M1", DispatchReason: "fall", Status: StatusActive})

	want := "M1 was dispatched to a fall incident.\n\n" +
		"Upon arrival, we found the patient. The patient was AAOX4.\n\n" +
		"M1 returned to service."
	assert.Equal(t, want, got)
	assert.True(t, strings.HasSuffix(got, "M1 returned to service."))
}

func TestActiveNarrativeFullRecord(t *testing.T) {
	rec := CallRecord{
		Unit:           "other",
		CustomUnit:     "Medic 12",
		DispatchReason: "Chest Pain",
		ResponseDelays: []string{"traffic"},
		Status:         StatusActive,
		Patient: Patient{
			Age:            "58",
			Gender:         "Male",
			Location:       "seated in the kitchen",
			ChiefComplaint: "Chest pain",
			MedicalHistory: "hypertension and diabetes",
			Pupils:         "PERRL",
			GCSTotal:       15,
		},
		OPQRST:    OPQRST{Enabled: true, Onset: "30 minutes ago", Quality: "Pressure", Severity: "7"},
		Findings:  Findings{VitalsNormal: true, Vitals: "BP 150/90", ExamNormal: true},
		Treatment: Treatment{BLSAssessment: true, ECG: true, Additional: "oxygen via nasal cannula"},
		Transport: Transport{Decision: TransportTransported, Hospital: "Newton Medical Center", Room: "4", Staff: "RN Smith"},
	}
	got := newTestAssembler().GenerateActiveNarrative(context.Background(), rec)

	want := strings.Join([]string{
		"Medic 12 was dispatched to chest discomfort. Response time was affected by heavy traffic conditions.",
		"Upon arrival, we found a 58 year old male patient seated in the kitchen, complaining of CP. " +
			"The patient reported that the symptoms began 30 minutes ago, described the sensation as pressure, rated the severity as 7/10 on the pain scale. " +
			"The patient's medical history was significant for hypertension and diabetes. " +
			"The patient was AAOX4, with a GCS of 15. " +
			"Pupils were PERRL. " +
			"Initial assessment revealed all vital signs were within normal limits, with the following readings BP 150/90. " +
			"Patient was negative for any DCAP-BTLS throughout the body.",
		"Based on our assessment findings, the following interventions were performed: BLS assessment was performed, a 12 lead ECG was obtained and additionally, oxygen via nasal cannula.",
		"The patient was transported to Newton Medical Center room 4 and left in the care of RN Smith.",
		"Medic 12 returned to service.",
	}, "\n\n")
	assert.Equal(t, want, got)
}

func TestActiveNarrativeIgnoresCancellationFields(t *testing.T) {
	rec := CallRecord{Unit: "M1", DispatchReason: "fall", Status: StatusActive,
		Cancellation: Cancellation{Type: CancelPolice, Badge: "999", OtherReason: "should not appear"}}
	got := newTestAssembler().GenerateActiveNarrative(context.Background(), rec)
	assert.NotContains(t, got, "Badge")
	assert.NotContains(t, got, "should not appear")
}

func TestCancellationNarrativePoliceScenario(t *testing.T) {
	rec := CallRecord{Unit: "E3", DispatchReason: "alarm", Status: StatusCancelled,
		Cancellation: Cancellation{Type: CancelPolice, Badge: "4521"}}
	got := newTestAssembler().Generate(context.Background(), rec)

	assert.Contains(t, got, "Badge #4521")
	assert.Contains(t, got, "E3")
	assert.NotContains(t, got, "Upon arrival, we found")
	assert.NotContains(t, got, "\n")
	assert.Equal(t, 1, strings.Count(got, "returned to service"))
}

func TestCancellationNarrativeIsNotAbbreviated(t *testing.T) {
	rec := CallRecord{Unit: "M4", DispatchReason: "chest pain", Status: StatusCancelled,
		Cancellation: Cancellation{Type: CancelOther, OtherReason: "Caller reported the chest pain resolved"}}
	got := newTestAssembler().GenerateCancellationNarrative(context.Background(), rec)
	assert.Equal(t, "M4 was dispatched to chest discomfort. Caller reported the chest pain resolved. M4 returned to service.", got)
}

func TestObserverReceivesNarrativeAndOtherReason(t *testing.T) {
	obs := &recordingObserver{}
	a := newTestAssembler(WithObserver(obs))

	active := a.Generate(context.Background(), CallRecord{Unit: "M1", DispatchReason: "fall", Status: StatusActive})
	a.Generate(context.Background(), CallRecord{Unit: "M1", DispatchReason: "fall", Status: StatusCancelled,
		Cancellation: Cancellation{Type: CancelOther, OtherReason: "Wrong address"}})
	a.Generate(context.Background(), CallRecord{Unit: "M1", DispatchReason: "fall", Status: StatusCancelled,
		Cancellation: Cancellation{Type: CancelDispatch}})

	require.Len(t, obs.texts, 2)
	assert.Equal(t, active, obs.texts[0])
	assert.Equal(t, "Wrong address", obs.texts[1])
}

func TestObserverPanicDoesNotAffectNarrative(t *testing.T) {
	m := metrics.New()
	plain := newTestAssembler().Generate(context.Background(), activeRecord())
	got := newTestAssembler(WithObserver(panickingObserver{}), WithMetrics(m)).Generate(context.Background(), activeRecord())

	assert.Equal(t, plain, got)
	assert.EqualValues(t, 1, m.Snapshot().EmbedFailures)
	assert.EqualValues(t, 0, m.Snapshot().Fallbacks)
}

func TestRecoverIntoReturnsFallback(t *testing.T) {
	m := metrics.New()
	a := newTestAssembler(WithMetrics(m))
	rec := CallRecord{Unit: "M9", DispatchReason: "lift assist"}

	got := func() (out string) {
		defer a.recoverInto(rec, &out)
		panic("section failure")
	}()
	assert.Equal(t, "M9 was dispatched to lift assist. Due to technical difficulties, a detailed narrative could not be generated.", got)
	assert.EqualValues(t, 1, m.Snapshot().Fallbacks)
}

func TestFallbackDefaults(t *testing.T) {
	assert.Equal(t, "Unit was dispatched to location. Due to technical difficulties, a detailed narrative could not be generated.", Fallback(CallRecord{}))
}

func TestMetricsCountByPath(t *testing.T) {
	m := metrics.New()
	a := newTestAssembler(WithMetrics(m))
	a.Generate(context.Background(), activeRecord())
	a.Generate(context.Background(), CallRecord{Unit: "M1", DispatchReason: "fall", Status: StatusCancelled, Cancellation: Cancellation{Type: CancelCaller}})

	s := m.Snapshot()
	assert.EqualValues(t, 1, s.ActiveNarratives)
	assert.EqualValues(t, 1, s.CancelledNarratives)
}

func TestSetPhrasesIsConcurrentSafe(t *testing.T) {
	a := newTestAssembler()
	rec := activeRecord()
	rec.Findings.VitalsNormal = true

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			a.SetPhrases(Phrases{VitalsDefault: "Vitals were stable."})
		}()
		go func() {
			defer wg.Done()
			_ = a.Generate(context.Background(), rec)
		}()
	}
	wg.Wait()
	assert.Contains(t, a.Generate(context.Background(), rec), "Vitals were stable.")
}
