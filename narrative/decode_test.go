package narrative

import (
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromForm(t *testing.T) {
	form := url.Values{}
	form.Set(FieldUnitNumber, "other")
	form.Set(FieldCustomUnit, " Medic 5 ")
	form.Set(FieldDispatchReason, "Difficulty breathing")
	form.Set(FieldCallStatus, "active")
	form.Add(FieldResponseDelays, "Traffic")
	form.Add(FieldResponseDelays, "weather")
	form.Set(FieldGCSEyes, "4")
	form.Set(FieldGCSVerbal, "5")
	form.Set(FieldGCSMotor, "6")
	form.Set(FieldOPQRSTToggle, "on")
	form.Set(FieldSeverity, "6")
	form.Set(FieldVitalsNormal, "on")
	form.Set(FieldBLSAssessment, "on")
	form.Set(FieldIcePack, "off")
	form.Set(FieldTransportDecision, "Transported")
	form.Set(FieldHospital, "St. Clare's")

	rec, err := FromForm(form)
	require.NoError(t, err)
	assert.Equal(t, "Medic 5", rec.UnitName())
	assert.Equal(t, []string{"Traffic", "weather"}, rec.ResponseDelays)
	assert.Equal(t, 15, rec.Patient.GCSTotal)
	assert.True(t, rec.OPQRST.Enabled)
	assert.True(t, rec.Findings.VitalsNormal)
	assert.True(t, rec.Treatment.BLSAssessment)
	assert.False(t, rec.Treatment.IcePack)
	assert.Equal(t, TransportTransported, rec.Transport.Decision)
	assert.Equal(t, "St. Clare's", rec.Transport.Hospital)
}

func TestFromFormPrefersExplicitGCSTotal(t *testing.T) {
	form := url.Values{
		FieldUnitNumber:     {"M1"},
		FieldDispatchReason: {"fall"},
		FieldCallStatus:     {"active"},
		FieldGCSTotal:       {"14"},
		FieldGCSEyes:        {"1"},
		FieldGCSVerbal:      {"1"},
		FieldGCSMotor:       {"1"},
	}
	rec, err := FromForm(form)
	require.NoError(t, err)
	assert.Equal(t, 14, rec.Patient.GCSTotal)
}

func TestFromFormValidation(t *testing.T) {
	form := url.Values{
		FieldCallStatus: {"pending"},
		FieldSeverity:   {"11"},
		FieldGCSTotal:   {"2"},
	}
	_, err := FromForm(form)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRecord))
	for _, msg := range []string{"unit is required", "dispatch reason is required", `unknown call status "pending"`, "severity must be 0-10", "gcs total must be 3-15"} {
		assert.Contains(t, err.Error(), msg)
	}
}

func TestFromFormRejectsNonNumericGCS(t *testing.T) {
	_, err := FromForm(url.Values{FieldGCSTotal: {"fifteen"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestDecodeRecordYAML(t *testing.T) {
	data := []byte(`
unit: E3
dispatch_reason: "  alarm  "
call_status: Cancelled
response_delays: [NONE]
cancellation:
  type: PD
  badge: "4521"
`)
	rec, err := DecodeRecord(data, "call.yaml")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, rec.Status)
	assert.Equal(t, CancelPolice, rec.Cancellation.Type)
	assert.Equal(t, "alarm", rec.DispatchReason)
	assert.Equal(t, []string{"none"}, rec.ResponseDelays)
}

func TestDecodeRecordJSON(t *testing.T) {
	data := []byte(`{"unit":"M1","dispatch_reason":"fall","call_status":"active","findings":{"vitals_normal":true}}`)
	rec, err := DecodeRecord(data, "call.JSON")
	require.NoError(t, err)
	assert.True(t, rec.Findings.VitalsNormal)
}

func TestDecodeRecordNormalizesUnicode(t *testing.T) {
	// A combining acute accent after "e" composes to a single rune.
	data := []byte("unit: M1\ndispatch_reason: \"cafe\u0301 fall\"\ncall_status: active\n")
	rec, err := DecodeRecord(data, "call.yml")
	require.NoError(t, err)
	assert.Equal(t, "caf\u00e9 fall", rec.DispatchReason)
}

func TestDecodeRecordErrors(t *testing.T) {
	_, err := DecodeRecord(nil, "call.yaml")
	assert.Error(t, err)

	_, err = DecodeRecord([]byte("{not json"), "call.json")
	assert.Error(t, err)

	_, err = DecodeRecord([]byte("unit: M1\n"), "call.yaml")
	assert.ErrorIs(t, err, ErrInvalidRecord)
}
