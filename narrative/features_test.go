package narrative

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/cucumber/godog"

	"narrative_framework/logging"
)

// formContext holds state for a single scenario
type formContext struct {
	form      url.Values
	record    CallRecord
	narrative string
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

func InitializeScenario(sc *godog.ScenarioContext) {
	fc := &formContext{}

	sc.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		*fc = formContext{}
		return ctx, nil
	})

	sc.Step(`^a new incident form$`, fc.aNewIncidentForm)
	sc.Step(`^the form field "([^"]*)" is "([^"]*)"$`, fc.theFormFieldIs)
	sc.Step(`^the narrative is generated$`, fc.theNarrativeIsGenerated)
	sc.Step(`^the narrative contains "([^"]*)"$`, fc.theNarrativeContains)
	sc.Step(`^the narrative does not contain "([^"]*)"$`, fc.theNarrativeDoesNotContain)
	sc.Step(`^the narrative ends with "([^"]*)"$`, fc.theNarrativeEndsWith)
	sc.Step(`^the vitals clause is "([^"]*)"$`, fc.theVitalsClauseIs)
}

func (fc *formContext) aNewIncidentForm() error {
	fc.form = url.Values{}
	return nil
}

func (fc *formContext) theFormFieldIs(field, value string) error {
	fc.form.Add(field, value)
	return nil
}

func (fc *formContext) theNarrativeIsGenerated() error {
	rec, err := FromForm(fc.form)
	if err != nil {
		return fmt.Errorf("form rejected: %w", err)
	}
	fc.record = rec
	fc.narrative = NewAssembler(WithLogger(logging.Discard())).Generate(context.Background(), rec)
	return nil
}

func (fc *formContext) theNarrativeContains(text string) error {
	if !strings.Contains(fc.narrative, text) {
		return fmt.Errorf("expected narrative to contain %q, got:\n%s", text, fc.narrative)
	}
	return nil
}

func (fc *formContext) theNarrativeDoesNotContain(text string) error {
	if strings.Contains(fc.narrative, text) {
		return fmt.Errorf("expected narrative not to contain %q, got:\n%s", text, fc.narrative)
	}
	return nil
}

func (fc *formContext) theNarrativeEndsWith(text string) error {
	if !strings.HasSuffix(fc.narrative, text) {
		return fmt.Errorf("expected narrative to end with %q, got:\n%s", text, fc.narrative)
	}
	return nil
}

func (fc *formContext) theVitalsClauseIs(want string) error {
	got := defaultBuilder.VitalsClause(fc.record)
	if got != want {
		return fmt.Errorf("expected vitals clause %q, got %q", want, got)
	}
	if !strings.Contains(fc.narrative, strings.TrimSuffix(want, ".")) {
		return fmt.Errorf("vitals clause missing from narrative:\n%s", fc.narrative)
	}
	return nil
}
