package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"narrative_framework/templates"
)

var (
	scenarioSection string
	scenarioList    bool
)

var scenarioCmd = &cobra.Command{
	Use:   "scenario [scenario-file]",
	Short: "Render a narrative from the template library for a scenario file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if scenarioList {
			for _, s := range templates.Sections {
				fmt.Fprintln(out, row(string(s), strings.Join(templates.Names(s), ", ")))
			}
			return nil
		}
		if len(args) != 1 {
			return fmt.Errorf("scenario file required")
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		d, err := templates.LoadScenario(data, args[0])
		if err != nil {
			return err
		}

		if scenarioSection != "" {
			section := templates.Section(scenarioSection)
			name, err := templates.Choose(section, d)
			if err != nil {
				return err
			}
			text, err := templates.SelectTemplate(section, d)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), labelStyle.Render("template")+" "+name)
			fmt.Fprintln(out, text)
			return nil
		}
		fmt.Fprintln(out, templates.Render(d))
		return nil
	},
}

func init() {
	scenarioCmd.Flags().StringVar(&scenarioSection, "section", "", "render a single section (dispatch, response, patientContact, assessment, treatment, transport, handoff)")
	scenarioCmd.Flags().BoolVar(&scenarioList, "list", false, "list template names per section")
}
