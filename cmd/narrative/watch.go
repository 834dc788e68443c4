package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"narrative_framework/internal/app"
	"narrative_framework/internal/events"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Generate narratives as record files appear in the inbox",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, m, err := setup()
		if err != nil {
			return err
		}
		a, err := app.New(cfg, logger, m)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		sub := a.Events().Subscribe()
		printed := make(chan struct{})
		go func() {
			defer close(printed)
			for ev := range sub {
				fmt.Fprintln(out, describeEvent(ev))
			}
		}()

		fmt.Fprintln(out, titleStyle.Render("Watching "+cfg.InboxDir)+" (ctrl-c to stop)")
		err = a.Watch(cmd.Context())
		<-printed
		return err
	},
}

func describeEvent(ev events.Event) string {
	stamp := labelStyle.Render(ev.At.Local().Format("15:04:05"))
	switch ev.Kind {
	case events.KindGenerated:
		return fmt.Sprintf("%s %s %s (%s, %s) -> %s", stamp, okStyle.Render("generated"), ev.File, ev.Unit, ev.Status, ev.Output)
	case events.KindReloaded:
		return fmt.Sprintf("%s %s %s", stamp, okStyle.Render("reloaded"), ev.File)
	case events.KindInvalid:
		return fmt.Sprintf("%s %s %s: %s", stamp, warnStyle.Render("invalid"), ev.File, ev.Err)
	default:
		return fmt.Sprintf("%s %s %s: %s", stamp, errorStyle.Render("failed"), ev.File, ev.Err)
	}
}
