// internal/cli/schedule.go
package cli

import (
	"github.com/law-makers/schoolsoft/internal/extractor"
	"github.com/law-makers/schoolsoft/internal/reqctx"
	"github.com/law-makers/schoolsoft/internal/utils/output"
	"github.com/spf13/cobra"
)

// scheduleCmd represents the schedule command
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Show your schedule",
	Long: `Fetches the logged-in user's schedule. Every event is printed with its
text lines (time, subject, room...) in the order the portal renders them,
which is not necessarily sorted by weekday.`,
	Example: `  # Print the schedule using a saved profile
  schoolsoft schedule --profile=skolan

  # Save it as JSON
  schoolsoft schedule -o schedule.json`,
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().StringVarP(&outputPath, "output", "o", "", "File path to save output (.json or .csv)")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := mustApp(cmd)
	if err != nil {
		return err
	}
	s, err := a.Session()
	if err != nil {
		return err
	}

	schedule, err := extractor.FetchSchedule(ctx, s)
	if err != nil {
		return reqctx.NewRequestError(ctx, err)
	}

	w := cmd.OutOrStdout()
	switch {
	case outputPath != "":
		if err := saveLines(schedule, outputPath); err != nil {
			return err
		}
		printSaved(w, "events", outputPath, len(schedule))
	case a.Config.JSONLog:
		return output.WriteJSON(w, schedule)
	default:
		printLines(w, "📅 Schedule", schedule, "No events found.")
	}
	return nil
}
