// internal/cli/lunch.go
package cli

import (
	"github.com/law-makers/schoolsoft/internal/extractor"
	"github.com/law-makers/schoolsoft/internal/reqctx"
	"github.com/law-makers/schoolsoft/internal/utils/output"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// lunchCmd represents the lunch command
var lunchCmd = &cobra.Command{
	Use:   "lunch",
	Short: "Show this week's lunch menu",
	Long: `Fetches the school's lunch menu for the current week. Each day is listed
with its dishes in the order the portal shows them.`,
	Example: `  # Print the menu
  schoolsoft lunch --school=engelbrektskolan

  # Save it as CSV, one row per day
  schoolsoft lunch -o lunch.csv

  # Print JSON for scripting
  schoolsoft lunch --json`,
	Args: cobra.NoArgs,
	RunE: runLunch,
}

func init() {
	rootCmd.AddCommand(lunchCmd)

	lunchCmd.Flags().StringVarP(&outputPath, "output", "o", "", "File path to save output (.json or .csv)")
}

func runLunch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := mustApp(cmd)
	if err != nil {
		return err
	}
	s, err := a.Session()
	if err != nil {
		return err
	}

	menu, err := extractor.FetchLunchMenu(ctx, s)
	if err != nil {
		return reqctx.NewRequestError(ctx, err)
	}
	log.Debug().Int("days", len(menu)).Msg("Lunch menu fetched")

	w := cmd.OutOrStdout()
	switch {
	case outputPath != "":
		if err := saveLines(menu, outputPath); err != nil {
			return err
		}
		printSaved(w, "days", outputPath, len(menu))
	case a.Config.JSONLog:
		return output.WriteJSON(w, menu)
	default:
		printLines(w, "🍽  Lunch menu", menu, "No lunch menu published.")
	}
	return nil
}
