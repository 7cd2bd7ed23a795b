package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/law-makers/schoolsoft/internal/ui"
	"github.com/law-makers/schoolsoft/internal/utils/output"
	"github.com/law-makers/schoolsoft/pkg/models"
)

// outputPath is the -o flag shared by the extraction commands
var outputPath string

// saveLines writes lunch days or schedule events to path, by extension
func saveLines(rows []models.Lines, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return output.SaveJSON(rows, path)
	case ".csv":
		return output.SaveLinesCSV(rows, path)
	default:
		return fmt.Errorf("unsupported output format %q (use .json or .csv)", filepath.Ext(path))
	}
}

// printLines lists rows as numbered blocks, one line per dish or field
func printLines(w io.Writer, title string, rows []models.Lines, empty string) {
	fmt.Fprintf(w, "\n%s\n", ui.Bold(title))
	fmt.Fprintf(w, "%s\n", ui.ColorDim+strings.Repeat("━", 50)+ui.ColorReset)

	if len(rows) == 0 {
		fmt.Fprintf(w, "\n%s\n\n", ui.Info(empty))
		return
	}

	for i, lines := range rows {
		fmt.Fprintln(w)
		for j, line := range lines {
			if j == 0 {
				fmt.Fprintf(w, "%s%2d.%s %s\n", ui.ColorCyan, i+1, ui.ColorReset, ui.ColorWhite+line+ui.ColorReset)
				continue
			}
			fmt.Fprintf(w, "    %s\n", line)
		}
	}
	fmt.Fprintln(w)
}

func printSaved(w io.Writer, what, path string, count int) {
	fmt.Fprintf(w, "%s %d %s saved to %s\n", ui.Success("✓"), count, what, ui.Bold(path))
}
