package cli

import (
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"codenav/internal/engine"
)

// minProgressFiles is the batch size from which loading shows a bar.
const minProgressFiles = 20

// loadWithProgress loads files into e, drawing a progress bar on stderr for
// large batches. Failures are reported but do not stop the batch.
func loadWithProgress(cmd *cobra.Command, e *engine.Engine, files []string, what string) {
	errOut := cmd.ErrOrStderr()

	var bar *progressbar.ProgressBar
	if len(files) >= minProgressFiles {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetWriter(errOut),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowBytes(false),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetDescription("[cyan]"+what+"[reset]"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(errOut)
			}),
		)
	}

	failed := 0
	e.Load(files, func(file string, err error) {
		if err != nil {
			failed++
			if bar == nil {
				fmt.Fprintf(errOut, "Warning: %v\n", err)
			}
		}
		if bar != nil {
			bar.Add(1)
		}
	})
	if failed > 0 && bar != nil {
		fmt.Fprintf(errOut, "Warning: %d of %d files failed to load\n", failed, len(files))
	}
}
