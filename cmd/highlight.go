package main

import (
	"bytes"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/page-audit/internal/dom"
	"github.com/sells-group/page-audit/internal/highlight"
)

var (
	highlightIn  string
	highlightOut string
)

var highlightCmd = &cobra.Command{
	Use:   "highlight",
	Short: "Manage phone highlight markers in saved pages",
}

var highlightClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove phone highlight markers from an annotated HTML file",
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := os.ReadFile(highlightIn)
		if err != nil {
			return eris.Wrap(err, "highlight: read input")
		}

		cleared, n, err := clearHighlights(src, highlightOptions())
		if err != nil {
			return err
		}
		zap.L().Info("highlights cleared", zap.Int("elements", n))

		if highlightOut == "" {
			_, err = os.Stdout.Write(cleared)
			return err
		}
		if err := os.WriteFile(highlightOut, cleared, 0o644); err != nil {
			return eris.Wrap(err, "highlight: write output")
		}
		return nil
	},
}

func init() {
	highlightClearCmd.Flags().StringVar(&highlightIn, "in", "", "annotated HTML file")
	highlightClearCmd.Flags().StringVar(&highlightOut, "out", "", "output file (default stdout)")
	_ = highlightClearCmd.MarkFlagRequired("in")

	highlightCmd.AddCommand(highlightClearCmd)
	rootCmd.AddCommand(highlightCmd)
}

// clearHighlights strips engine-owned markers from an HTML page and returns
// the re-rendered page with the number of elements cleared.
func clearHighlights(src []byte, opts highlight.Options) ([]byte, int, error) {
	doc, err := dom.Parse(bytes.NewReader(src))
	if err != nil {
		return nil, 0, eris.Wrap(err, "highlight: parse input")
	}
	n := highlight.New(doc, opts).Clear()

	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		return nil, 0, eris.Wrap(err, "highlight: render output")
	}
	return buf.Bytes(), n, nil
}
