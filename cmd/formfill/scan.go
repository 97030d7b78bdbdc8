package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/v0xg/formfill/internal/crawler"
	"github.com/v0xg/formfill/internal/detect"
	"github.com/v0xg/formfill/internal/htmldoc"
	"github.com/v0xg/formfill/internal/page"
)

func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan <file|url>",
		Short: "Print the detected fields of a saved HTML file or a live page",
		Args:  cobra.ExactArgs(1),
		RunE:  runScan,
	}
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	target := args[0]

	var doc page.Document
	if isURL(target) {
		browser, err := crawler.Open(ctx, target, browserOptions())
		if err != nil {
			return err
		}
		defer browser.Close()
		browser.WaitForInputs(ctx, cfg.Browser.Timeout)
		doc = browser
	} else {
		f, err := os.Open(target)
		if err != nil {
			return err
		}
		defer f.Close()
		hd, err := htmldoc.Parse(f, htmldoc.WithRoot(cfg.Scan.Root))
		if err != nil {
			return err
		}
		doc = hd
	}

	ix, err := detect.NewBuilder(doc, detect.WithLogger(logger)).Build(ctx)
	if err != nil {
		return err
	}
	printIndex(cmd.OutOrStdout(), ix)
	return nil
}

func printIndex(w io.Writer, ix *detect.Index) {
	fmt.Fprintf(w, "scan %s: %d candidates, %d eligible\n", ix.ID, ix.Scanned, ix.Eligible)
	for _, c := range detect.Categories {
		fields := ix.Fields(c)
		if len(fields) == 0 {
			fmt.Fprintf(w, "%-8s -\n", c)
			continue
		}
		for i, f := range fields {
			marker := " "
			if i == 0 {
				marker = "*"
			}
			label := ""
			if f.Label != "" {
				label = fmt.Sprintf(" (%q)", f.Label)
			}
			fmt.Fprintf(w, "%-8s %s %s%s\n", c, marker, f.Element.Key(), label)
		}
	}
}
