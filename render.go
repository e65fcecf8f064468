package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/erkantaylan/mdview/internal/enhance"
	"github.com/erkantaylan/mdview/internal/source"
	"github.com/erkantaylan/mdview/internal/theme"
)

func newRenderCmd(opts *options) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "render [source]",
		Short: "Write the enhanced document as a standalone HTML page",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig(cmd, opts, args)
			if err != nil {
				return err
			}
			msgs, err := enhance.Locale(cfg.Locale)
			if err != nil {
				return err
			}
			src, err := source.New(cfg.Source)
			if err != nil {
				return err
			}
			prefs, err := theme.Load(theme.NewFileStore(cfg.StateFile))
			if err != nil {
				return err
			}

			page, err := NewRenderer(cfg.HighlightStyle, msgs, log).Render(context.Background(), src)
			if err != nil {
				return fmt.Errorf("loading %s: %w", src.Name(), err)
			}

			out := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("creating %s: %w", output, err)
				}
				defer f.Close()
				out = f
			}
			if err := writePage(out, page, 0, prefs.Flag(), false); err != nil {
				return fmt.Errorf("writing page: %w", err)
			}
			log.Info("page written", "source", src.Name(), "sections", len(page.TOC))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file, - for stdout")
	return cmd
}
