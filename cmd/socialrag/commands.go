package main

import (
	"encoding/json"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"socialrag/internal/chunker"
	"socialrag/internal/domain"
	"socialrag/internal/tui"
)

func newIndexCmd(a *app) *cobra.Command {
	var dump bool
	cmd := &cobra.Command{
		Use:   "index [dataset files...]",
		Short: "Build every chunk level and report counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := a.ingest(cmd.Context(), args)
			if err != nil {
				return err
			}
			chunks := a.svc.Chunks()
			out := cmd.OutOrStdout()
			if dump {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(chunks)
			}
			counts := chunker.CountByLevel(chunks)
			ds := a.svc.Dataset()
			platforms := make([]string, 0, len(ds.Platforms()))
			for _, p := range ds.Platforms() {
				platforms = append(platforms, p.String())
			}
			fmt.Fprintf(out, "Indexed %d records from %s into %d chunks:\n", ds.Len(), strings.Join(platforms, ", "), len(chunks))
			for level := domain.LevelPost; level <= domain.LevelStrategic; level++ {
				fmt.Fprintf(out, "  L%d %-26s %d\n", level, domain.LevelName(level), counts[level])
			}
			if health := a.svc.SentimentHealth(); len(health) > 0 {
				fmt.Fprintln(out, "Audience sentiment health:")
				for _, h := range health {
					fmt.Fprintf(out, "  %-10s %6.2f  (%d comments)\n", h.Platform, h.HealthScore, h.TotalComments)
				}
			}
			if summary != "" {
				fmt.Fprintf(out, "\n%s\n", summary)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&dump, "dump", false, "print all chunks as JSON instead of counts")
	return cmd
}

func newQueryCmd(a *app) *cobra.Command {
	var (
		k        int
		paths    []string
		jsonMode bool
	)
	cmd := &cobra.Command{
		Use:   "query <question>",
		Short: "Build the index and answer one query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.ingest(cmd.Context(), paths); err != nil {
				return err
			}
			res, err := a.svc.Retrieve(cmd.Context(), strings.Join(args, " "), k)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if jsonMode {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			if len(res) == 0 {
				fmt.Fprintln(out, "No results.")
				return nil
			}
			for i, r := range res {
				fmt.Fprintf(out, "%2d. [L%d %s] %s  score=%.3f\n    %s\n",
					i+1, r.Level(), domain.LevelName(r.Level()), r.Document.ID, r.Score, r.Document.Text)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&k, "k", 0, "similarity search fan-out (default retrieval.top_k)")
	cmd.Flags().StringSliceVar(&paths, "data", nil, "dataset files or globs (default dataset.paths)")
	cmd.Flags().BoolVar(&jsonMode, "json", false, "print results as JSON")
	return cmd
}

func newTUICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tui [dataset files...]",
		Short: "Explore the index interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := a.ingest(cmd.Context(), args)
			if err != nil {
				return err
			}
			m := tui.New(a.svc, summary, a.cfg.Retrieval.TopK)
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
}
