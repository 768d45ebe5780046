// cmd/docsmith/history.go
package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/julianshen/docsmith/internal/store"
)

func historyCmd() *cobra.Command {
	var (
		limitFlag int
		pruneFlag time.Duration
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent generation runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			path, err := cfg.StorePath()
			if err != nil {
				return err
			}
			if path == "" {
				return errors.New("run history is disabled (store.disabled = true)")
			}
			s, err := store.NewStore(path)
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			if pruneFlag > 0 {
				n, err := s.PruneCache(time.Now().Add(-pruneFlag))
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "pruned %d cached AI response(s) older than %s\n", n, pruneFlag)
			}

			runs, err := s.ListRuns(limitFlag)
			if err != nil {
				return err
			}
			cached, err := s.CacheSize()
			if err != nil {
				return err
			}
			_, err = io.WriteString(out, renderHistory(runs, cached, isTerminal(out)))
			return err
		},
	}

	cmd.Flags().IntVar(&limitFlag, "limit", 20, "number of runs to show (0 for all)")
	cmd.Flags().DurationVar(&pruneFlag, "prune-cache", 0, "drop cached AI responses older than this age")
	return cmd
}

// renderHistory formats runs newest first as an aligned table.
func renderHistory(runs []store.Run, cached int, color bool) string {
	p := painter(color)
	var b strings.Builder
	if len(runs) == 0 {
		b.WriteString("no generation runs recorded\n")
	} else {
		fmt.Fprintf(&b, "%s\n", p.paint(headStyle, fmt.Sprintf("%-8s  %-16s  %-20s  %-10s  %5s  %8s  %s",
			"ID", "STARTED", "PROJECT", "FORMAT", "PAGES", "TIME", "STATUS")))
		for _, r := range runs {
			status := r.Status
			switch r.Status {
			case store.StatusSucceeded:
				if r.Warnings > 0 {
					status = p.paint(warnStyle, fmt.Sprintf("ok, %d warning(s)", r.Warnings))
				} else {
					status = p.paint(okStyle, "ok")
				}
			case store.StatusFailed:
				status = p.paint(failStyle, "failed: "+r.Error)
			}
			fmt.Fprintf(&b, "%-8s  %-16s  %-20s  %-10s  %5d  %8s  %s\n",
				shortID(r.ID),
				r.StartedAt.Local().Format("2006-01-02 15:04"),
				truncate(r.Project, 20),
				r.Format,
				r.Pages,
				r.Duration().Round(100*time.Millisecond),
				status)
		}
	}
	fmt.Fprintf(&b, "%d cached AI response(s)\n", cached)
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
