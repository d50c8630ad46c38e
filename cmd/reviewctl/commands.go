package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/vytor/pylearn/internal/models"
	"github.com/vytor/pylearn/internal/scheduler"
)

func newLearnersCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "learners",
		Short: "List learners",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				learners, err := a.learners.ListLearners(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(learners) == 0 {
					fmt.Fprintln(out, "No learners found.")
					return nil
				}
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tUsername\tCreated")
				for _, l := range learners {
					fmt.Fprintf(w, "%d\t%s\t%s\n", l.ID, l.Username, l.CreatedAt.Format("2006-01-02"))
				}
				return w.Flush()
			})
		},
	}
}

func newExportCmd(opts *rootOptions) *cobra.Command {
	var learner, outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a learner's review data as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				l, err := a.learner(ctx, learner)
				if err != nil {
					return err
				}
				data, err := a.reviews.Export(ctx, l.ID)
				if err != nil {
					return err
				}
				if outPath == "" || outPath == "-" {
					_, err = fmt.Fprintln(cmd.OutOrStdout(), data)
					return err
				}
				if err := os.WriteFile(outPath, []byte(data+"\n"), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", outPath, err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "exported review data for %s to %s\n", l.Username, outPath)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&learner, "learner", "", "learner username")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	return cmd
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	var learner, inPath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace a learner's review data from JSON",
		Long: `Replaces every review item of the learner with the items in the file.
The learner is created when it does not exist yet. Malformed input leaves
the stored data untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if inPath != "" && inPath != "-" {
				f, err := os.Open(inPath)
				if err != nil {
					return fmt.Errorf("open %s: %w", inPath, err)
				}
				defer f.Close()
				r = f
			}
			data, err := io.ReadAll(r)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				if learner == "" {
					return fmt.Errorf("--learner is required")
				}
				l, err := a.learners.CreateLearner(ctx, learner)
				if err != nil {
					return err
				}
				n, err := a.reviews.Import(ctx, l.ID, string(data))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d items for %s\n", n, l.Username)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&learner, "learner", "", "learner username")
	cmd.Flags().StringVarP(&inPath, "file", "f", "", "input file (default stdin)")
	return cmd
}

func newDueCmd(opts *rootOptions) *cobra.Command {
	var learner string
	cmd := &cobra.Command{
		Use:   "due",
		Short: "Show concepts due for review, most urgent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				l, err := a.learner(ctx, learner)
				if err != nil {
					return err
				}
				items, err := a.reviews.DueItems(ctx, l.ID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(items) == 0 {
					fmt.Fprintln(out, "Nothing due. Come back tomorrow.")
					return nil
				}
				fmt.Fprintf(out, "%d concepts due:\n\n", len(items))
				return printItems(out, items)
			})
		},
	}
	cmd.Flags().StringVar(&learner, "learner", "", "learner username")
	return cmd
}

func newSessionCmd(opts *rootOptions) *cobra.Command {
	var (
		learner    string
		minutes    int
		weak       bool
		difficulty float64
	)
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Plan a review session that fits the available time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			prefs := models.SessionPreferences{FocusOnWeakAreas: weak}
			if cmd.Flags().Changed("difficulty") {
				prefs.PreferredDifficulty = &difficulty
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				l, err := a.learner(ctx, learner)
				if err != nil {
					return err
				}
				items, err := a.reviews.BuildSession(ctx, l.ID, minutes, prefs)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(items) == 0 {
					fmt.Fprintln(out, "No items fit this session.")
					return nil
				}
				fmt.Fprintf(out, "Session of %d items (~%d min):\n\n", len(items), len(items)*scheduler.MinutesPerItem)
				return printItems(out, items)
			})
		},
	}
	cmd.Flags().StringVar(&learner, "learner", "", "learner username")
	cmd.Flags().IntVarP(&minutes, "minutes", "m", 20, "available minutes")
	cmd.Flags().BoolVar(&weak, "weak", false, "focus on weak concepts")
	cmd.Flags().Float64Var(&difficulty, "difficulty", 0.5, "preferred difficulty (0-1)")
	return cmd
}

func newMetricsCmd(opts *rootOptions) *cobra.Command {
	var learner string
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Show learning metrics and recommendations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app) error {
				l, err := a.learner(ctx, learner)
				if err != nil {
					return err
				}
				snap, err := a.stats.GetMetrics(ctx, l.ID)
				if err != nil {
					return err
				}
				recs, err := a.stats.GetRecommendations(ctx, l.ID)
				if err != nil {
					return err
				}

				m := snap.Metrics
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Learning metrics for %s\n", l.Username)
				fmt.Fprintln(out, strings.Repeat("-", 32))
				fmt.Fprintf(out, "Concepts:          %d\n", m.TotalConcepts)
				fmt.Fprintf(out, "Mastered:          %d\n", m.ConceptsMastered)
				fmt.Fprintf(out, "Retention:         %d%%\n", m.RetentionRate)
				fmt.Fprintf(out, "Average interval:  %.1f days\n", m.AverageInterval)
				fmt.Fprintf(out, "Streak:            %d days\n", m.StreakDays)
				fmt.Fprintf(out, "Suggested review:  %d min/day\n", m.SuggestedReviewTime)
				if len(m.WeakConcepts) > 0 {
					fmt.Fprintf(out, "Weak:              %s\n", conceptNames(m.WeakConcepts))
				}
				if len(m.StrongConcepts) > 0 {
					fmt.Fprintf(out, "Strong:            %s\n", conceptNames(m.StrongConcepts))
				}
				if len(recs) > 0 {
					fmt.Fprintln(out, "\nRecommendations:")
					for _, r := range recs {
						fmt.Fprintf(out, "  - %s\n", r)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&learner, "learner", "", "learner username")
	return cmd
}

func printItems(out io.Writer, items []models.ReviewItem) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "Concept\tLesson\tDiff\tMastery\tNext Review")
	for _, it := range items {
		fmt.Fprintf(w, "%s\t%d\t%.1f\t%.0f\t%s\n",
			it.ConceptName, it.LessonID, it.Difficulty, it.ConceptMastery, it.NextReview.Format("2006-01-02"))
	}
	return w.Flush()
}

func conceptNames(items []models.ReviewItem) string {
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.ConceptName
	}
	return strings.Join(names, ", ")
}
