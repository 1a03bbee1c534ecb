package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"TipCurator/internal/app"
	"TipCurator/internal/domain"
	"TipCurator/internal/newsletter"
	"TipCurator/internal/usecase"
)

func newStatsCmd(a **app.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show subscriber counts and corpus totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			idx, err := (*a).Index()
			if err != nil {
				return err
			}
			printIndex(out, idx)

			stats, err := (*a).API().Stats(cmd.Context())
			if err != nil {
				fmt.Fprintf(out, "\nnewsletter stats unavailable: %v\n", err)
				return nil
			}
			fmt.Fprintf(out, "\nSubscribers: %d (confirmed %d, pending %d)\n",
				stats.TotalSubscribers, stats.ConfirmedSubscribers, stats.PendingSubscribers)
			fmt.Fprintf(out, "Issues sent: %d\n", stats.TotalIssues)
			return nil
		},
	}
}

func newTipsCmd(a **app.Application) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "tips",
		Short: "List corpus tips",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries, err := (*a).Repository().List(cmd.Context(), category)
			if err != nil {
				return err
			}
			printEntries(cmd.OutOrStdout(), entries)
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Only list tips of this category slug")
	return cmd
}

func newDraftCmd(a **app.Application) *cobra.Command {
	var (
		numbers string
		outPath string
	)
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Save the next issue as a JSON draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			issues := (*a).Newsletter()

			picked, err := parseNumbers(numbers)
			if err != nil {
				return err
			}

			var issue domain.Issue
			if len(picked) > 0 {
				issue, err = issues.CompileNumbers(cmd.Context(), picked)
			} else {
				issue, err = issues.Compile(cmd.Context())
			}
			if err != nil {
				return err
			}

			if outPath == "" {
				outPath = (*a).Config().Newsletter.DraftPath
			}
			if err := newsletter.SaveDraft(outPath, newsletter.NewDraft(issue, issues.Icon, time.Now())); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Draft for issue #%d saved to %s\n%s\n", issue.Number, outPath, issue.Subject)
			return nil
		},
	}
	cmd.Flags().StringVar(&numbers, "numbers", "", "Comma-separated tip numbers to include, in order")
	cmd.Flags().StringVar(&outPath, "out", "", "Draft file path (defaults to newsletter.draftPath)")
	return cmd
}

func newPreviewCmd(a **app.Application) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render the next issue to an HTML file without sending",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			issue, err := (*a).Newsletter().Compile(cmd.Context())
			if err != nil {
				return err
			}
			if outPath == "" {
				outPath = (*a).Config().Newsletter.PreviewPath
			}
			if err := newsletter.SavePreview(outPath, issue); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Preview of issue #%d written to %s\n", issue.Number, outPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "", "Preview file path (defaults to newsletter.previewPath)")
	return cmd
}

func newSendCmd(a **app.Application) *cobra.Command {
	var numbers string
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Create and send an issue built from hand-picked tips",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			picked, err := parseNumbers(numbers)
			if err != nil {
				return err
			}
			if len(picked) == 0 {
				return fmt.Errorf("no tips selected, pass --numbers")
			}

			issues := (*a).Newsletter()
			issue, err := issues.CompileNumbers(cmd.Context(), picked)
			if err != nil {
				return err
			}
			delivery, err := issues.PublishIssue(cmd.Context(), issue)
			if err != nil {
				return err
			}
			printDelivery(cmd.OutOrStdout(), delivery)
			return nil
		},
	}
	cmd.Flags().StringVar(&numbers, "numbers", "", "Comma-separated tip numbers to send, in order")
	return cmd
}

func newImportCmd(a **app.Application) *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Load existing category markdown files into the corpus store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := (*a).Import(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tip(s), skipped %d already stored\n", result.Imported, result.Skipped)
			return nil
		},
	}
}

func parseNumbers(raw string) ([]int, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out []int
	seen := map[int]struct{}{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(part), "#"))
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid tip number %q", part)
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out, nil
}

func printDelivery(w io.Writer, d usecase.Delivery) {
	if d.DryRun {
		fmt.Fprintf(w, "Dry run: issue #%d written to %s\n", d.Issue.Number, d.PreviewPath)
		return
	}
	fmt.Fprintf(w, "Issue #%d (%s) sent to %d subscriber(s)\n%s\n", d.Issue.Number, d.IssueID, d.Recipients, d.Issue.Subject)
}

func printIndex(w io.Writer, idx domain.Index) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tSLUG\tTIPS")
	for _, c := range idx.Categories {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", c.Name, c.Slug, c.Count)
	}
	fmt.Fprintf(tw, "Total\t\t%d\n", idx.TotalTips)
	_ = tw.Flush()
	if !idx.LastUpdated.IsZero() {
		fmt.Fprintf(w, "Last updated: %s\n", idx.LastUpdated.Format(time.RFC3339))
	}
}

func printEntries(w io.Writer, entries []domain.Entry) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tCATEGORY\tADDED\tTITLE\tSOURCE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.Number, e.Category, e.AddedAt.Format("2006-01-02"), e.Title, e.Source)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "%d tip(s)\n", len(entries))
}
