package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"igreport/internal/config"
	"igreport/internal/imagestore"
	"igreport/internal/ingest"
	"igreport/internal/normalize"
	"igreport/internal/store"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Summarize the open session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := ctx.actor()
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				report, err := ingest.BuildReport(cmd.Context(), st, actor)
				if err != nil {
					return noOpenSessionHint(err)
				}
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				for _, line := range renderSectionHeader("Session", colorize) {
					fmt.Fprintln(out, line)
				}
				session := report.Session
				fmt.Fprintln(out, renderStatusLine("Actor", statusInfo, actor, colorize))
				fmt.Fprintln(out, renderStatusLine("Session", statusInfo,
					fmt.Sprintf("#%d for %s, opened %s", session.ID, session.DateStr, humanize.Time(session.CreatedAt)), colorize))
				fmt.Fprintln(out, renderStatusLine("Items", statusInfo, strconv.Itoa(report.Items), colorize))

				captured := len(report.Positions) - len(report.Missing)
				switch {
				case len(report.Order) == 0:
					fmt.Fprintln(out, renderStatusLine("Order", statusWarn, "no order set", colorize))
				case len(report.Missing) == 0:
					fmt.Fprintln(out, renderStatusLine("Order", statusOK,
						fmt.Sprintf("%d/%d captured", captured, len(report.Order)), colorize))
				default:
					fmt.Fprintln(out, renderStatusLine("Order", statusWarn,
						fmt.Sprintf("%d/%d captured, missing %s", captured, len(report.Order), strings.Join(report.Missing, ", ")), colorize))
				}
				if total, counted := capturedFollowers(report); counted > 0 {
					fmt.Fprintln(out, renderStatusLine("Followers", statusInfo,
						fmt.Sprintf("%s across %d account(s)", normalize.FormatCount(total), counted), colorize))
				}
				pendingKind := statusOK
				if len(report.Pending) > 0 {
					pendingKind = statusWarn
				}
				fmt.Fprintln(out, renderStatusLine("Pending", pendingKind, strconv.Itoa(len(report.Pending)), colorize))
				return nil
			})
		},
	}
}

func newReviewCommand(ctx *commandContext) *cobra.Command {
	var captions bool

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Show captured positions and caption previews",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := ctx.actor()
			if err != nil {
				return err
			}
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				report, err := ingest.BuildReport(cmd.Context(), st, actor)
				if err != nil {
					return noOpenSessionHint(err)
				}
				out := cmd.OutOrStdout()
				if captions {
					for _, pos := range report.Positions {
						if pos.Captured() {
							fmt.Fprintf(out, "%s\n\n", report.Caption(pos))
						}
					}
					return nil
				}

				if len(report.Positions) > 0 {
					rows := make([][]string, 0, len(report.Positions))
					for _, pos := range report.Positions {
						rows = append(rows, positionRow(report, pos))
					}
					fmt.Fprintln(out, renderTable(
						[]string{"#", "Expected", "Followers", "Source", "Preview"},
						rows,
						[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft},
					))
				} else {
					fmt.Fprintln(out, "No order set. Use `igreport order set`.")
				}

				if len(report.Missing) > 0 {
					fmt.Fprintf(out, "Missing: %s\n", strings.Join(report.Missing, ", "))
				}
				if len(report.Pending) > 0 {
					fmt.Fprintln(out, "Pending items:")
					rows := make([][]string, 0, len(report.Pending))
					for _, item := range report.Pending {
						rows = append(rows, []string{
							strconv.FormatInt(item.ID, 10),
							displayOrDash(item.Identity),
							displayOrDash(item.Followers()),
							displayOrDash(item.Outcome),
							displayOrDash(item.Failure),
						})
					}
					fmt.Fprintln(out, renderTable(
						[]string{"ID", "Username", "Followers", "Outcome", "Failure"},
						rows,
						[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft},
					))
				}
				if attention := itemsToCheck(report); len(attention) > 0 {
					images, err := imagestore.New(cfg.Paths.ImageDir)
					if err != nil {
						return err
					}
					fmt.Fprintln(out, "Images to check:")
					for _, item := range attention {
						path, err := images.Path(item.ImageRef)
						if err != nil {
							path = "unavailable"
						}
						fmt.Fprintf(out, "  %d  %s\n", item.ID, path)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&captions, "captions", false, "Print the full caption of every captured position")
	return cmd
}

// capturedFollowers sums the follower counts of captured positions and
// reports how many contributed.
func capturedFollowers(report *ingest.Report) (int64, int) {
	var total int64
	counted := 0
	for _, pos := range report.Positions {
		if !pos.Captured() {
			continue
		}
		if n, ok := normalize.ParseCount(pos.Item.Followers()); ok {
			total += n
			counted++
		}
	}
	return total, counted
}

// itemsToCheck returns pending items and captured items still missing a
// follower count.
func itemsToCheck(report *ingest.Report) []*store.Item {
	items := append([]*store.Item(nil), report.Pending...)
	for _, pos := range report.Positions {
		if pos.Captured() && pos.Item.Followers() == "" {
			items = append(items, pos.Item)
		}
	}
	return items
}

func positionRow(report *ingest.Report, pos ingest.Position) []string {
	if !pos.Captured() {
		return []string{strconv.Itoa(pos.Index), pos.Name, "-", "-", "missing"}
	}
	source := displayOrDash(pos.Item.Source)
	if pos.Item.Corrected {
		source += " (corrected)"
	}
	return []string{
		strconv.Itoa(pos.Index),
		pos.Name,
		displayOrDash(pos.Item.Followers()),
		source,
		report.Preview(pos),
	}
}
