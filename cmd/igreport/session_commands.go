package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"igreport/internal/caption"
	"igreport/internal/config"
	"igreport/internal/store"
)

func newSessionCommand(ctx *commandContext) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Start, end, or cancel the report session",
	}
	sessionCmd.AddCommand(newSessionStartCommand(ctx))
	sessionCmd.AddCommand(newSessionFinishCommand(ctx, "end", "Close the open session", store.SessionClosed))
	sessionCmd.AddCommand(newSessionFinishCommand(ctx, "cancel", "Cancel the open session (items are kept)", store.SessionCancelled))
	return sessionCmd
}

func newSessionStartCommand(ctx *commandContext) *cobra.Command {
	var dateFlag string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Open a new session for a report date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := ctx.actor()
			if err != nil {
				return err
			}
			dateStr, err := caption.ParseDate(dateFlag, time.Now())
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				session, err := st.StartSession(cmd.Context(), actor, dateStr)
				if err != nil {
					return fmt.Errorf("start session: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Session %d open for %s (%s)\n", session.ID, actor, session.DateStr)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&dateFlag, "date", "today", "Report date: today, DD/MM/YYYY, or YYYY-MM-DD")
	return cmd
}

func newSessionFinishCommand(ctx *commandContext, use, short string, status store.SessionStatus) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := ctx.actor()
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				var session *store.Session
				if status == store.SessionCancelled {
					session, err = st.CancelSession(cmd.Context(), actor)
				} else {
					session, err = st.EndSession(cmd.Context(), actor)
				}
				if err != nil {
					return noOpenSessionHint(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Session %d %s\n", session.ID, session.Status)
				return nil
			})
		},
	}
}
