package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"igreport/internal/config"
	"igreport/internal/store"
)

func newOrderCommand(ctx *commandContext) *cobra.Command {
	orderCmd := &cobra.Command{
		Use:   "order",
		Short: "Manage the ordered list of expected usernames",
	}
	orderCmd.AddCommand(newOrderSetCommand(ctx))
	orderCmd.AddCommand(newOrderShowCommand(ctx))
	return orderCmd
}

func newOrderSetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "set <names...>",
		Short: "Replace the order list (names separated by spaces, commas, or newlines)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := ctx.actor()
			if err != nil {
				return err
			}
			names := store.ParseOrder(strings.Join(args, "\n"))
			if len(names) == 0 {
				return errors.New("no usernames given")
			}
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				if err := st.SetOrder(cmd.Context(), actor, names); err != nil {
					return fmt.Errorf("set order: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Order set with %d name(s)\n", len(names))
				return nil
			})
		},
	}
}

func newOrderShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the order list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := ctx.actor()
			if err != nil {
				return err
			}
			return ctx.withStore(func(_ *config.Config, st *store.Store) error {
				names, err := st.GetOrder(cmd.Context(), actor)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(names) == 0 {
					fmt.Fprintln(out, "No order set. Use `igreport order set`.")
					return nil
				}
				rows := make([][]string, 0, len(names))
				for i, name := range names {
					rows = append(rows, []string{strconv.Itoa(i + 1), name})
				}
				fmt.Fprintln(out, renderTable([]string{"#", "Username"}, rows, []columnAlignment{alignRight, alignLeft}))
				return nil
			})
		},
	}
}
