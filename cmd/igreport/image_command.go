package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"igreport/internal/config"
	"igreport/internal/imagestore"
	"igreport/internal/store"
)

func newImageCommand(ctx *commandContext) *cobra.Command {
	var pathOnly bool

	cmd := &cobra.Command{
		Use:   "image [item-id]",
		Short: "Write the archived screenshot of an item to stdout",
		Long: "Write the archived screenshot of the latest item, or of the given item\n" +
			"in the open session. On a terminal, or with --path, only the file path is printed.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			actor, err := ctx.actor()
			if err != nil {
				return err
			}
			var id int64
			if len(args) == 1 {
				id, err = strconv.ParseInt(args[0], 10, 64)
				if err != nil || id <= 0 {
					return fmt.Errorf("invalid item id %q", args[0])
				}
			}
			return ctx.withStore(func(cfg *config.Config, st *store.Store) error {
				session, err := st.OpenSession(cmd.Context(), actor)
				if err != nil {
					return noOpenSessionHint(err)
				}
				var item *store.Item
				if id > 0 {
					item, err = st.GetItem(cmd.Context(), id)
				} else {
					item, err = st.LatestItem(cmd.Context(), session.ID)
				}
				if err != nil {
					return err
				}
				if item == nil || item.SessionID != session.ID {
					return fmt.Errorf("no such item in session %d", session.ID)
				}

				images, err := imagestore.New(cfg.Paths.ImageDir)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if pathOnly || shouldColorize(out) {
					path, err := images.Path(item.ImageRef)
					if err != nil {
						return err
					}
					fmt.Fprintln(out, path)
					return nil
				}
				data, err := images.Read(item.ImageRef)
				if err != nil {
					return err
				}
				_, err = out.Write(data)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&pathOnly, "path", false, "Print the archive path instead of the image bytes")
	return cmd
}
