package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zhouzirui/agentdesk/backend/internal/app"
)

func (c *cli) newAskCmd() *cobra.Command {
	var (
		docPath   string
		showRoute bool
	)

	cmd := &cobra.Command{
		Use:   "ask <query...>",
		Short: "Route one query and print the response",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			application, err := app.New(ctx, c.cfg)
			if err != nil {
				return err
			}
			defer application.Close()

			if docPath != "" {
				f, err := os.Open(docPath)
				if err != nil {
					return err
				}
				status, err := application.Documents.Ingest(ctx, docPath, f)
				f.Close()
				if err != nil {
					return fmt.Errorf("ingest %s: %w", docPath, err)
				}
				fmt.Fprintln(cmd.ErrOrStderr(), status)
			}

			s, err := application.Engine.Dispatch(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}

			if showRoute {
				fmt.Fprintf(c.out, "[%s -> %s]\n", s.Category, s.Worker)
			}
			fmt.Fprintln(c.out, s.Response)
			return nil
		},
	}

	cmd.Flags().StringVar(&docPath, "doc", "", "Ingest this document before asking")
	cmd.Flags().BoolVar(&showRoute, "route", false, "Print the category and worker that answered")
	return cmd
}
