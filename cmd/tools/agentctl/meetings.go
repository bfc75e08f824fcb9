package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zhouzirui/agentdesk/backend/internal/model/meeting"
	meetingService "github.com/zhouzirui/agentdesk/backend/internal/service/meeting"
)

func (c *cli) newMeetingsCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "meetings",
		Short: "Manage meeting records",
	}
	cmd.PersistentFlags().StringVarP(&format, "format", "f", "text", "Output format: text, json, yaml")

	withStore := func(ctx context.Context, fn func(*meetingService.SQLiteStore) error) error {
		switch format {
		case "text", "json", "yaml":
		default:
			return fmt.Errorf("unsupported format %q (use text, json or yaml)", format)
		}

		db, err := meetingService.OpenDatabase(ctx, c.cfg.Database.Path)
		if err != nil {
			return err
		}
		defer db.Close()

		store, err := meetingService.NewSQLiteStore(ctx, db)
		if err != nil {
			return err
		}
		return fn(store)
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List all meetings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(s *meetingService.SQLiteStore) error {
				meetings, err := s.List(cmd.Context())
				if err != nil {
					return err
				}
				return c.printMeetings(format, meetings)
			})
		},
	}

	var title, start, description string
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a meeting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(s *meetingService.SQLiteStore) error {
				m, err := s.Create(cmd.Context(), title, start, description)
				if err != nil {
					return err
				}
				return c.printMeetings(format, []meeting.Meeting{m})
			})
		},
	}
	add.Flags().StringVar(&title, "title", "", "Meeting title")
	add.Flags().StringVar(&start, "start", "", "Start time, YYYY-MM-DD HH:MM")
	add.Flags().StringVar(&description, "description", "", "Optional description")
	_ = add.MarkFlagRequired("title")
	_ = add.MarkFlagRequired("start")

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a meeting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid meeting id %q", args[0])
			}
			return withStore(cmd.Context(), func(s *meetingService.SQLiteStore) error {
				ok, err := s.Delete(cmd.Context(), id)
				if err != nil {
					return err
				}
				if !ok {
					return meeting.ErrNotFound
				}
				fmt.Fprintf(c.out, "Meeting %d deleted.\n", id)
				return nil
			})
		},
	}

	search := &cobra.Command{
		Use:   "search <text>",
		Short: "Search meetings by title or description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(s *meetingService.SQLiteStore) error {
				meetings, err := s.Search(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return c.printMeetings(format, meetings)
			})
		},
	}

	count := &cobra.Command{
		Use:   "count",
		Short: "Count meetings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(s *meetingService.SQLiteStore) error {
				n, err := s.Count(cmd.Context())
				if err != nil {
					return err
				}
				return c.print(format, map[string]int{"count": n}, fmt.Sprintf("%d\n", n))
			})
		},
	}

	cmd.AddCommand(list, add, del, search, count)
	return cmd
}

func (c *cli) printMeetings(format string, meetings []meeting.Meeting) error {
	return c.print(format, meetings, meetingService.FormatList(meetings))
}

func (c *cli) print(format string, v any, text string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(c.out)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(c.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		if !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		_, err := fmt.Fprint(c.out, text)
		return err
	}
}
