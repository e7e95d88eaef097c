package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/AnshRaj112/ediary-backend/internal/diary"
	"github.com/AnshRaj112/ediary-backend/pkg/utils"
)

const dateTimeLayout = "2006-01-02 15:04"

func (c *cli) addCmd() *cobra.Command {
	var d diary.Draft
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Write a new entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.user(); err != nil {
				return err
			}
			var err error
			if !cmd.Flags().Changed("title") {
				if d.Title, err = c.promptLine(cmd, "Title"); err != nil {
					return err
				}
			}
			if !cmd.Flags().Changed("content") {
				if d.Content, err = c.promptMultiline(cmd, "Content"); err != nil {
					return err
				}
			}

			e, err := c.entries.Add(cmd.Context(), d)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %q (%s) as %s.\n", e.Title, e.Mood.Meta().Label, e.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&d.Mood, "mood", "m", "", "sad, angry, calm, happy or love (default calm)")
	f.StringVarP(&d.Title, "title", "t", "", "entry title")
	f.StringVarP(&d.Content, "content", "c", "", "entry text")
	f.StringVar(&d.ImageURI, "image", "", "image URL")
	return cmd
}

func (c *cli) listCmd() *cobra.Command {
	var query string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.user(); err != nil {
				return err
			}
			loc, err := c.location()
			if err != nil {
				return err
			}
			list := c.entries.Search(query)
			if len(list) == 0 {
				if query != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "No entries match %q.\n", query)
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "No entries yet. Write one with 'ediary add'.")
				}
				return nil
			}
			return printEntries(cmd.OutOrStdout(), list, loc, false)
		},
	}
	cmd.Flags().StringVarP(&query, "search", "s", "", "only entries whose title or content contains this text")
	return cmd
}

func (c *cli) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.user(); err != nil {
				return err
			}
			loc, err := c.location()
			if err != nil {
				return err
			}
			e, err := c.entries.Get(args[0])
			if err != nil {
				return err
			}
			printEntry(cmd.OutOrStdout(), e, loc)
			return nil
		},
	}
}

func (c *cli) editCmd() *cobra.Command {
	var mood, title, content, image string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.user(); err != nil {
				return err
			}
			var p diary.Patch
			if cmd.Flags().Changed("mood") {
				p.Mood = &mood
			}
			if cmd.Flags().Changed("title") {
				p.Title = &title
			}
			if cmd.Flags().Changed("content") {
				p.Content = &content
			}
			if cmd.Flags().Changed("image") {
				p.ImageURI = &image
			}
			if p.Empty() {
				return utils.NewValidationError("", "Nothing to update")
			}

			e, err := c.entries.Update(cmd.Context(), args[0], p)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %q.\n", e.Title)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&mood, "mood", "m", "", "new mood")
	f.StringVarP(&title, "title", "t", "", "new title")
	f.StringVarP(&content, "content", "c", "", "new text")
	f.StringVar(&image, "image", "", "new image URL, empty to remove")
	return cmd
}

func (c *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Move an entry to the trash",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.user(); err != nil {
				return err
			}
			e, err := c.entries.SoftDelete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved %q to the trash.\n", e.Title)
			return nil
		},
	}
}

func (c *cli) trashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trash",
		Short: "List trashed entries, most recently deleted first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.user(); err != nil {
				return err
			}
			loc, err := c.location()
			if err != nil {
				return err
			}
			list := c.entries.Trash()
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Trash is empty.")
				return nil
			}
			return printEntries(cmd.OutOrStdout(), list, loc, true)
		},
	}
}

func (c *cli) recoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "recover <id>",
		Aliases: []string{"restore"},
		Short:   "Bring an entry back from the trash",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.user(); err != nil {
				return err
			}
			e, err := c.entries.Recover(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Restored %q.\n", e.Title)
			return nil
		},
	}
}

func (c *cli) purgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge <id>",
		Short: "Delete a trashed entry permanently",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.user(); err != nil {
				return err
			}
			if err := c.entries.PermanentlyDelete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Entry deleted permanently.")
			return nil
		},
	}
}

func (c *cli) emptyTrashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "empty-trash",
		Short: "Delete every trashed entry permanently",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := c.user(); err != nil {
				return err
			}
			n, err := c.entries.EmptyTrash(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d %s from the trash.\n", n, plural(n, "entry", "entries"))
			return nil
		},
	}
}

func printEntries(w io.Writer, list []diary.Entry, loc *time.Location, trashed bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if trashed {
		fmt.Fprintln(tw, "ID\tDELETED\tMOOD\tTITLE")
	} else {
		fmt.Fprintln(tw, "ID\tWRITTEN\tMOOD\tTITLE")
	}
	for _, e := range list {
		at := e.CreatedAt
		if trashed && e.TrashedAt != nil {
			at = *e.TrashedAt
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ID, at.In(loc).Format(dateTimeLayout), e.Mood.Meta().Label, e.Title)
	}
	return tw.Flush()
}

func printEntry(w io.Writer, e diary.Entry, loc *time.Location) {
	fmt.Fprintf(w, "%s\n", e.Title)
	fmt.Fprintf(w, "%s · %s\n", e.Mood.Meta().Label, e.CreatedAt.In(loc).Format(dateTimeLayout))
	if e.TrashedAt != nil {
		fmt.Fprintf(w, "In trash since %s\n", e.TrashedAt.In(loc).Format(dateTimeLayout))
	}
	fmt.Fprintf(w, "\n%s\n", e.Content)
	if e.ImageURI != "" {
		fmt.Fprintf(w, "\nImage: %s\n", e.ImageURI)
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
