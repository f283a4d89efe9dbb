package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/marks/internal/domain"
	"github.com/MrSnakeDoc/marks/internal/utils"
)

func newProjectsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"p"},
		Short:   "Manage projects",
	}
	cmd.AddCommand(
		newProjectsListCmd(e),
		newProjectsCreateCmd(e),
		newProjectsShowCmd(e),
		newProjectsRmCmd(e),
		newProjectsLinkCmd(e),
		newProjectsUnlinkCmd(e),
		newProjectsNoteCmd(e),
		newProjectsTaskCmd(e),
		newProjectsToggleCmd(e),
		newProjectsDuplicateCmd(e),
		newProjectsArchiveCmd(e, true),
		newProjectsArchiveCmd(e, false),
		newProjectsStatsCmd(e),
		newProjectsExportCmd(e),
		newProjectsImportCmd(e),
	)
	return cmd
}

func newProjectsListCmd(e *env) *cobra.Command {
	var (
		query  string
		status string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List projects",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := e.library(cmd.Context())
			if err != nil {
				return err
			}
			ps := domain.ProjectsByStatus(lib.Projects.All(), domain.ProjectStatus(strings.ToLower(status)))
			ps = domain.SearchProjects(ps, query)
			if asJSON {
				return printJSON(out(cmd), ps)
			}
			return printProjects(out(cmd), ps)
		},
	}
	cmd.Flags().StringVarP(&query, "query", "q", "", "substring matched against name, description, notes and tasks")
	cmd.Flags().StringVar(&status, "status", string(domain.ProjectStatusAll), "all, active, archived, completed or in-progress")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newProjectsCreateCmd(e *env) *cobra.Command {
	var in domain.ProjectInput
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an empty project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := e.library(cmd.Context())
			if err != nil {
				return err
			}
			id, err := lib.Projects.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintln(out(cmd), id)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.Name, "name", "", "project name")
	cmd.Flags().StringVar(&in.Description, "description", "", "description")
	cmd.Flags().StringVar(&in.Color, "color", "", "display color (default "+domain.DefaultProjectColor+")")
	return cmd
}

func newProjectsShowCmd(e *env) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a project with its bookmarks, notes and tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := e.library(cmd.Context())
			if err != nil {
				return err
			}
			p, err := lib.Projects.Get(args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(out(cmd), p)
			}
			bs, err := lib.ProjectBookmarks(p.ID)
			if err != nil {
				return err
			}
			return printProject(out(cmd), p, bs)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newProjectsRmCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a project; its bookmarks are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := e.library(cmd.Context())
			if err != nil {
				return err
			}
			return lib.Projects.Delete(cmd.Context(), args[0])
		},
	}
}

func newProjectsLinkCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "link <project-id> <bookmark-id>...",
		Short: "Add existing bookmarks to a project",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := e.library(cmd.Context())
			if err != nil {
				return err
			}
			return lib.LinkBookmarks(cmd.Context(), args[0], args[1:]...)
		},
	}
}

func newProjectsUnlinkCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "unlink <project-id> <bookmark-id>",
		Short: "Remove a bookmark from a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := e.library(cmd.Context())
			if err != nil {
				return err
			}
			return lib.Projects.RemoveBookmarkRef(cmd.Context(), args[0], args[1])
		},
	}
}

func newProjectsNoteCmd(e *env) *cobra.Command {
	var (
		edit   string
		remove string
	)
	cmd := &cobra.Command{
		Use:   "note <project-id> [content]",
		Short: "Add, edit (--edit) or delete (--rm) a note",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := e.library(cmd.Context())
			if err != nil {
				return err
			}
			ctx, pid := cmd.Context(), args[0]
			content := ""
			if len(args) == 2 {
				content = args[1]
			}

			switch {
			case remove != "":
				return lib.Projects.DeleteNote(ctx, pid, remove)
			case edit != "":
				return lib.Projects.UpdateNote(ctx, pid, edit, content)
			default:
				id, err := lib.Projects.AddNote(ctx, pid, content)
				if err != nil {
					return err
				}
				fmt.Fprintln(out(cmd), id)
				return nil
			}
		},
	}
	cmd.Flags().StringVar(&edit, "edit", "", "id of the note to replace")
	cmd.Flags().StringVar(&remove, "rm", "", "id of the note to delete")
	cmd.MarkFlagsMutuallyExclusive("edit", "rm")
	return cmd
}

func newProjectsTaskCmd(e *env) *cobra.Command {
	var (
		edit   string
		remove string
	)
	cmd := &cobra.Command{
		Use:   "task <project-id> [title]",
		Short: "Add, rename (--edit) or delete (--rm) a task",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := e.library(cmd.Context())
			if err != nil {
				return err
			}
			ctx, pid := cmd.Context(), args[0]
			title := ""
			if len(args) == 2 {
				title = args[1]
			}

			switch {
			case remove != "":
				return lib.Projects.DeleteTask(ctx, pid, remove)
			case edit != "":
				return lib.Projects.UpdateTask(ctx, pid, edit, domain.TaskPatch{Title: &title})
			default:
				id, err := lib.Projects.AddTask(ctx, pid, title)
				if err != nil {
					return err
				}
				fmt.Fprintln(out(cmd), id)
				return nil
			}
		},
	}
	cmd.Flags().StringVar(&edit, "edit", "", "id of the task to rename")
	cmd.Flags().StringVar(&remove, "rm", "", "id of the task to delete")
	cmd.MarkFlagsMutuallyExclusive("edit", "rm")
	return cmd
}

func newProjectsToggleCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <project-id> <task-id>",
		Short: "Flip the completed flag of a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := e.library(cmd.Context())
			if err != nil {
				return err
			}
			return lib.Projects.ToggleTask(cmd.Context(), args[0], args[1])
		},
	}
}

func newProjectsDuplicateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "duplicate <id>",
		Short: "Copy a project with fresh note and task ids",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := e.library(cmd.Context())
			if err != nil {
				return err
			}
			id, err := lib.Projects.Duplicate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(out(cmd), id)
			return nil
		},
	}
}

func newProjectsArchiveCmd(e *env, archive bool) *cobra.Command {
	use, short := "archive <id>", "Archive a project"
	if !archive {
		use, short = "unarchive <id>", "Restore an archived project"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := e.library(cmd.Context())
			if err != nil {
				return err
			}
			if archive {
				return lib.Projects.Archive(cmd.Context(), args[0])
			}
			return lib.Projects.Unarchive(cmd.Context(), args[0])
		},
	}
}

func newProjectsStatsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <id>",
		Short: "Print bookmark, note and task counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := e.library(cmd.Context())
			if err != nil {
				return err
			}
			s, err := lib.Projects.Stats(args[0])
			if err != nil {
				return err
			}
			return printJSON(out(cmd), s)
		},
	}
}

func newProjectsExportCmd(e *env) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Write a project to <name>_project.json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := e.library(cmd.Context())
			if err != nil {
				return err
			}
			id := args[0]
			if output == "-" {
				return lib.Projects.Export(id, out(cmd))
			}
			if output == "" {
				if output, err = lib.Projects.ExportFilename(id); err != nil {
					return err
				}
			}

			f, err := os.Create(output)
			if err != nil {
				return err
			}
			if err := lib.Projects.Export(id, f); err != nil {
				utils.CloseLogged(f, e.logger(), output)
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintln(out(cmd), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", `output file, "-" for stdout (default: <name>_project.json)`)
	return cmd
}

func newProjectsImportCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a project file as a new project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer utils.CloseLogged(f, e.logger(), args[0])

			lib, err := e.library(cmd.Context())
			if err != nil {
				return err
			}
			id, err := lib.Projects.Import(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Fprintln(out(cmd), id)
			return nil
		},
	}
}
