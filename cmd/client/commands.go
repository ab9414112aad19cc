package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/atinyakov/todo-app-pro/internal/client"
	"github.com/atinyakov/todo-app-pro/internal/models"
)

func (a *app) registerCmd() *cobra.Command {
	var email, password, name string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.enter(client.RegisterPath); err != nil {
				return err
			}
			var namePtr *string
			if cmd.Flags().Changed("name") {
				namePtr = &name
			}
			res, err := a.api.Register(cmd.Context(), email, password, namePtr)
			if err != nil {
				return err
			}
			a.router.Navigate(client.ProjectsPath)
			return a.print(res.User)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (a *app) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.enter(client.LoginPath); err != nil {
				return err
			}
			res, err := a.api.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			a.router.Navigate(client.ProjectsPath)
			return a.print(res.User)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (a *app) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.api.Logout()
		},
	}
}

func (a *app) healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the API is up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.api.Health(cmd.Context()); err != nil {
				return err
			}
			return a.print(map[string]bool{"ok": true})
		},
	}
}

func (a *app) projectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List and create projects",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List your projects, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.enter(client.ProjectsPath); err != nil {
				return err
			}
			projects, err := a.api.ListProjects(cmd.Context())
			if err != nil {
				return err
			}
			return a.print(projects)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "create <name>",
		Short: "Create a project",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.enter(client.ProjectsPath); err != nil {
				return err
			}
			project, err := a.api.CreateProject(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return a.print(project)
		},
	})
	return cmd
}

func (a *app) todosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "todos",
		Short: "Manage the todos of a project",
	}
	cmd.AddCommand(a.todosListCmd(), a.todosCreateCmd(), a.todosUpdateCmd(), a.todosDeleteCmd())
	return cmd
}

func (a *app) todosListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <projectId>",
		Short: "List the todos of a project, most urgent first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.enter(client.ProjectsPath + "/" + args[0]); err != nil {
				return err
			}
			todos, err := a.api.ListTodos(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.print(todos)
		},
	}
}

func (a *app) todosCreateCmd() *cobra.Command {
	var (
		description string
		priority    int
	)
	cmd := &cobra.Command{
		Use:   "create <projectId> <title>",
		Short: "Add a todo to a project",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.enter(client.ProjectsPath + "/" + args[0]); err != nil {
				return err
			}
			in := client.TodoInput{Title: strings.Join(args[1:], " ")}
			if cmd.Flags().Changed("description") {
				in.Description = &description
			}
			if cmd.Flags().Changed("priority") {
				in.Priority = &priority
			}
			todo, err := a.api.CreateTodo(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			return a.print(todo)
		},
	}
	cmd.Flags().StringVar(&description, "description", "", "Todo description")
	cmd.Flags().IntVar(&priority, "priority", models.DefaultPriority, "Priority, lower is more urgent")
	return cmd
}

func (a *app) todosUpdateCmd() *cobra.Command {
	var (
		title, description, status, due string
		priority                        int
		clearDescription                bool
	)
	cmd := &cobra.Command{
		Use:   "update <todoId>",
		Short: "Change fields of a todo",
		Long: `Change fields of a todo. Only the flags given are sent.

Setting --status DONE stamps the completion time; any other status clears it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.enter(client.ProjectsPath); err != nil {
				return err
			}
			var changes client.TodoChanges
			flags := cmd.Flags()
			if flags.Changed("title") {
				changes.Title = &title
			}
			if flags.Changed("description") {
				changes.Description = &description
			}
			changes.ClearDescription = clearDescription
			if flags.Changed("status") {
				s := models.TodoStatus(strings.ToUpper(status))
				changes.Status = &s
			}
			if flags.Changed("priority") {
				changes.Priority = &priority
			}
			if flags.Changed("due") {
				changes.DueDate = &due
			}
			todo, err := a.api.UpdateTodo(cmd.Context(), args[0], changes)
			if err != nil {
				return err
			}
			return a.print(todo)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().BoolVar(&clearDescription, "clear-description", false, "Remove the description")
	cmd.MarkFlagsMutuallyExclusive("description", "clear-description")
	cmd.Flags().StringVar(&status, "status", "", "OPEN, IN_PROGRESS or DONE")
	cmd.Flags().IntVar(&priority, "priority", 0, "New priority")
	cmd.Flags().StringVar(&due, "due", "", "Due date, RFC 3339 or YYYY-MM-DD")
	return cmd
}

func (a *app) todosDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <todoId>",
		Short: "Delete a todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.enter(client.ProjectsPath); err != nil {
				return err
			}
			if err := a.api.DeleteTodo(cmd.Context(), args[0]); err != nil {
				return err
			}
			return a.print(map[string]bool{"ok": true})
		},
	}
}
