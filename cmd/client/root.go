package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/atinyakov/todo-app-pro/internal/client"
)

const defaultAPIURL = "http://localhost:3000"

// app is the state shared by all commands of one invocation.
type app struct {
	apiURL    string
	tokenFile string
	output    string

	session *client.Session
	router  *client.Router
	api     *client.Client
	out     io.Writer
}

func newRootCmd(getenv func(string) string) *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "todo",
		Short: "todo-app-pro command line client",
		Long: `todo is a command line client for the todo-app-pro API.

The access token is kept in a file (by default $HOME/.todo-pro/token) shared
by every invocation. Commands that need a session send you to "login" when
there is none or it has expired.

Examples:
  todo login --email me@example.com --password secret
  todo projects create "Home"
  todo todos create <projectId> "Buy milk" --priority 1
  todo todos update <todoId> --status DONE`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.apiURL, "url", envOr(getenv, "TODO_API_URL", defaultAPIURL), "API base URL (env TODO_API_URL)")
	root.PersistentFlags().StringVar(&a.tokenFile, "token-file", getenv("TODO_TOKEN_FILE"), "Session token file (default $HOME/.todo-pro/token)")
	root.PersistentFlags().StringVarP(&a.output, "output", "o", "json", "Output format: json|yaml")

	root.AddCommand(
		a.registerCmd(),
		a.loginCmd(),
		a.logoutCmd(),
		a.healthCmd(),
		a.projectsCmd(),
		a.todosCmd(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	if a.output != "json" && a.output != "yaml" {
		return fmt.Errorf("unknown output format %q", a.output)
	}

	path := a.tokenFile
	if path == "" {
		var err error
		if path, err = client.DefaultTokenPath(); err != nil {
			return err
		}
	}

	a.out = cmd.OutOrStdout()
	a.session = client.NewSession(path)
	a.router = client.NewRouter(a.session)

	stderr := cmd.ErrOrStderr()
	a.session.Subscribe(func(authed bool) {
		if authed {
			fmt.Fprintln(stderr, "signed in")
		} else {
			fmt.Fprintln(stderr, "signed out")
		}
	})

	api, err := client.New(a.apiURL, a.session, a.router, nil)
	if err != nil {
		return err
	}
	a.api = api
	return nil
}

// enter moves to the view at path and fails when the guards send the user
// elsewhere.
func (a *app) enter(path string) error {
	got := a.router.Navigate(path)
	switch {
	case got == path:
		return nil
	case got == client.LoginPath:
		return errors.New(`not signed in, run "todo login" first`)
	case got == client.ProjectsPath && (path == client.LoginPath || path == client.RegisterPath):
		return errors.New(`already signed in, run "todo logout" first`)
	}
	return fmt.Errorf("cannot open %s", path)
}

// print writes v in the selected output format.
func (a *app) print(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if a.output == "json" {
		_, err = fmt.Fprintln(a.out, string(b))
		return err
	}

	// go through JSON so YAML keys match the API field names
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		return err
	}
	y, err := yaml.Marshal(generic)
	if err != nil {
		return err
	}
	_, err = a.out.Write(y)
	return err
}

func envOr(getenv func(string) string, key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}
