package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/atinyakov/todo-app-pro/internal/models"
)

const requestTimeout = 10 * time.Second

// ErrUnauthorized matches every 401 answer of the API.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx answer of the API.
type APIError struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Reason     string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// Is makes errors.Is(err, ErrUnauthorized) hold for 401 answers.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// NotFoundError is a successful answer carrying {"message": "..."} instead
// of the requested resource.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// User is the account returned by register and login.
type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	Name      *string    `json:"name"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// AuthResponse is the body of a successful register or login.
type AuthResponse struct {
	User        User   `json:"user"`
	AccessToken string `json:"accessToken"`
}

// TodoInput is the body of a todo creation.
type TodoInput struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Priority    *int    `json:"priority,omitempty"`
}

// TodoChanges is a partial todo update. Nil fields are not sent.
// ClearDescription sends "description": null and overrides Description.
// DueDate is RFC 3339 or YYYY-MM-DD.
type TodoChanges struct {
	Title            *string
	Description      *string
	ClearDescription bool
	Status           *models.TodoStatus
	Priority         *int
	DueDate          *string
}

// MarshalJSON writes only the fields that change.
func (c TodoChanges) MarshalJSON() ([]byte, error) {
	body := map[string]any{}
	if c.Title != nil {
		body["title"] = *c.Title
	}
	switch {
	case c.ClearDescription:
		body["description"] = nil
	case c.Description != nil:
		body["description"] = *c.Description
	}
	if c.Status != nil {
		body["status"] = *c.Status
	}
	if c.Priority != nil {
		body["priority"] = *c.Priority
	}
	if c.DueDate != nil {
		body["dueDate"] = *c.DueDate
	}
	return json.Marshal(body)
}

// Client calls the todo API on behalf of the session owner.
type Client struct {
	baseURL *url.URL
	session *Session
	http    *http.Client
}

// New returns a client for the API at baseURL. Requests go through an
// AuthTransport over base (http.DefaultTransport when nil) so that a 401
// signs the session out and moves nav to the login view.
func New(baseURL string, session *Session, nav Navigator, base http.RoundTripper) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	return &Client{
		baseURL: u,
		session: session,
		http: &http.Client{
			Transport: &AuthTransport{Base: base, Tokens: session, Navigator: nav},
			Timeout:   requestTimeout,
		},
	}, nil
}

// Register creates an account and signs the session in.
func (c *Client) Register(ctx context.Context, email, password string, name *string) (*AuthResponse, error) {
	body := map[string]any{"email": email, "password": password}
	if name != nil {
		body["name"] = *name
	}
	return c.authenticate(ctx, "/auth/register", body)
}

// Login signs the session in.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	return c.authenticate(ctx, "/auth/login", map[string]any{"email": email, "password": password})
}

// Logout signs the session out. Tokens are stateless, so the server is not called.
func (c *Client) Logout() error {
	return c.session.ClearToken()
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (*AuthResponse, error) {
	var res AuthResponse
	if err := c.do(ctx, http.MethodPost, path, body, &res); err != nil {
		return nil, err
	}
	if err := c.session.SetToken(res.AccessToken); err != nil {
		return nil, err
	}
	return &res, nil
}

// ListProjects returns the caller's projects, newest first.
func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	if err := c.do(ctx, http.MethodGet, "/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// CreateProject creates a project owned by the caller.
func (c *Client) CreateProject(ctx context.Context, name string) (*models.Project, error) {
	var project models.Project
	if err := c.do(ctx, http.MethodPost, "/projects", map[string]string{"name": name}, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// ListTodos returns the todos of a project, most urgent first.
func (c *Client) ListTodos(ctx context.Context, projectID string) ([]models.Todo, error) {
	var todos []models.Todo
	if err := c.do(ctx, http.MethodGet, "/projects/"+url.PathEscape(projectID)+"/todos", nil, &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

// CreateTodo adds a todo to a project.
func (c *Client) CreateTodo(ctx context.Context, projectID string, in TodoInput) (*models.Todo, error) {
	var todo models.Todo
	if err := c.do(ctx, http.MethodPost, "/projects/"+url.PathEscape(projectID)+"/todos", in, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// UpdateTodo applies changes to a todo.
func (c *Client) UpdateTodo(ctx context.Context, todoID string, changes TodoChanges) (*models.Todo, error) {
	var todo models.Todo
	if err := c.do(ctx, http.MethodPatch, "/todos/"+url.PathEscape(todoID), changes, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// DeleteTodo removes a todo.
func (c *Client) DeleteTodo(ctx context.Context, todoID string) error {
	var ok struct {
		OK bool `json:"ok"`
	}
	return c.do(ctx, http.MethodDelete, "/todos/"+url.PathEscape(todoID), nil, &ok)
}

// Health checks that the API is up.
func (c *Client) Health(ctx context.Context) error {
	var ok struct {
		OK bool `json:"ok"`
	}
	if err := c.do(ctx, http.MethodGet, "/health", nil, &ok); err != nil {
		return err
	}
	if !ok.OK {
		return errors.New("api is not healthy")
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if json.Unmarshal(raw, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(raw))
			if apiErr.Message == "" {
				apiErr.Message = http.StatusText(resp.StatusCode)
			}
		}
		apiErr.StatusCode = resp.StatusCode
		return apiErr
	}

	if msg, ok := softFailure(raw); ok {
		return &NotFoundError{Message: msg}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// softFailure reports whether a success body is a {"message": ...} object.
func softFailure(raw []byte) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return "", false
	}
	var soft struct {
		Message *string `json:"message"`
	}
	if err := json.Unmarshal(raw, &soft); err != nil || soft.Message == nil {
		return "", false
	}
	return *soft.Message, true
}
