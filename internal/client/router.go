package client

import (
	"path"
	"strings"
	"sync"
)

// View paths.
const (
	RootPath     = "/"
	LoginPath    = "/login"
	RegisterPath = "/register"
	ProjectsPath = "/projects"
)

// Route is an entry of the view table. Pattern segments starting with ':'
// match any single segment.
type Route struct {
	Pattern      string
	Redirect     string
	RequiresAuth bool
}

// Routes is the view table of the client.
var Routes = []Route{
	{Pattern: RootPath, Redirect: ProjectsPath},
	{Pattern: LoginPath},
	{Pattern: RegisterPath},
	{Pattern: ProjectsPath, RequiresAuth: true},
	{Pattern: ProjectsPath + "/:projectId", RequiresAuth: true},
}

// AuthState reports whether the user is signed in.
type AuthState interface {
	IsAuthed() bool
}

// Router resolves view paths against Routes and the auth guards:
// a route that requires auth sends signed-out users to /login, and
// /login or /register send signed-in users to /projects.
type Router struct {
	auth AuthState

	mu      sync.Mutex
	current string
}

// NewRouter returns a router positioned at no view.
func NewRouter(auth AuthState) *Router {
	return &Router{auth: auth}
}

// Match finds the route for p and returns its named parameters.
func Match(p string) (Route, map[string]string, bool) {
	p = cleanPath(p)
	for _, rt := range Routes {
		if params, ok := matchPattern(rt.Pattern, p); ok {
			return rt, params, true
		}
	}
	return Route{}, nil, false
}

// Resolve returns the path the user ends up on when asking for p.
// Unknown paths are returned unchanged.
func (r *Router) Resolve(p string) string {
	p = cleanPath(p)
	// redirects and guards never chain more than a couple of hops
	for range len(Routes) {
		next := r.step(p)
		if next == p {
			break
		}
		p = next
	}
	return p
}

// Navigate resolves p, makes the result the current view and returns it.
func (r *Router) Navigate(p string) string {
	resolved := r.Resolve(p)

	r.mu.Lock()
	r.current = resolved
	r.mu.Unlock()

	return resolved
}

// Current returns the path of the current view.
func (r *Router) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

func (r *Router) step(p string) string {
	rt, _, ok := Match(p)
	if !ok {
		return p
	}
	if rt.Redirect != "" {
		return rt.Redirect
	}
	authed := r.auth.IsAuthed()
	if rt.RequiresAuth && !authed {
		return LoginPath
	}
	if (p == LoginPath || p == RegisterPath) && authed {
		return ProjectsPath
	}
	return p
}

func matchPattern(pattern, p string) (map[string]string, bool) {
	want := strings.Split(pattern, "/")
	got := strings.Split(p, "/")
	if len(want) != len(got) {
		return nil, false
	}
	params := map[string]string{}
	for i, seg := range want {
		if name, ok := strings.CutPrefix(seg, ":"); ok {
			if got[i] == "" {
				return nil, false
			}
			params[name] = got[i]
			continue
		}
		if seg != got[i] {
			return nil, false
		}
	}
	return params, true
}

func cleanPath(p string) string {
	if p == "" {
		return RootPath
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
