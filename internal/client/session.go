// Package client is the Go counterpart of the todo web client: a session
// that keeps the access token, a transport that attaches it and reacts to
// 401 responses, a small view router with auth guards and a typed API client.
package client

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const (
	tokenDir  = ".todo-pro"
	tokenFile = "token"

	lockTimeout = 5 * time.Second
	lockRetry   = 10 * time.Millisecond
)

// DefaultTokenPath returns $HOME/.todo-pro/token.
func DefaultTokenPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, tokenDir, tokenFile), nil
}

type subscriber struct {
	id int
	fn func(authed bool)
}

// Session keeps the access token in a file shared by every client process
// of the user. Reads take a shared file lock and writes an exclusive one.
// Every SetToken and ClearToken notifies the subscribers.
type Session struct {
	path string
	lock *flock.Flock

	mu     sync.Mutex
	subs   []subscriber
	nextID int
}

// NewSession returns a session stored at path. The file and its parent
// directory are created on first write.
func NewSession(path string) *Session {
	return &Session{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Path returns the token file location.
func (s *Session) Path() string {
	return s.path
}

// Token returns the stored token, or "" when there is none.
func (s *Session) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(filepath.Dir(s.path)); errors.Is(err, os.ErrNotExist) {
		return "", nil
	}

	var token string
	err := s.withLock(false, func() error {
		b, err := os.ReadFile(s.path)
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		token = strings.TrimSpace(string(b))
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return token, nil
}

// IsAuthed reports whether a token is present. Read failures count as
// signed out.
func (s *Session) IsAuthed() bool {
	token, err := s.Token()
	return err == nil && token != ""
}

// SetToken stores token and notifies subscribers.
func (s *Session) SetToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("empty token")
	}

	s.mu.Lock()
	err := s.write(token)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("write token: %w", err)
	}

	s.notify(true)
	return nil
}

// ClearToken removes the stored token and notifies subscribers.
func (s *Session) ClearToken() error {
	s.mu.Lock()
	err := s.remove()
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("clear token: %w", err)
	}

	s.notify(false)
	return nil
}

// Subscribe registers fn to be called with the new auth state after every
// change. Callbacks run synchronously on the goroutine that made the change.
// The returned function removes the subscription.
func (s *Session) Subscribe(fn func(authed bool)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Session) notify(authed bool) {
	s.mu.Lock()
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(authed)
	}
}

func (s *Session) write(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return s.withLock(true, func() error {
		tmp, err := os.CreateTemp(filepath.Dir(s.path), tokenFile+".*")
		if err != nil {
			return err
		}
		defer os.Remove(tmp.Name())

		if _, err := tmp.WriteString(token); err != nil {
			tmp.Close()
			return err
		}
		if err := tmp.Chmod(0o600); err != nil {
			tmp.Close()
			return err
		}
		if err := tmp.Close(); err != nil {
			return err
		}
		return os.Rename(tmp.Name(), s.path)
	})
}

func (s *Session) remove() error {
	if _, err := os.Stat(filepath.Dir(s.path)); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return s.withLock(true, func() error {
		err := os.Remove(s.path)
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	})
}

// withLock runs fn while holding the token file lock.
func (s *Session) withLock(exclusive bool, fn func() error) error {
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	var (
		locked bool
		err    error
	)
	if exclusive {
		locked, err = s.lock.TryLockContext(ctx, lockRetry)
	} else {
		locked, err = s.lock.TryRLockContext(ctx, lockRetry)
	}
	if err != nil {
		return fmt.Errorf("lock %s: %w", s.lock.Path(), err)
	}
	if !locked {
		return fmt.Errorf("lock %s: not acquired", s.lock.Path())
	}
	defer s.lock.Unlock()

	return fn()
}
