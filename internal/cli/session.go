package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/drutigliano19/spark-history-mcp/internal/config"
)

const (
	appRefsFile    = "app-refs-session.json"
	compareFile    = "compare-session.json"
	sessionTimeout = time.Hour
)

var (
	ErrNoComparison = errors.New("no comparison session, run 'compare apps <app1> <app2>' first")
	ErrUnknownRef   = errors.New("unknown app reference")
)

type appRefs struct {
	Apps      map[string]string `json:"app_mapping"`
	Server    string            `json:"server,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

type Comparison struct {
	ID        string    `json:"session_id"`
	AppID1    string    `json:"app_id1"`
	AppID2    string    `json:"app_id2"`
	Server    string    `json:"server,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Session persists CLI state between invocations under dir.
type Session struct {
	dir string
	now func() time.Time
}

func NewSession(dir string) *Session {
	return &Session{dir: dir, now: time.Now}
}

// DefaultSession lives in the user config directory.
func DefaultSession() (*Session, error) {
	dir, err := config.UserDir()
	if err != nil {
		return nil, err
	}
	return NewSession(dir), nil
}

func (s *Session) write(name string, v any) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create session dir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

// read returns false when the file is missing or unreadable.
func (s *Session) read(name string, v any) bool {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return false
	}
	return json.Unmarshal(data, v) == nil
}

func (s *Session) remove(name string) error {
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// SaveAppRefs numbers ids from 1 so later commands can refer to them.
func (s *Session) SaveAppRefs(ids []string, server string) error {
	refs := appRefs{Apps: make(map[string]string, len(ids)), Server: server, Timestamp: s.now()}
	for i, id := range ids {
		refs.Apps[strconv.Itoa(i+1)] = id
	}
	return s.write(appRefsFile, refs)
}

func (s *Session) loadAppRefs() (appRefs, bool) {
	var refs appRefs
	if !s.read(appRefsFile, &refs) {
		return refs, false
	}
	if s.now().Sub(refs.Timestamp) > sessionTimeout {
		return refs, false
	}
	return refs, true
}

// Resolve maps a numbered reference to its app id. Anything that is not a
// number reference is returned unchanged.
func (s *Session) Resolve(ref string) (string, error) {
	if !IsNumberRef(ref) {
		return ref, nil
	}
	refs, ok := s.loadAppRefs()
	if !ok {
		return "", fmt.Errorf("%w %s: no recent 'apps list', run it first", ErrUnknownRef, ref)
	}
	id, ok := refs.Apps[ref]
	if !ok {
		return "", fmt.Errorf("%w %s: the last 'apps list' returned %d apps", ErrUnknownRef, ref, len(refs.Apps))
	}
	return id, nil
}

func (s *Session) ClearAppRefs() error {
	return s.remove(appRefsFile)
}

// IsNumberRef accepts positive integers without leading zeros.
func IsNumberRef(ref string) bool {
	if ref == "" || ref[0] == '0' {
		return false
	}
	for _, r := range ref {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func RefHint(count int) string {
	switch {
	case count == 0:
		return ""
	case count == 1:
		return "Tip: use 1 to reference this app, e.g. apps show 1"
	default:
		return fmt.Sprintf("Tip: use 1-%d to reference these apps, e.g. compare apps 1 2", count)
	}
}

func (s *Session) SaveComparison(appID1, appID2, server string) (Comparison, error) {
	c := Comparison{
		ID:        uuid.NewString(),
		AppID1:    appID1,
		AppID2:    appID2,
		Server:    server,
		Timestamp: s.now(),
	}
	return c, s.write(compareFile, c)
}

func (s *Session) LoadComparison() (Comparison, error) {
	var c Comparison
	if !s.read(compareFile, &c) || c.AppID1 == "" || c.AppID2 == "" {
		return c, ErrNoComparison
	}
	return c, nil
}

func (s *Session) ClearComparison() error {
	return s.remove(compareFile)
}
