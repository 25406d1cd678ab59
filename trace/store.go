package trace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidSession is returned for session IDs that are not a plain file
// name.
var ErrInvalidSession = errors.New("invalid session ID")

// Store saves and loads traces by session ID.
type Store interface {
	Save(ctx context.Context, t Trace) error
	Load(ctx context.Context, session string) (Trace, error)
}

// NewStore returns a file store for format "json" or "yaml".
func NewStore(format, dir string) (Store, error) {
	switch format {
	case "json":
		return NewJSONStore(dir)
	case "yaml", "yml":
		return NewYAMLStore(dir)
	default:
		return nil, fmt.Errorf("unknown trace format %q", format)
	}
}

// JSONStore keeps one JSON file per session in a directory.
type JSONStore struct {
	dir string
}

// NewJSONStore creates a JSONStore, ensuring the directory exists.
func NewJSONStore(dir string) (*JSONStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &JSONStore{dir: dir}, nil
}

// Path returns the file a session is stored in.
func (s *JSONStore) Path(session string) string {
	return filepath.Join(s.dir, session+".json")
}

func (s *JSONStore) Save(ctx context.Context, t Trace) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if err := checkSession(t.Session); err != nil {
		return err
	}
	return writeFile(s.Path(t.Session), data)
}

func (s *JSONStore) Load(ctx context.Context, session string) (Trace, error) {
	if err := ctx.Err(); err != nil {
		return Trace{}, err
	}
	if err := checkSession(session); err != nil {
		return Trace{}, err
	}
	data, err := readFile(s.Path(session), session)
	if err != nil {
		return Trace{}, err
	}
	var t Trace
	if err := json.Unmarshal(data, &t); err != nil {
		return Trace{}, fmt.Errorf("json unmarshal: %w", err)
	}
	t.Session = session
	return t, nil
}

// YAMLStore keeps one YAML file per session in a directory.
type YAMLStore struct {
	dir string
}

// NewYAMLStore creates a YAMLStore, ensuring the directory exists.
func NewYAMLStore(dir string) (*YAMLStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &YAMLStore{dir: dir}, nil
}

// Path returns the file a session is stored in.
func (s *YAMLStore) Path(session string) string {
	return filepath.Join(s.dir, session+".yaml")
}

func (s *YAMLStore) Save(ctx context.Context, t Trace) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := yaml.Marshal(t)
	if err != nil {
		return fmt.Errorf("yaml marshal: %w", err)
	}
	if err := checkSession(t.Session); err != nil {
		return err
	}
	return writeFile(s.Path(t.Session), data)
}

func (s *YAMLStore) Load(ctx context.Context, session string) (Trace, error) {
	if err := ctx.Err(); err != nil {
		return Trace{}, err
	}
	if err := checkSession(session); err != nil {
		return Trace{}, err
	}
	data, err := readFile(s.Path(session), session)
	if err != nil {
		return Trace{}, err
	}
	var t Trace
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Trace{}, fmt.Errorf("yaml unmarshal: %w", err)
	}
	t.Session = session
	return t, nil
}

// checkSession rejects IDs that would resolve outside the store directory.
func checkSession(session string) error {
	if session == "" || session == "." || session == ".." ||
		strings.ContainsAny(session, `/\`) || filepath.Base(session) != session {
		return fmt.Errorf("%w: %q", ErrInvalidSession, session)
	}
	return nil
}

func writeFile(fn string, data []byte) error {
	if err := os.WriteFile(fn, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", fn, err)
	}
	return nil
}

func readFile(fn, session string) ([]byte, error) {
	data, err := os.ReadFile(fn)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("trace %q: %w", session, os.ErrNotExist)
		}
		return nil, fmt.Errorf("read %s: %w", fn, err)
	}
	return data, nil
}
