package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/comalice/framefsm/host"
)

// Script is a scripted input timeline for a headless run.
//
//	initial: idle
//	frames: 120
//	inputs:
//	  - frame: 10
//	    kind: key
//	    action: move_right
type Script struct {
	Initial string        `yaml:"initial"`
	Frames  int           `yaml:"frames"`
	Inputs  []ScriptInput `yaml:"inputs"`
}

// ScriptInput is one input sent before the given frame is stepped.
type ScriptInput struct {
	Frame    uint64 `yaml:"frame"`
	Kind     string `yaml:"kind"`
	Action   string `yaml:"action"`
	Priority int    `yaml:"priority,omitempty"`
}

// InputKind maps the script kind to a host input kind. An empty kind means
// a general input.
func (in ScriptInput) InputKind() (host.InputKind, error) {
	switch in.Kind {
	case "", "input":
		return host.InputGeneral, nil
	case "unhandled":
		return host.InputUnhandled, nil
	case "key":
		return host.InputKey, nil
	default:
		return 0, fmt.Errorf("unknown input kind %q", in.Kind)
	}
}

// LoadScript reads and validates a YAML script file.
func LoadScript(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("read %s: %w", path, err)
	}
	return ParseScript(data)
}

// ParseScript decodes and validates a YAML script. Unknown fields are
// rejected. Inputs are sorted by frame, keeping file order within a frame.
func ParseScript(data []byte) (Script, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Script
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return Script{}, fmt.Errorf("yaml decode: %w", err)
	}

	var errs []error
	if s.Frames < 0 {
		errs = append(errs, fmt.Errorf("frames must not be negative, got %d", s.Frames))
	}
	for i, in := range s.Inputs {
		if _, err := in.InputKind(); err != nil {
			errs = append(errs, fmt.Errorf("input %d: %w", i, err))
		}
		if in.Action == "" {
			errs = append(errs, fmt.Errorf("input %d: empty action", i))
		}
	}
	if len(errs) > 0 {
		return Script{}, errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}

	sort.SliceStable(s.Inputs, func(i, j int) bool {
		return s.Inputs[i].Frame < s.Inputs[j].Frame
	})
	return s, nil
}

// At returns the inputs scheduled for frame.
func (s Script) At(frame uint64) []ScriptInput {
	var out []ScriptInput
	for _, in := range s.Inputs {
		if in.Frame == frame {
			out = append(out, in)
		}
	}
	return out
}
