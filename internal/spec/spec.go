// Package spec describes the xcred command surface for agents and scripts.
package spec

import "github.com/zx06/xcred/internal/errors"

type FlagSpec struct {
	Name        string `json:"name" yaml:"name"`
	Shorthand   string `json:"shorthand,omitempty" yaml:"shorthand,omitempty"`
	Env         string `json:"env,omitempty" yaml:"env,omitempty"`
	Default     string `json:"default,omitempty" yaml:"default,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

type CommandSpec struct {
	Name        string     `json:"name" yaml:"name"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Flags       []FlagSpec `json:"flags,omitempty" yaml:"flags,omitempty"`
}

// ExitCodeSpec maps an error code to the process exit status it produces.
type ExitCodeSpec struct {
	Code errors.Code `json:"code" yaml:"code"`
	Exit int         `json:"exit" yaml:"exit"`
}

type Spec struct {
	SchemaVersion int            `json:"schema_version" yaml:"schema_version"`
	Commands      []CommandSpec  `json:"commands" yaml:"commands"`
	Backends      []string       `json:"backends" yaml:"backends"`
	ErrorCodes    []errors.Code  `json:"error_codes" yaml:"error_codes"`
	ExitCodes     []ExitCodeSpec `json:"exit_codes" yaml:"exit_codes"`
}

// ExitCodesFor builds the exit status table for codes.
func ExitCodesFor(codes []errors.Code) []ExitCodeSpec {
	out := make([]ExitCodeSpec, 0, len(codes))
	for _, c := range codes {
		out = append(out, ExitCodeSpec{Code: c, Exit: int(errors.ExitCodeFor(c))})
	}
	return out
}
