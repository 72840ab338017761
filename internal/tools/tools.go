// Package tools locates and runs the external converters the pipeline
// depends on: ScDowngrade, SctxConverter, PVRTexToolCLI and SCTex.
package tools

import (
	"errors"
	"fmt"
)

// ID names an external tool, matching its key in the config file.
type ID string

const (
	ScDowngrade   ID = "sc_downgrade"
	SctxConverter ID = "sctx_converter"
	PVRTexTool    ID = "pvr_tex_tool"
	SCTex         ID = "sc_tex"
)

// All lists every known tool.
var All = []ID{ScDowngrade, SctxConverter, PVRTexTool, SCTex}

// BinaryName returns the executable base name without extension.
func (id ID) BinaryName() string {
	switch id {
	case ScDowngrade:
		return "ScDowngrade"
	case SctxConverter:
		return "SctxConverter"
	case PVRTexTool:
		return "PVRTexToolCLI"
	case SCTex:
		return "SCTex"
	}
	return string(id)
}

// Args returns the command line for converting input into output.
func (id ID) Args(input, output string) []string {
	switch id {
	case SctxConverter:
		return []string{"decode", input, output, "-t"}
	case PVRTexTool:
		return []string{"-i", input, "-d", output, "-ics", "sRGB", "-noout"}
	default:
		return []string{input, output}
	}
}

// Mode is how a resolved tool is executed.
type Mode string

const (
	Native      Mode = "native"
	Wine        Mode = "wine"
	Unavailable Mode = "unavailable"
)

// Sentinel errors.
var (
	ErrToolNotFound = errors.New("tool not found")
	ErrToolFailed   = errors.New("external tool failed")
)

// NotFoundError reports a tool with no usable executable.
type NotFoundError struct {
	Tool ID

	// Searched lists the candidate paths that were checked.
	Searched []string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%v: %s (searched %d locations)", ErrToolNotFound, e.Tool, len(e.Searched))
}

func (e *NotFoundError) Unwrap() error {
	return ErrToolNotFound
}

// ExecError reports a tool run that exited non-zero, timed out or produced
// no output.
type ExecError struct {
	Tool     ID
	ExitCode int
	TimedOut bool
	Stderr   string
	Err      error
}

func (e *ExecError) Error() string {
	msg := fmt.Sprintf("%v: %s exited with status %d", ErrToolFailed, e.Tool, e.ExitCode)
	if e.TimedOut {
		msg = fmt.Sprintf("%v: %s timed out", ErrToolFailed, e.Tool)
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExecError) Unwrap() error {
	return ErrToolFailed
}
