// Package wsl enumerates and controls WSL distributions through wsl.exe.
package wsl

import (
	"strconv"
	"strings"

	"github.com/lakshaymaurya-felt/wslmole/internal/shell"
)

// State is the run state of a distribution as reported by wsl.exe.
type State int

const (
	StateUnknown State = iota
	StateStopped
	StateRunning
	StateInstalling
	StateConverting
	StateUninstalling
)

// String returns the wsl.exe spelling of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateRunning:
		return "Running"
	case StateInstalling:
		return "Installing"
	case StateConverting:
		return "Converting"
	case StateUninstalling:
		return "Uninstalling"
	default:
		return "Unknown"
	}
}

// Active reports whether the distribution may hold its disk open.
func (s State) Active() bool {
	switch s {
	case StateRunning, StateInstalling, StateConverting, StateUninstalling:
		return true
	}
	return false
}

// localisedStates maps translated wsl.exe state words seen on non-English
// hosts. Anything missing stays StateUnknown.
var localisedStates = map[string]State{
	"beendet":            StateStopped,
	"wird ausgeführt":    StateRunning,
	"wird installiert":   StateInstalling,
	"wird konvertiert":   StateConverting,
	"wird deinstalliert": StateUninstalling,
}

func parseState(s string) State {
	s = strings.ToLower(strings.Join(strings.Fields(s), " "))
	switch s {
	case "stopped":
		return StateStopped
	case "running":
		return StateRunning
	case "installing":
		return StateInstalling
	case "converting":
		return StateConverting
	case "uninstalling":
		return StateUninstalling
	}
	if st, ok := localisedStates[s]; ok {
		return st
	}
	return StateUnknown
}

// Distribution is one registered WSL distribution.
type Distribution struct {
	Name  string
	State State
	// Version is the WSL architecture (1 or 2); 0 when not reported.
	Version int
	Default bool
	// DiskPath is filled in lazily by the VHDX locator.
	DiskPath string
}

// parseVerboseList parses `wsl --list --verbose`:
//
//	  NAME            STATE           VERSION
//	* Ubuntu          Running         2
//	  docker-desktop  Stopped         2
//
// Header lines (localised or not) are recognised by a non-numeric VERSION
// column and skipped. Distribution names never contain spaces, so the first
// field is the name, the last is the version and everything between is the
// state, which may be several words on localised hosts.
func parseVerboseList(text string) []Distribution {
	var out []Distribution
	seen := make(map[string]bool)

	for _, line := range shell.Lines(text) {
		def := false
		if strings.HasPrefix(line, "*") {
			def = true
			line = strings.TrimSpace(line[1:])
		}

		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		ver, err := strconv.Atoi(fields[len(fields)-1])
		if err != nil {
			continue
		}
		name := fields[0]
		if seen[name] {
			continue
		}
		seen[name] = true

		out = append(out, Distribution{
			Name:    name,
			State:   parseState(strings.Join(fields[1:len(fields)-1], " ")),
			Version: ver,
			Default: def,
		})
	}
	return out
}

// parseQuietList parses `wsl --list --quiet`: one name per line, in order,
// de-duplicated.
func parseQuietList(text string) []Distribution {
	var out []Distribution
	seen := make(map[string]bool)
	for _, line := range shell.Lines(text) {
		if seen[line] {
			continue
		}
		seen[line] = true
		out = append(out, Distribution{Name: line, State: StateUnknown})
	}
	return out
}

// pendingNames splits the distributions that are not confirmed stopped into
// those reporting an active state and those whose state could not be read.
func pendingNames(dists []Distribution) (active, unknown []string) {
	for _, d := range dists {
		switch {
		case d.State.Active():
			active = append(active, d.Name)
		case d.State != StateStopped:
			unknown = append(unknown, d.Name)
		}
	}
	return active, unknown
}
