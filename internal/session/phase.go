// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

// Phase is a step of the send cycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCompose
	PhaseSubmit
	PhaseSending
	PhaseStreaming
	PhaseFinalize
)

var phaseNames = map[Phase]string{
	PhaseIdle:      "idle",
	PhaseCompose:   "compose",
	PhaseSubmit:    "submit",
	PhaseSending:   "sending",
	PhaseStreaming: "streaming",
	PhaseFinalize:  "finalize",
}

// String returns the lower-case phase name.
func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "unknown"
}

// Busy reports whether a send cycle is in flight.
func (p Phase) Busy() bool {
	return p >= PhaseSubmit
}
