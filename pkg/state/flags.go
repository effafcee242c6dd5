package state

import "strconv"

// Simulation flag keys persisted with the session.
const (
	FlagSimulationStarted    = "instr.simulation_started"
	FlagSimulationStopped    = "instr.simulation_stopped"
	FlagHasIssuedInstruction = "instr.has_issued_instructions"
	FlagLastProcessedCall    = "instr.lastprocessed_call"
)

// NoProcessedCall is the last processed call id before any instruction ran.
const NoProcessedCall = -1

// Flags is the key/value store of simulation flags.
type Flags map[string]string

// Clone returns a copy of the flags.
func (f Flags) Clone() Flags {
	if f == nil {
		return nil
	}
	out := make(Flags, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Flag returns the value for key and whether it is set.
func (s *Session) Flag(key string) (string, bool) {
	v, ok := s.Flags[key]
	return v, ok
}

// HasFlag reports whether key is set.
func (s *Session) HasFlag(key string) bool {
	_, ok := s.Flags[key]
	return ok
}

// SetFlag sets key to value. The write is committed when the session is saved.
func (s *Session) SetFlag(key, value string) {
	if s.Flags == nil {
		s.Flags = make(Flags)
	}
	s.Flags[key] = value
}

// ClearFlag removes key.
func (s *Session) ClearFlag(key string) {
	delete(s.Flags, key)
}

// LastProcessedCall returns the id of the last player message processed as
// an instruction, or NoProcessedCall.
func (s *Session) LastProcessedCall() int {
	v, ok := s.Flags[FlagLastProcessedCall]
	if !ok {
		return NoProcessedCall
	}
	id, err := strconv.Atoi(v)
	if err != nil {
		return NoProcessedCall
	}
	return id
}

// RecordProcessedCall stores id as the last processed call. The stored value
// never decreases; it returns false when id would not raise it.
func (s *Session) RecordProcessedCall(id int) bool {
	if id <= s.LastProcessedCall() {
		return false
	}
	s.SetFlag(FlagLastProcessedCall, strconv.Itoa(id))
	return true
}
