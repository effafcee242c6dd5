package suite

import "context"

// Function names understood by the default registry.
const (
	FnSetSimulationGoal = "set_simulation_goal"
	FnChangeEnvironment = "change_environment"
	FnAnswerQuestion    = "answer_question"
	FnSetPlayerPersona  = "set_player_persona"
	FnSetPlayerName     = "set_player_name"
	FnAddAICharacter    = "add_ai_character"
	FnRemoveAICharacter = "remove_ai_character"
	FnChangeAICharacter = "change_ai_character"
	FnEndSimulation     = "end_simulation"
)

// Handler executes a known call. It returns the trace entry for the call and
// whether the call contributes one; handlers that narrate on their own return
// false.
type Handler interface {
	Handle(ctx context.Context, r *Round, call Call) (entry string, ok bool, err error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, r *Round, call Call) (string, bool, error)

func (f HandlerFunc) Handle(ctx context.Context, r *Round, call Call) (string, bool, error) {
	return f(ctx, r, call)
}

// Registry maps function names to handlers.
type Registry map[string]Handler

// DefaultRegistry returns a fresh registry with every built-in handler.
func DefaultRegistry() Registry {
	return Registry{
		FnSetSimulationGoal: HandlerFunc(setSimulationGoal),
		FnChangeEnvironment: HandlerFunc(changeEnvironment),
		FnAnswerQuestion:    HandlerFunc(answerQuestion),
		FnSetPlayerPersona:  HandlerFunc(setPlayerPersona),
		FnSetPlayerName:     HandlerFunc(setPlayerName),
		FnAddAICharacter:    HandlerFunc(addAICharacter),
		FnRemoveAICharacter: HandlerFunc(removeAICharacter),
		FnChangeAICharacter: HandlerFunc(changeAICharacter),
		FnEndSimulation:     HandlerFunc(endSimulation),
	}
}

// Register adds or replaces the handler for name.
func (reg Registry) Register(name string, h Handler) {
	reg[name] = h
}

// Lookup returns the handler registered for the exact name.
func (reg Registry) Lookup(name string) (Handler, bool) {
	h, ok := reg[name]
	return h, ok
}
