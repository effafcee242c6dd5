package prompts

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/jwebster45206/simulation-suite/pkg/chat"
	"github.com/jwebster45206/simulation-suite/pkg/state"
)

// NarratorSystemPrompt is the system prompt for every narration request.
const NarratorSystemPrompt = `You are the narrator of a holodeck-style simulation suite. The player steps into an empty suite controlled by a computer that can build any simulated environment, character or scenario the player asks for. You describe the simulation to the player as it unfolds. Your perspective is second-person.

### Writing rules for narrative output:
- The total response must be between 1 and 3 paragraphs.
- Each paragraph may contain at most 3 sentences.
- Normal narration must never use colons. Colons are reserved only for dialogue lines.
- When a character speaks, start a new paragraph and use the format:
  CharacterName: "Spoken line here."

### Narrator responses
- Never speak or act for the player.
- Characters inside the simulation are not aware of the computer unless the player is outside of a simulation.
- The computer speaks in a calm, neutral voice and only when addressed.
- Do not mention function calls, JSON or the state below by name.

### Player
%s`

// NarratorAdvancePrompt wraps a narrative direction for the next narration.
const NarratorAdvancePrompt = "Narrative direction: %s\n\nWrite the next narration following this direction. Do not repeat earlier narration."

// NarratorParaphrasePrompt asks the narrator to restate text in its own voice.
const NarratorParaphrasePrompt = "Rephrase the following message in the narrator's voice, keeping every instruction it contains:\n\n%s"

// ComputerSystemPrompt turns a player instruction into simulation calls.
const ComputerSystemPrompt = `You are the computer of a simulation suite. The player addresses you with instructions. Translate the instruction into a list of function calls, one call per line, and output nothing else.

### Available functions
%s

### Rules
- Each line is exactly one call: function_name(argument text).
- The argument is a short plain-language summary of the requested change.
- Use only the functions listed above.
- Output no prose, numbering or code fences.
- If the player only asks a question, call answer_question.`

// FunctionCatalogue describes each function the computer may call.
var FunctionCatalogue = []string{
	"set_simulation_goal(goal) - the player describes the overall simulation they want to experience",
	"change_environment(description) - alter the setting, time, weather or surroundings",
	"answer_question(question) - the player asks the computer a question",
	"set_player_persona(description) - change who the player is inside the simulation",
	"set_player_name(name) - change the player's name inside the simulation",
	"add_ai_character(description) - add a new artificial character to the scene",
	"remove_ai_character(name) - remove an artificial character from the scene",
	"change_ai_character(description) - alter an existing artificial character",
	"end_simulation() - end the simulation and return to the empty suite",
}

// BackendSystemPrompt is the system prompt for extraction and evaluation requests.
const BackendSystemPrompt = "You are a backend assistant of a simulation suite. You never narrate. Answer exactly what is asked, in the requested format, and nothing else."

// YesNoPrompt asks a backend question that must be answered yes or no.
const YesNoPrompt = "Read the text and answer the question with a single word, yes or no.\n\nText:\n%s\n\nQuestion: %s"

// NameResolutionPrompt asks for a single character name.
const NameResolutionPrompt = "Read the instruction and answer with the name only. No punctuation, quotes or explanation.\n\n%s"

// NameChoicesPrompt restricts a name answer to known characters.
const NameChoicesPrompt = "\n\nThe answer must be one of: %s"

// DescriptionPrompt asks for a character description from its attributes.
const DescriptionPrompt = "Write a short visual and personality description of %s in one paragraph, using the following attributes. Output only the description.\n\n%s"

// CharacterCreationPrompt asks for the description of a new character.
const CharacterCreationPrompt = "The player asked the computer:\n\n%s\n\nWrite a short visual and personality description of the new character %s in one paragraph. Output only the description."

// AttributeSheetPrompt asks for a character attribute sheet as JSON.
const AttributeSheetPrompt = `Create an attribute sheet for the character %s inside the simulation.

%s

Instructions: %s

Output ONLY a JSON object of string keys to string values, for example:
{"age": "34", "appearance": "tall, scarred", "personality": "gruff but loyal", "occupation": "ship engineer"}`

// WorldStatePrompt asks for a compact summary of the simulation.
const WorldStatePrompt = "Summarize the current state of the simulation in at most 5 short bullet points: where the player is, who is present, and what is happening. Output only the bullet points."

// ReinforcementPrompt asks a recurring question about a character.
const ReinforcementPrompt = "Answer the following question about %s in one or two sentences.\n\nQuestion: %s\n%s"

// PortraitPrompt asks for an image-generation prompt for a character.
const PortraitPrompt = "Write a single-line image generation prompt for a portrait of %s. Focus on face, clothing and lighting. Output only the prompt.\n\nDescription: %s"

// StatePromptTemplate wraps the session state for the LLM.
const StatePromptTemplate = "The following JSON describes the current simulation.\n\nSimulation State:\n```json\n%s\n```"

// BuildNarratorSystemPrompt fills the narrator system prompt for the player.
func BuildNarratorSystemPrompt(player *state.Character) string {
	if player == nil {
		return fmt.Sprintf(NarratorSystemPrompt, "The player has no persona yet.")
	}
	var sb strings.Builder
	sb.WriteString("Name: " + player.Name)
	if player.Description != "" {
		sb.WriteString("\nDescription: " + player.Description)
	}
	return fmt.Sprintf(NarratorSystemPrompt, sb.String())
}

// BuildComputerPrompt fills the computer system prompt with the function catalogue.
func BuildComputerPrompt() string {
	return fmt.Sprintf(ComputerSystemPrompt, "- "+strings.Join(FunctionCatalogue, "\n- "))
}

// FormatAttributes renders attrs as "key: value" lines in key order.
func FormatAttributes(attrs map[string]string) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(k + ": " + attrs[k])
	}
	return sb.String()
}

// GetStatePrompt renders the session state as a system message.
func GetStatePrompt(s *state.Session) (chat.ChatMessage, error) {
	if s == nil {
		return chat.ChatMessage{}, fmt.Errorf("session is nil")
	}
	data, err := marshalPromptState(s)
	if err != nil {
		return chat.ChatMessage{}, err
	}
	return chat.ChatMessage{
		Role:    chat.ChatRoleSystem,
		Content: fmt.Sprintf(StatePromptTemplate, data),
	}, nil
}

func marshalPromptState(s *state.Session) (string, error) {
	data, err := json.Marshal(state.ToPromptState(s))
	if err != nil {
		return "", fmt.Errorf("failed to marshal prompt state: %w", err)
	}
	return string(data), nil
}
