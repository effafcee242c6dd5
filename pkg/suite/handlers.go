package suite

import (
	"context"
	"fmt"
	"strings"

	"github.com/jwebster45206/simulation-suite/pkg/state"
)

// setSimulationGoal pins the player's instruction as the simulation goal.
func setSimulationGoal(ctx context.Context, r *Round, call Call) (string, bool, error) {
	r.status(ctx, StatusBusy, MsgSettingGoal)
	if err := r.Deps.WorldState.SavePinnedEntry(ctx, EntryGoal, r.MessageText(), nil); err != nil {
		return "", false, fmt.Errorf("failed to pin simulation goal: %w", err)
	}
	return call.Raw, true, nil
}

// changeEnvironment is interpreted entirely by the narrator.
func changeEnvironment(ctx context.Context, r *Round, call Call) (string, bool, error) {
	return call.Raw, true, nil
}

func answerQuestion(ctx context.Context, r *Round, call Call) (string, bool, error) {
	direction := fmt.Sprintf(PromptAnswerQuestion, call.Raw)
	if _, err := r.Deps.Narrator.Narrate(ctx, NarrateAdvance, direction, true); err != nil {
		return "", false, fmt.Errorf("failed to answer question: %w", err)
	}
	return "", false, nil
}

func setPlayerPersona(ctx context.Context, r *Round, call Call) (string, bool, error) {
	r.status(ctx, StatusBusy, MsgAlteringPersona)
	if r.Player == nil {
		return call.Raw, true, nil
	}

	attrs, err := r.Deps.WorldState.ExtractAttributeSheet(ctx, r.Player.Name, call.Inject(), r.MessageText())
	if err != nil {
		return "", false, fmt.Errorf("failed to extract player attributes: %w", err)
	}
	r.Player.UpdateAttributes(attrs)

	description, err := r.Deps.Creator.ComposeDescription(ctx, r.Player)
	if err != nil {
		return "", false, fmt.Errorf("failed to compose player description: %w", err)
	}
	r.Player.UpdateDescription(description)

	r.logger.Debug("Simulation suite transformed player", "name", r.Player.Name, "attributes", attrs)
	return call.Raw, true, nil
}

func setPlayerName(ctx context.Context, r *Round, call Call) (string, bool, error) {
	r.status(ctx, StatusBusy, MsgAdjustingIdentity)
	name, err := r.Deps.Creator.ResolveCharacterName(ctx, call.Inject()+QueryPlayerName, nil)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve player name: %w", err)
	}
	r.logger.Debug("Simulation suite player name", "name", name)

	if r.Player != nil && name != r.Player.Name {
		r.Player.Rename(name)
	}
	return call.Raw, true, nil
}

func addAICharacter(ctx context.Context, r *Round, call Call) (string, bool, error) {
	r.status(ctx, StatusBusy, MsgAddingCharacter)
	name, err := r.Deps.Creator.ResolveCharacterName(ctx, call.Inject()+QueryAddCharacter, nil)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve new character name: %w", err)
	}
	r.status(ctx, StatusBusy, fmt.Sprintf(MsgAddingNamedCharacter, name))

	npc, err := r.Deps.Director.PersistCharacter(ctx, name, r.MessageText())
	if err != nil {
		return "", false, fmt.Errorf("failed to persist character %q: %w", name, err)
	}
	if npc == nil {
		return call.Raw, true, nil
	}

	goal := state.Reinforcement{
		Character:    npc.Name,
		Question:     ReinforcementGoalQuestion,
		Instructions: fmt.Sprintf(ReinforcementGoalInstructions, npc.Name),
		Interval:     ReinforcementGoalInterval,
	}
	if err := r.Deps.WorldState.ScheduleReinforcement(ctx, goal, true); err != nil {
		return "", false, fmt.Errorf("failed to schedule goal for %q: %w", npc.Name, err)
	}

	if err := r.Deps.Visual.GeneratePortrait(ctx, npc.Name); err != nil {
		return "", false, fmt.Errorf("failed to request portrait for %q: %w", npc.Name, err)
	}

	r.logger.Debug("Simulation suite added character", "name", npc.Name)
	return call.Raw, true, nil
}

func removeAICharacter(ctx context.Context, r *Round, call Call) (string, bool, error) {
	r.status(ctx, StatusBusy, MsgRemovingCharacter)
	name, err := r.Deps.Creator.ResolveCharacterName(ctx, call.Inject()+QueryRemoveCharacter, r.Scene.NonPlayerCharacterNames())
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve character to remove: %w", err)
	}

	npc := r.Scene.CharacterByName(name)
	if npc == nil || npc.IsPlayer {
		return call.Raw, true, nil
	}

	r.logger.Debug("Simulation suite removing character", "name", npc.Name)
	if err := r.Deps.WorldState.DeactivateCharacter(ctx, npc.Name); err != nil {
		return "", false, fmt.Errorf("failed to deactivate %q: %w", npc.Name, err)
	}
	return call.Raw, true, nil
}

func changeAICharacter(ctx context.Context, r *Round, call Call) (string, bool, error) {
	r.status(ctx, StatusBusy, MsgAlteringCharacter)
	before, err := r.Deps.Creator.ResolveCharacterName(ctx, call.Inject()+QueryChangeBefore, r.Scene.NonPlayerCharacterNames())
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve character to change: %w", err)
	}
	after, err := r.Deps.Creator.ResolveCharacterName(ctx, call.Inject()+QueryChangeAfter, nil)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve changed character name: %w", err)
	}

	npc := r.Scene.CharacterByName(before)
	if npc == nil || npc.IsPlayer {
		return call.Raw, true, nil
	}
	r.status(ctx, StatusBusy, fmt.Sprintf(MsgChangingCharacter, before, after))

	attrs, err := r.Deps.WorldState.ExtractAttributeSheet(ctx, npc.Name, "", r.MessageText())
	if err != nil {
		return "", false, fmt.Errorf("failed to extract attributes for %q: %w", npc.Name, err)
	}
	npc.UpdateAttributes(attrs)

	description, err := r.Deps.Creator.ComposeDescription(ctx, npc)
	if err != nil {
		return "", false, fmt.Errorf("failed to compose description for %q: %w", npc.Name, err)
	}
	npc.UpdateDescription(description)

	if after != before {
		npc.Rename(after)
	}
	r.logger.Debug("Simulation suite transformed character", "before", before, "after", npc.Name)
	return call.Raw, true, nil
}

func endSimulation(ctx context.Context, r *Round, call Call) (string, bool, error) {
	explicit, err := r.Deps.Client.ExplicitIntent(ctx, QuestionEndSimulation, r.MessageText())
	if err != nil {
		return "", false, fmt.Errorf("failed to evaluate end of simulation: %w", err)
	}
	if !explicit {
		return "", false, nil
	}

	r.status(ctx, StatusBusy, MsgEndingSimulation)
	direction := fmt.Sprintf(PromptEndSimulation, strings.Join(r.Scene.NonPlayerCharacterNames(), ", "))
	if _, err := r.Deps.Narrator.Narrate(ctx, NarrateAdvance, direction, true); err != nil {
		return "", false, fmt.Errorf("failed to narrate end of simulation: %w", err)
	}

	r.Scene.RestoreSnapshot()
	r.Player = r.Scene.PlayerCharacter()
	r.SimulationReset = true
	return "", false, nil
}
