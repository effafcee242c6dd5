package suite

// TriggerWord opens every instruction addressed to the computer.
const TriggerWord = "computer"

// Status texts.
const (
	MsgProcessedInstructions = "Simulation suite processed instructions"
	MsgPoweringUp            = "Simulation suite powering up."
	MsgReady                 = "Simulation suite ready"
	MsgAlteringEnvironment   = "Simulation suite altering environment."
	MsgUpdatingWorldState    = "Simulation suite updating world state."
	MsgUpdatedWorldState     = "Simulation suite updated world state."
	MsgSettingGoal           = "Simulation suite setting goal."
	MsgAlteringPersona       = "Simulation suite altering user persona."
	MsgAdjustingIdentity     = "Simulation suite adjusting user identity."
	MsgAddingCharacter       = "Simulation suite adding character."
	MsgAddingNamedCharacter  = "Simulation suite adding character: %s"
	MsgRemovingCharacter     = "Simulation suite removing character."
	MsgAlteringCharacter     = "Simulation suite altering character."
	MsgChangingCharacter     = "Changing %s -> %s"
	MsgEndingSimulation      = "Simulation suite ending current simulation."
)

// MsgHelp explains how to address the computer.
const MsgHelp = "Instructions to the simulation computer are only process if the computer is addressed at the beginning of the instruction. Please state your commands by addressing the computer by stating \"Computer,\" followed by an instruction. For example ... \"Computer, i want to experience being on a derelict spaceship.\""

// Narrative directions.
const (
	PromptStartup          = "Narrate the computer asking the user to state the nature of their desired simulation."
	PromptNarrateRound     = "Narrate the simulation and reveal some new details to the player in one paragraph."
	PromptAnswerQuestion   = "The computer calls the following function:\n\n%s\n\nand answers the player's question."
	PromptEnvironmentShift = "The computer calls the following functions:\n\n%s\n\nand the simulation adjusts the environment according to the user's wishes.\n\nWrite the narrative that describes the changes to the player in the context of the simulation starting up."
	PromptEndSimulation    = "The computer ends the simulation, dissolving the environment and all artificial characters, erasing all memory of it and finally returning the player to the inactive simulation suite. List of artificial characters: %s. The player is also transformed back to their normal persona."
)

// Name-resolution questions appended to a call's inject text.
const (
	QueryPlayerName      = " - What is a fitting name for the player persona? Respond with the current name if it still fits."
	QueryAddCharacter    = " - what is the name of the character to be added to the scene? If no name can extracted from the text, extract a short descriptive name instead. Respond only with the name."
	QueryRemoveCharacter = " - what is the name of the character being removed?"
	QueryChangeBefore    = " - what is the name of the character receiving the changes (before the change)?"
	QueryChangeAfter     = " - what is the name of the character receiving the changes (after the changes)?"
)

// QuestionEndSimulation gates end_simulation.
const QuestionEndSimulation = "has the player explicitly asked to end the simulation?"

// Pinned world entries.
const (
	EntryQuarantined = "sim.quarantined"
	EntryGoal        = "sim.goal"
	CtxPinUnaware    = "Characters in the simulation ARE NOT AWARE OF THE COMPUTER."
)

// Goal reinforcement for added characters.
const (
	ReinforcementGoalQuestion     = "Goal"
	ReinforcementGoalInstructions = "Generate a goal for %s, based on the user's chosen simulation"
	ReinforcementGoalInterval     = 25
)
