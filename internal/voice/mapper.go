package voice

import "strings"

// Canonical slash commands produced by the mapper.
const (
	CmdStatus        = "/status"
	CmdListFiles     = "/list-files"
	CmdCurrentDir    = "/current-dir"
	CmdAgentStatus   = "/agent-status"
	CmdHelp          = "/help"
	CmdProjectInfo   = "/project-info"
	CmdSwitchProject = "/switch-project"
	CmdSuggest       = "/code-completion/suggest"
	CmdExplain       = "/code-completion/explain"
	CmdRefactor      = "/code-completion/refactor"
	CmdDebug         = "/code-completion/debug"
	CmdOptimize      = "/code-completion/optimize"
)

// MapCommand derives the canonical command string for normalized text and
// its intent. Mapping never fails: every intent either maps to a fixed
// slash command, picks between fixed commands via a secondary substring
// check on the same text, or passes the normalized text through unchanged
// (navigation, task, general).
func MapCommand(text string, intent Intent) string {
	switch intent {
	case IntentStatus:
		return CmdStatus
	case IntentFileOperation:
		if strings.Contains(text, "directory") || strings.Contains(text, "current") {
			return CmdCurrentDir
		}
		return CmdListFiles
	case IntentAgent:
		return CmdAgentStatus
	case IntentHelp:
		return CmdHelp
	case IntentProject:
		if strings.Contains(text, "switch") || strings.Contains(text, "open") {
			return CmdSwitchProject
		}
		return CmdProjectInfo
	case IntentSuggest:
		return CmdSuggest
	case IntentExplain:
		return CmdExplain
	case IntentRefactor:
		return CmdRefactor
	case IntentDebug:
		return CmdDebug
	case IntentOptimize:
		return CmdOptimize
	case IntentNavigation, IntentTask, IntentGeneral:
		return text
	}
	// Unknown intents cannot occur through the classifier; fall back to the
	// pass-through default rather than failing.
	return text
}
