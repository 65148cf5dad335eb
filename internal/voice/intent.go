package voice

// Intent is the discrete category a normalized input is classified into.
// The set is closed; every Command carries exactly one Intent.
type Intent string

const (
	IntentStatus        Intent = "status"
	IntentFileOperation Intent = "file_operation"
	IntentNavigation    Intent = "navigation"
	IntentAgent         Intent = "agent"
	IntentHelp          Intent = "help"
	IntentGeneral       Intent = "general"
	IntentTask          Intent = "task"
	IntentProject       Intent = "project"
	IntentSuggest       Intent = "suggest"
	IntentExplain       Intent = "explain"
	IntentRefactor      Intent = "refactor"
	IntentDebug         Intent = "debug"
	IntentOptimize      Intent = "optimize"
)

// intentKeywords maps each intent to the keyword set used for both
// classification (substring containment) and confidence scoring.
var intentKeywords = map[Intent][]string{
	IntentSuggest:       {"suggest", "recommend", "improvement", "what should"},
	IntentExplain:       {"explain", "describe", "walk me through", "what does", "what is"},
	IntentRefactor:      {"refactor", "restructure", "clean up", "extract", "rename"},
	IntentDebug:         {"debug", "fix", "bug", "error", "broken", "crash"},
	IntentOptimize:      {"optimize", "performance", "speed up", "faster", "slow"},
	IntentStatus:        {"status", "progress", "health", "state of"},
	IntentFileOperation: {"file", "files", "list", "directory", "folder"},
	IntentNavigation:    {"go to", "navigate", "open", "switch to"},
	IntentAgent:         {"agent", "assistant", "autonomous"},
	IntentHelp:          {"help", "how do i", "usage", "commands"},
	IntentTask:          {"task", "todo", "backlog", "kanban", "sprint"},
	IntentProject:       {"project", "workspace", "repository"},
}

// exactPhrases lists the canonical short utterances per intent that earn the
// exact-match confidence bonus.
var exactPhrases = map[Intent][]string{
	IntentSuggest:       {"suggest improvements", "any suggestions"},
	IntentExplain:       {"explain this", "explain this function", "explain this code"},
	IntentRefactor:      {"refactor this", "refactor this function"},
	IntentDebug:         {"debug this", "fix this bug"},
	IntentOptimize:      {"optimize this", "make it faster"},
	IntentStatus:        {"status", "show status", "project status"},
	IntentFileOperation: {"list files", "show files", "current directory"},
	IntentNavigation:    {"go back"},
	IntentAgent:         {"agent status"},
	IntentHelp:          {"help", "show help"},
	IntentTask:          {"show tasks", "show me the tasks"},
	IntentProject:       {"show project", "project info"},
}

// classificationOrder is the precedence list evaluated by the classifier.
// The first intent whose keyword set matches wins, so order is a deliberate
// tie-break policy: code-assistance intents outrank the generic ones, which
// is why "explain the task status" resolves to explain rather than status
// or task.
var classificationOrder = []Intent{
	IntentSuggest,
	IntentExplain,
	IntentRefactor,
	IntentDebug,
	IntentOptimize,
	IntentStatus,
	IntentFileOperation,
	IntentNavigation,
	IntentAgent,
	IntentHelp,
	IntentTask,
	IntentProject,
}
