package voice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapCommand(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		intent Intent
		want   string
	}{
		{"status is fixed", "what's the status", IntentStatus, CmdStatus},
		{"file listing", "list files", IntentFileOperation, CmdListFiles},
		{"current directory variant", "show current directory", IntentFileOperation, CmdCurrentDir},
		{"directory keyword variant", "print the directory", IntentFileOperation, CmdCurrentDir},
		{"agent is fixed", "agent status", IntentAgent, CmdAgentStatus},
		{"help is fixed", "help", IntentHelp, CmdHelp},
		{"project info default", "project details", IntentProject, CmdProjectInfo},
		{"project switch variant", "switch project atlas", IntentProject, CmdSwitchProject},
		{"explain", "explain this function", IntentExplain, CmdExplain},
		{"suggest", "suggest improvements", IntentSuggest, CmdSuggest},
		{"refactor", "refactor this", IntentRefactor, CmdRefactor},
		{"debug", "fix this bug", IntentDebug, CmdDebug},
		{"optimize", "optimize this", IntentOptimize, CmdOptimize},
		{"navigation passes through", "go to settings", IntentNavigation, "go to settings"},
		{"task passes through", "show me the tasks", IntentTask, "show me the tasks"},
		{"general passes through", "hello there", IntentGeneral, "hello there"},
		{"empty general", "", IntentGeneral, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapCommand(tt.text, tt.intent))
		})
	}
}
