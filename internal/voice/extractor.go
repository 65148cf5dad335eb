package voice

import (
	"regexp"
	"strings"
)

// Parameter keys produced by the extractor, intent-specific.
const (
	ParamPath    = "path"
	ParamTarget  = "target"
	ParamProject = "project"
	ParamTitle   = "title"
	ParamSymbol  = "symbol"
)

// pathPattern matches filesystem-path-like substrings: either something
// with a directory separator or a bare filename with an extension.
var pathPattern = regexp.MustCompile(`(?:~?/?[\w.-]+(?:/[\w.-]+)+)|(?:[\w-]+\.[A-Za-z]{1,8})`)

// symbolPattern captures an identifier following a code-entity noun, e.g.
// "explain the function parseConfig".
var symbolPattern = regexp.MustCompile(`(?:function|method|class|struct|variable|func)\s+([A-Za-z_][\w.]*)`)

// ExtractParameters pulls intent-specific structured parameters out of
// normalized text via pattern matching. Extraction never fails; when a
// pattern does not match, its key is simply absent from the result. Text
// yielding nothing produces an empty, non-nil map.
func ExtractParameters(text string, intent Intent) map[string]string {
	params := make(map[string]string)
	switch intent {
	case IntentFileOperation:
		if m := pathPattern.FindString(text); m != "" {
			params[ParamPath] = m
		}
	case IntentNavigation:
		if target := afterMarker(text, "to "); target != "" {
			params[ParamTarget] = target
		}
	case IntentProject:
		if name := afterMarker(text, "project "); name != "" {
			params[ParamProject] = name
		}
	case IntentTask:
		if title := afterMarker(text, "called "); title != "" {
			params[ParamTitle] = title
		}
	case IntentSuggest, IntentExplain, IntentRefactor, IntentDebug, IntentOptimize:
		if m := symbolPattern.FindStringSubmatch(text); m != nil {
			params[ParamSymbol] = m[1]
		}
		if p := pathPattern.FindString(text); p != "" {
			params[ParamPath] = p
		}
	}
	return params
}

// afterMarker returns the trimmed remainder of text following the first
// occurrence of marker, or "" when the marker is absent or trailing.
func afterMarker(text, marker string) string {
	idx := strings.Index(text, marker)
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(text[idx+len(marker):])
}
