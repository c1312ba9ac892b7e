package flow

import (
	"regexp"
	"strings"

	"github.com/dusk-indust/architecturizr/internal/model"
)

// rule is one line classifier. match returns the submatches of a recognised
// line, or nil; apply updates the parse state. Rules are tried in table
// order and the first match wins.
type rule struct {
	name  string
	match func(line string) []string
	apply func(st *state, m []string) error
}

var (
	titleRegex   = regexp.MustCompile(`^\s*title\s+(.*?)\s*$`)
	sectionRegex = regexp.MustCompile(`^\s*={2,}\s*(.*?)\s*={2,}\s*$`)
	commentRegex = regexp.MustCompile(`^\s*(?:#|'|//|@startuml\b|@enduml\b)`)
	keywordRegex = regexp.MustCompile(`^\s*(?i:note|participant|actor|boundary|control|entity|database|collections|queue|alt|else|end|opt|loop|par|group|break|critical|ref|autonumber|activate|deactivate|destroy|skinparam|hide|show|box)(?:\s|$)`)

	// Element keys are dash-separated words and never end in a dash.
	keyPattern = `(\w+(?:-\w+)*)`

	// FROM -> TO : DESCRIPTION
	syncRegex = regexp.MustCompile(`^\s*` + keyPattern + `\s*->\s*` + keyPattern + `\s*:\s*(.*?)\s*$`)
	// TO <-- FROM : DESCRIPTION
	returnRegex = regexp.MustCompile(`^\s*` + keyPattern + `\s*<--?\s*` + keyPattern + `\s*:\s*(.*?)\s*$`)
	// FROM -->(N) TO : [TOPIC] DESCRIPTION
	asyncRegex = regexp.MustCompile(`^\s*` + keyPattern + `\s*-?->\((\d)\)\s*` + keyPattern + `\s*:\s*\[\s*([^\]]*?)\s*\]\s*(.*?)\s*$`)
)

// ignored reports whether line carries nothing for the model: a comment, or
// a declaration or block keyword. A keyword line shaped like a step is a
// step whose key happens to be that keyword.
func ignored(line string) bool {
	if commentRegex.MatchString(line) {
		return true
	}
	if !keywordRegex.MatchString(line) {
		return false
	}
	return !syncRegex.MatchString(line) && !returnRegex.MatchString(line) && !asyncRegex.MatchString(line)
}

// rules is the ordered line grammar. Lines matching no rule are syntax
// errors.
var rules = []rule{
	{
		name:  "blank",
		match: func(line string) []string { return matchIf(strings.TrimSpace(line) == "") },
		apply: func(*state, []string) error { return nil },
	},
	{
		name:  "title",
		match: titleRegex.FindStringSubmatch,
		apply: func(st *state, m []string) error {
			st.title = m[1]
			return nil
		},
	},
	{
		name:  "section",
		match: sectionRegex.FindStringSubmatch,
		apply: func(st *state, m []string) error {
			st.startSection(m[1])
			return nil
		},
	},
	{
		name:  "ignored",
		match: func(line string) []string { return matchIf(ignored(line)) },
		apply: func(*state, []string) error { return nil },
	},
	{
		name:  "sync",
		match: syncRegex.FindStringSubmatch,
		apply: func(st *state, m []string) error {
			return st.addStep(model.Step{Kind: model.StepSync, From: m[1], To: m[2], Description: m[3]})
		},
	},
	{
		// Return arrows are recognised so they are not reported as syntax
		// errors, but they are left out of the model.
		name:  "return",
		match: returnRegex.FindStringSubmatch,
		apply: func(st *state, m []string) error {
			st.logger.Debug("discarding return step", "source", st.source, "line", st.line, "from", m[2], "to", m[1])
			return nil
		},
	},
	{
		name:  "async",
		match: asyncRegex.FindStringSubmatch,
		apply: func(st *state, m []string) error {
			return st.addStep(model.Step{Kind: model.StepAsync, From: m[1], To: m[3], Topic: m[4], Description: m[5]})
		},
	},
}

// matchIf adapts a boolean predicate to the rule match signature.
func matchIf(ok bool) []string {
	if ok {
		return []string{}
	}
	return nil
}
