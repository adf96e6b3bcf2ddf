package shell

import (
	"strings"

	"github.com/kballard/go-shellquote"
)

// ShellCompleter provides context-aware autocomplete for shell commands
type ShellCompleter struct {
	sc *ShellController
}

func NewShellCompleter(sc *ShellController) *ShellCompleter {
	return &ShellCompleter{sc: sc}
}

// CommandMetadata holds autocomplete information for a command
type CommandMetadata struct {
	Options []string
	Args    []string
}

var commandMetadata = map[string]CommandMetadata{
	"best": {
		Options: []string{"-depth", "-time", "-nullmove"},
	},
	"bench": {
		Options: []string{"-n", "-depth", "-time", "-nullmove"},
	},
	"bench-depth": {
		Options: []string{"-depth", "-time", "-nullmove"},
	},
	"analyze": {
		Options: []string{"-threads", "-depth", "-time", "-nullmove", "-continue"},
	},
	"position": {
		Args: []string{"start"},
	},
	"params": {
		Args: []string{"show", "load", "save", "reset"},
	},
	"set": {
		Args: settable,
	},
	"help": {
		Args: helpTopics,
	},
}

var commandNames = []string{
	"help", "position", "show", "gen", "play", "threats", "phase", "eval",
	"best", "params", "set", "bench", "bench-depth", "analyze", "exit",
}

var boolValues = []string{"true", "false"}

// Do implements the readline.AutoComplete interface
func (c *ShellCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])

	fields, err := shellquote.Split(text)
	if err != nil {
		fields = strings.Fields(text)
	}
	endsWithSpace := len(text) > 0 && text[len(text)-1] == ' '

	var prefix string
	var completions []string

	if len(fields) == 0 || (len(fields) == 1 && !endsWithSpace) {
		if len(fields) == 1 {
			prefix = fields[0]
		}
		completions = commandNames
	} else {
		cmdName := fields[0]
		if !endsWithSpace {
			prefix = fields[len(fields)-1]
		}

		var lastCompleteField string
		if endsWithSpace {
			lastCompleteField = fields[len(fields)-1]
		} else if len(fields) > 1 {
			lastCompleteField = fields[len(fields)-2]
		}

		if strings.HasPrefix(lastCompleteField, "-") {
			switch strings.TrimPrefix(lastCompleteField, "-") {
			case "nullmove", "continue":
				completions = boolValues
			}
		}
		// set <key> takes a boolean for the on/off settings.
		if cmdName == "set" && completions == nil && len(fields) >= 2 &&
			(len(fields) > 2 || endsWithSpace) {
			switch fields[1] {
			case "null-move-pruning", "exact-cache":
				completions = boolValues
			}
		}

		if completions == nil {
			if metadata, exists := commandMetadata[cmdName]; exists {
				if strings.HasPrefix(prefix, "-") || len(metadata.Args) == 0 {
					completions = metadata.Options
				} else {
					completions = metadata.Args
				}
			}
		}
	}

	var matches [][]rune
	for _, completion := range completions {
		if strings.HasPrefix(completion, prefix) {
			suffix := completion[len(prefix):]
			matches = append(matches, []rune(suffix))
		}
	}
	return matches, len(prefix)
}
