package generator

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rm-hull/emote-overlays/internal/template"
)

const MaxCommands = 500

var (
	ErrNoCommands      = errors.New("no commands found")
	ErrUnknownTemplate = errors.New("unknown template")
)

var commandRegex = regexp.MustCompile(`^([/\\])(\w+)\b`)

// Catalog is the read-only view of the template table used while rendering.
type Catalog interface {
	Lookup(name string) (template.Layers, bool)
	Names() []string
}

// Command is one template application; Flip mirrors it horizontally.
type Command struct {
	Name string `json:"name"`
	Flip bool   `json:"flip,omitempty"`
}

func (c Command) String() string {
	if c.Flip {
		return `\` + c.Name
	}
	return "/" + c.Name
}

// ParseCommands extracts template commands from a chat message. The first
// word must be a command; later words that are not are ignored, as are
// unknown template names. "/nameX3" repeats a command three times. At most
// MaxCommands are returned, with a notice when the list was truncated.
func ParseCommands(text string, catalog Catalog) ([]Command, string, error) {
	var (
		cmds   []Command
		notice string
	)

	words := strings.Fields(text)
	for i, word := range words {
		matches := commandRegex.FindStringSubmatch(word)
		if matches == nil {
			if i == 0 {
				return nil, "", ErrNoCommands
			}
			continue
		}

		cmd := Command{Name: matches[2], Flip: matches[1] == `\`}
		repeat := 1
		if _, ok := catalog.Lookup(cmd.Name); !ok {
			name, n, ok := repetition(cmd.Name, catalog)
			if !ok {
				continue
			}
			cmd.Name, repeat = name, n
		}

		for range repeat {
			if len(cmds) >= MaxCommands {
				notice = fmt.Sprintf("Only %d commands can be applied at once.", MaxCommands)
				return cmds, notice, nil
			}
			cmds = append(cmds, cmd)
		}
	}

	if len(cmds) == 0 {
		return nil, "", ErrNoCommands
	}
	return cmds, notice, nil
}

// repetition splits "beex3" into ("bee", 3) when bee is a known template.
// The longest matching template name wins.
func repetition(word string, catalog Catalog) (string, int, bool) {
	best, count := "", 0
	for _, name := range catalog.Names() {
		rest, ok := strings.CutPrefix(word, name+"x")
		if !ok || len(name) <= len(best) {
			continue
		}
		n, err := strconv.Atoi(rest)
		if err != nil || n < 1 {
			continue
		}
		best, count = name, min(n, MaxCommands+1)
	}
	return best, count, best != ""
}
