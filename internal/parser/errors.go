package parser

import (
	"fmt"
	"strings"
)

// MapError takes a raw input and a participle error, and returns a human-friendly guidance message.
func MapError(input string, err error) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return fmt.Errorf("I wasn't able to understand your command")
	}

	parts := strings.Fields(strings.ToLower(input))
	cmd := parts[0]

	switch cmd {
	case "move":
		return fmt.Errorf("The command move must be: move <name> [value ...] [by: player]")
	case "event":
		return fmt.Errorf("The command event must be: event <name> [value ...] [by: player]")
	case "undo":
		return fmt.Errorf("The command undo must be: undo [by: player]")
	case "redo":
		return fmt.Errorf("The command redo must be: redo [by: player]")
	case "state":
		return fmt.Errorf("The command state must be: state [as: player]")
	case "log":
		return fmt.Errorf("The command log must be: log")
	case "help":
		return fmt.Errorf("The command help must be: help")
	}

	return fmt.Errorf("I wasn't able to understand your command")
}

// Usage lists every command of the language.
func Usage() string {
	return strings.Join([]string{
		"move <name> [value ...] [by: player]",
		"event <name> [value ...] [by: player]",
		"undo [by: player]",
		"redo [by: player]",
		"state [as: player]",
		"log",
		"help",
	}, "\n")
}
