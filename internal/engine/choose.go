package engine

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidSelection is wrapped by every *SelectionError.
var ErrInvalidSelection = errors.New("invalid selection")

// SelectionError is a menu answer that is not a number in [1, Count].
type SelectionError struct {
	Input     string
	Count     int
	NotNumber bool
}

func (e *SelectionError) Error() string {
	if e.NotNumber {
		return fmt.Sprintf("selection %q is not a number", e.Input)
	}
	return fmt.Sprintf("selection %s is outside 1-%d", e.Input, e.Count)
}

func (e *SelectionError) Unwrap() error {
	return ErrInvalidSelection
}

// Hint is the message shown to the player before asking again.
func (e *SelectionError) Hint() string {
	if e.NotNumber {
		return "Invalid input, please enter a number."
	}
	return fmt.Sprintf("Please enter a valid option (1 to %d).", e.Count)
}

// ParseSelection turns a line of input into a 1-based choice among count.
func ParseSelection(line string, count int) (int, error) {
	line = strings.TrimSpace(line)
	n, err := strconv.Atoi(line)
	if err != nil {
		return 0, &SelectionError{Input: line, Count: count, NotNumber: true}
	}
	if n < 1 || n > count {
		return 0, &SelectionError{Input: line, Count: count}
	}
	return n, nil
}

// ChoicePrompt is the prompt shown before reading a selection.
func ChoicePrompt(count int) string {
	return fmt.Sprintf("Enter your choice (1 to %d): ", count)
}
