package helper

import "fmt"

// NewError wraps err with the action that failed, preserving the cause for errors.Is/As
func NewError(action string, err error) error {
	return fmt.Errorf("%v failed: %w", action, err)
}
