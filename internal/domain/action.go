package domain

import (
	"errors"
	"strings"
)

// Action действие администратора над заказом
type Action string

const (
	ActionComplete Action = "complete"
	ActionCancel   Action = "cancel"
)

var ErrUnknownAction = errors.New("unknown order action")

func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionComplete, ActionCancel:
		return a, nil
	default:
		return "", ErrUnknownAction
	}
}
