package core

import (
	"net/mail"
	"strings"
)

// fieldErrors accumulates per-field validation messages in check order, so
// the response lists them the way clients already display them.
type fieldErrors struct {
	msgs []string
}

func (f *fieldErrors) require(value, msg string) {
	if strings.TrimSpace(value) == "" {
		f.msgs = append(f.msgs, msg)
	}
}

func (f *fieldErrors) email(value, msg string) {
	if _, err := mail.ParseAddress(value); err != nil {
		f.msgs = append(f.msgs, msg)
	}
}

func (f *fieldErrors) minLen(value string, n int, msg string) {
	if len(value) < n {
		f.msgs = append(f.msgs, msg)
	}
}

func (f *fieldErrors) ok() bool {
	return len(f.msgs) == 0
}
