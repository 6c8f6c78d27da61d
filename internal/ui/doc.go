// Package ui implements the interactive provisioning wizard using
// bubbletea's Elm architecture.
//
// The TUI renders one wizard session as a sequence of form views, one
// per active step, derived live from the session's step plan. Every
// view is a projection of the session's form model; keystrokes mutate
// the form through the session and never touch submission state
// directly.
//
// Submission runs on a background goroutine with progress flowing back
// through a channel, so polling a slow backend never freezes the
// terminal. Quitting mid-submission detaches the modal: the job keeps
// running and its outcome is delivered through the fallback reporter.
//
// Keyboard navigation uses vim-style bindings (j/k on non-text rows,
// enter, space, esc, ctrl+c) with contextual help displayed via
// charmbracelet/bubbles/help.
package ui
