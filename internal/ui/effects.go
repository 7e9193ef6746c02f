package ui

import (
	"sync"

	"github.com/rpattn/adminpanel/internal/events"
)

// FlashType classifies a user-visible message.
type FlashType string

const (
	FlashSuccess FlashType = "success"
	FlashError   FlashType = "error"
	FlashWarning FlashType = "warning"
)

// Message is a user-visible flash or alert.
type Message struct {
	Type    FlashType `json:"type"`
	Message string    `json:"message"`
}

// Redirect moves the view to Path; Navigate avoids a full page reload.
type Redirect struct {
	Path     string `json:"path"`
	Navigate bool   `json:"navigate"`
}

// Effects accumulates what one interaction produced besides its view.
type Effects struct {
	mu       sync.Mutex
	flashes  []Message
	alerts   []Message
	redirect *Redirect
}

// Flash records a session flash message.
func (e *Effects) Flash(t FlashType, msg string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.flashes = append(e.flashes, Message{Type: t, Message: msg})
}

// Alert records a toast shown immediately.
func (e *Effects) Alert(t FlashType, msg string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.alerts = append(e.alerts, Message{Type: t, Message: msg})
}

// Redirect records a navigation; the last one wins.
func (e *Effects) Redirect(path string, navigate bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.redirect = &Redirect{Path: path, Navigate: navigate}
}

// Flashes returns recorded flashes.
func (e *Effects) Flashes() []Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Message(nil), e.flashes...)
}

// Alerts returns recorded alerts.
func (e *Effects) Alerts() []Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Message(nil), e.alerts...)
}

// RedirectTo returns the recorded redirect, if any.
func (e *Effects) RedirectTo() *Redirect {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.redirect
}

// Reset clears everything; called once the response has been written.
func (e *Effects) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.flashes, e.alerts, e.redirect = nil, nil, nil
}

// Response is the envelope every component interaction returns.
type Response struct {
	View     any            `json:"view,omitempty"`
	Events   []events.Event `json:"events,omitempty"`
	Flashes  []Message      `json:"flashes,omitempty"`
	Alerts   []Message      `json:"alerts,omitempty"`
	Redirect *Redirect      `json:"redirect,omitempty"`
}
