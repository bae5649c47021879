package webapp

import (
	"reflect"
	"sync"
)

// clickHandlers is the shared registration list used by the three button
// controllers. Every add appends; removal matches by function identity.
type clickHandlers struct {
	mu sync.Mutex
	hs []struct {
		id uintptr
		fn func()
	}
}

func (c *clickHandlers) add(fn func()) {
	if fn == nil {
		return
	}
	id := reflect.ValueOf(fn).Pointer()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hs = append(c.hs, struct {
		id uintptr
		fn func()
	}{id, fn})
}

// remove drops at most the first registration matching fn's code pointer;
// closures from the same literal share it and cannot be told apart.
func (c *clickHandlers) remove(fn func()) {
	if fn == nil {
		return
	}
	id := reflect.ValueOf(fn).Pointer()
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, h := range c.hs {
		if h.id == id {
			c.hs = append(c.hs[:i], c.hs[i+1:]...)
			return
		}
	}
}

func (c *clickHandlers) fire() {
	c.mu.Lock()
	hs := make([]func(), 0, len(c.hs))
	for _, h := range c.hs {
		hs = append(hs, h.fn)
	}
	c.mu.Unlock()
	for _, fn := range hs {
		fn()
	}
}

type mainButtonState struct {
	IsVisible         bool   `json:"is_visible"`
	IsActive          bool   `json:"is_active"`
	IsProgressVisible bool   `json:"is_progress_visible"`
	Text              string `json:"text"`
	Color             string `json:"color,omitempty"`
	TextColor         string `json:"text_color,omitempty"`
}

// MainButton controls the primary action button at the bottom of the app.
// Mutators return the controller so calls chain; every mutation pushes the
// full button state to the host. The flags have no transition constraints:
// any state may follow any other.
type MainButton struct {
	app      *WebApp
	mu       sync.Mutex
	state    mainButtonState
	handlers clickHandlers
}

func newMainButton(app *WebApp) *MainButton {
	return &MainButton{
		app: app,
		state: mainButtonState{
			IsActive: true,
			Text:     "CONTINUE",
		},
	}
}

// MainButtonParams updates several fields in one host round trip. Nil
// fields keep their current value.
type MainButtonParams struct {
	Text      *string
	Color     *string
	TextColor *string
	IsActive  *bool
	IsVisible *bool
}

func (b *MainButton) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.Text
}

func (b *MainButton) IsVisible() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.IsVisible
}

func (b *MainButton) IsActive() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.IsActive
}

func (b *MainButton) IsProgressVisible() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state.IsProgressVisible
}

// SetText sets the button label.
func (b *MainButton) SetText(text string) *MainButton {
	return b.update(func(s *mainButtonState) { s.Text = text })
}

// SetParams applies a batch update.
func (b *MainButton) SetParams(params MainButtonParams) *MainButton {
	return b.update(func(s *mainButtonState) {
		if params.Text != nil {
			s.Text = *params.Text
		}
		if params.Color != nil {
			s.Color = *params.Color
		}
		if params.TextColor != nil {
			s.TextColor = *params.TextColor
		}
		if params.IsActive != nil {
			s.IsActive = *params.IsActive
		}
		if params.IsVisible != nil {
			s.IsVisible = *params.IsVisible
		}
	})
}

// Show makes the button visible.
func (b *MainButton) Show() *MainButton {
	return b.update(func(s *mainButtonState) { s.IsVisible = true })
}

// Hide hides the button.
func (b *MainButton) Hide() *MainButton {
	return b.update(func(s *mainButtonState) { s.IsVisible = false })
}

// Enable allows presses.
func (b *MainButton) Enable() *MainButton {
	return b.update(func(s *mainButtonState) { s.IsActive = true })
}

// Disable blocks presses without hiding the button.
func (b *MainButton) Disable() *MainButton {
	return b.update(func(s *mainButtonState) { s.IsActive = false })
}

// ShowProgress replaces the label with a spinner. The button stays pressable
// only when leaveActive is true.
func (b *MainButton) ShowProgress(leaveActive bool) *MainButton {
	return b.update(func(s *mainButtonState) {
		s.IsProgressVisible = true
		s.IsActive = leaveActive
	})
}

// HideProgress restores the label and re-enables the button.
func (b *MainButton) HideProgress() *MainButton {
	return b.update(func(s *mainButtonState) {
		s.IsProgressVisible = false
		s.IsActive = true
	})
}

// OnClick registers a press handler.
func (b *MainButton) OnClick(fn func()) *MainButton {
	b.handlers.add(fn)
	return b
}

// OffClick removes a handler registered with OnClick. Pass the exact
// function value originally registered.
func (b *MainButton) OffClick(fn func()) *MainButton {
	b.handlers.remove(fn)
	return b
}

func (b *MainButton) update(mutate func(*mainButtonState)) *MainButton {
	b.mu.Lock()
	mutate(&b.state)
	state := b.state
	b.mu.Unlock()
	b.app.post(cmdSetupMainButton, state)
	return b
}

func (b *MainButton) fireClick() {
	b.handlers.fire()
}

// BackButton controls the back navigation chrome element. Hidden by
// default; pressing it only notifies the app, navigation is the app's job.
type BackButton struct {
	app      *WebApp
	mu       sync.Mutex
	visible  bool
	handlers clickHandlers
}

func (b *BackButton) IsVisible() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.visible
}

// Show makes the back button visible.
func (b *BackButton) Show() *BackButton { return b.setVisible(true) }

// Hide hides the back button.
func (b *BackButton) Hide() *BackButton { return b.setVisible(false) }

// OnClick registers a press handler.
func (b *BackButton) OnClick(fn func()) *BackButton {
	b.handlers.add(fn)
	return b
}

// OffClick removes a handler registered with OnClick.
func (b *BackButton) OffClick(fn func()) *BackButton {
	b.handlers.remove(fn)
	return b
}

func (b *BackButton) setVisible(v bool) *BackButton {
	if !b.app.supports("6.1", "back button") {
		return b
	}
	b.mu.Lock()
	b.visible = v
	b.mu.Unlock()
	b.app.post(cmdSetupBackButton, map[string]bool{"is_visible": v})
	return b
}

func (b *BackButton) fireClick() {
	b.handlers.fire()
}

// SettingsButton controls the settings item in the host's context menu.
type SettingsButton struct {
	app      *WebApp
	mu       sync.Mutex
	visible  bool
	handlers clickHandlers
}

func (b *SettingsButton) IsVisible() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.visible
}

// Show makes the settings item visible.
func (b *SettingsButton) Show() *SettingsButton { return b.setVisible(true) }

// Hide hides the settings item.
func (b *SettingsButton) Hide() *SettingsButton { return b.setVisible(false) }

// OnClick registers a press handler.
func (b *SettingsButton) OnClick(fn func()) *SettingsButton {
	b.handlers.add(fn)
	return b
}

// OffClick removes a handler registered with OnClick.
func (b *SettingsButton) OffClick(fn func()) *SettingsButton {
	b.handlers.remove(fn)
	return b
}

func (b *SettingsButton) setVisible(v bool) *SettingsButton {
	if !b.app.supports("6.10", "settings button") {
		return b
	}
	b.mu.Lock()
	b.visible = v
	b.mu.Unlock()
	b.app.post(cmdSetupSettings, map[string]bool{"is_visible": v})
	return b
}

func (b *SettingsButton) fireClick() {
	b.handlers.fire()
}
