package webapp

import "reflect"

// EventType names an event the host can deliver to the app. The vocabulary
// is closed; hosts guarantee not to exceed it for a given API version.
type EventType string

const (
	EventThemeChanged          EventType = "themeChanged"
	EventViewportChanged       EventType = "viewportChanged"
	EventMainButtonClicked     EventType = "mainButtonClicked"
	EventBackButtonClicked     EventType = "backButtonClicked"
	EventSettingsButtonClicked EventType = "settingsButtonClicked"
	EventPopupClosed           EventType = "popupClosed"
	EventQRTextReceived        EventType = "qrTextReceived"
	EventScanQrPopupClosed     EventType = "scanQrPopupClosed"
	EventClipboardTextReceived EventType = "clipboardTextReceived"
	EventWriteAccessRequested  EventType = "writeAccessRequested"
	EventContactRequested      EventType = "contactRequested"
	EventInvoiceClosed         EventType = "invoiceClosed"
)

// Event is a typed subscription key: the type parameter pins the payload
// shape a handler for this event must accept, so mismatched pairings fail
// at compile time instead of at dispatch.
type Event[T any] struct {
	name EventType
}

// Name returns the event's name in the public vocabulary.
func (e Event[T]) Name() EventType { return e.name }

// Typed subscription keys, one per event in the vocabulary. Events with no
// payload use struct{}.
var (
	ThemeChanged          = Event[ThemeChangedPayload]{EventThemeChanged}
	ViewportChanged       = Event[ViewportChangedPayload]{EventViewportChanged}
	MainButtonClicked     = Event[struct{}]{EventMainButtonClicked}
	BackButtonClicked     = Event[struct{}]{EventBackButtonClicked}
	SettingsButtonClicked = Event[struct{}]{EventSettingsButtonClicked}
	PopupClosed           = Event[PopupClosedPayload]{EventPopupClosed}
	QRTextReceived        = Event[QRTextReceivedPayload]{EventQRTextReceived}
	ScanQrPopupClosed     = Event[struct{}]{EventScanQrPopupClosed}
	ClipboardTextReceived = Event[ClipboardTextReceivedPayload]{EventClipboardTextReceived}
	WriteAccessRequested  = Event[WriteAccessRequestedPayload]{EventWriteAccessRequested}
	ContactRequested      = Event[ContactRequestedPayload]{EventContactRequested}
	InvoiceClosed         = Event[InvoiceClosedPayload]{EventInvoiceClosed}
)

// ThemeChangedPayload carries the full replacement palette.
type ThemeChangedPayload struct {
	ThemeParams ThemeParams `json:"theme_params"`
}

// ViewportChangedPayload reports the current viewport. Height changes
// stream during expansion gestures; IsStateStable marks the final frame.
type ViewportChangedPayload struct {
	Height        float64 `json:"height"`
	IsStateStable bool    `json:"is_state_stable"`
	IsExpanded    bool    `json:"is_expanded"`
}

// PopupClosedPayload reports which button dismissed a popup. ButtonID is
// nil when the popup was dismissed without pressing a listed button.
type PopupClosedPayload struct {
	ButtonID *string `json:"button_id"`
}

// QRTextReceivedPayload carries one scanned code.
type QRTextReceivedPayload struct {
	Data string `json:"data"`
}

// ClipboardTextReceivedPayload answers a clipboard read. Data is nil both
// when access was denied and when the clipboard was empty; the host does
// not distinguish the two.
type ClipboardTextReceivedPayload struct {
	ReqID string  `json:"req_id"`
	Data  *string `json:"data"`
}

// WriteAccessRequestedPayload reports the outcome of a write-access
// request.
type WriteAccessRequestedPayload struct {
	Status string `json:"status"` // "allowed" | "cancelled"
}

// ContactRequestedPayload reports the outcome of a phone-share request.
type ContactRequestedPayload struct {
	Status string `json:"status"` // "sent" | "cancelled"
}

// InvoiceStatus is the closed set of invoice outcomes.
type InvoiceStatus string

const (
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceCancelled InvoiceStatus = "cancelled"
	InvoiceFailed    InvoiceStatus = "failed"
	InvoicePending   InvoiceStatus = "pending"
)

// InvoiceClosedPayload reports a finished invoice flow.
type InvoiceClosedPayload struct {
	URL    string        `json:"url"`
	Status InvoiceStatus `json:"status"`
}

type eventHandler struct {
	id   uintptr
	call func(payload any)
}

// On registers handler for ev. Every call appends a registration, even for
// a function value already registered; unregister with Off.
func On[T any](w *WebApp, ev Event[T], handler func(T)) {
	if handler == nil {
		return
	}
	w.handlersMu.Lock()
	defer w.handlersMu.Unlock()
	w.handlers[ev.name] = append(w.handlers[ev.name], eventHandler{
		id: reflect.ValueOf(handler).Pointer(),
		call: func(payload any) {
			if p, ok := payload.(T); ok {
				handler(p)
			}
		},
	})
}

// Off removes a previously registered handler, matching by function
// identity: pass the exact function value given to On. At most the first
// match is removed. The match is on the function's code pointer, so two
// closures built from the same literal are indistinguishable here; keep
// the registered value around when handlers need individual removal.
func Off[T any](w *WebApp, ev Event[T], handler func(T)) {
	if handler == nil {
		return
	}
	id := reflect.ValueOf(handler).Pointer()
	w.handlersMu.Lock()
	defer w.handlersMu.Unlock()
	hs := w.handlers[ev.name]
	for i, h := range hs {
		if h.id == id {
			w.handlers[ev.name] = append(hs[:i], hs[i+1:]...)
			return
		}
	}
}

// emit fans a payload out to subscribers. Handlers run outside the
// registry lock so they may re-register or unregister freely.
func (w *WebApp) emit(name EventType, payload any) {
	w.handlersMu.RLock()
	hs := make([]eventHandler, len(w.handlers[name]))
	copy(hs, w.handlers[name])
	w.handlersMu.RUnlock()
	for _, h := range hs {
		h.call(payload)
	}
}
