package webapp

import (
	"encoding/json"
	"sync"

	"github.com/tidwall/gjson"
)

// Incoming host events (wire names). The host speaks snake_case; the
// public subscription vocabulary in events.go is the documented camelCase.
const (
	evThemeChanged          = "theme_changed"
	evViewportChanged       = "viewport_changed"
	evMainButtonPressed     = "main_button_pressed"
	evBackButtonPressed     = "back_button_pressed"
	evSettingsButtonPressed = "settings_button_pressed"
	evPopupClosed           = "popup_closed"
	evScanQrPopupClosed     = "scan_qr_popup_closed"
	evQRTextReceived        = "qr_text_received"
	evClipboardTextReceived = "clipboard_text_received"
	evWriteAccessRequested  = "write_access_requested"
	evPhoneRequested        = "phone_requested"
	evCustomMethodInvoked   = "custom_method_invoked"
	evInvoiceClosed         = "invoice_closed"
)

// pendingCalls tracks one-shot continuations for host operations that
// answer with an event. Each entry fires exactly once.
type pendingCalls struct {
	mu          sync.Mutex
	popup       func(buttonID *string)
	qr          func(data string) bool
	clipboard   map[string]func(text *string)
	custom      map[string]func(result gjson.Result, errMsg string)
	writeAccess []func(granted bool)
	phone       []func(granted bool)
	invoices    map[string]pendingInvoice
}

type pendingInvoice struct {
	url string
	cb  func(InvoiceStatus)
}

func (p *pendingCalls) init() {
	p.clipboard = make(map[string]func(*string))
	p.custom = make(map[string]func(gjson.Result, string))
	p.invoices = make(map[string]pendingInvoice)
}

// HandleEvent feeds one raw host event into the bridge. The embedder calls
// it with the wire event name and the (possibly empty) JSON payload. State
// mirrors update first, then pending one-shot callbacks resolve, then
// subscribers registered via On run. Unknown events are logged and dropped.
func (w *WebApp) HandleEvent(eventType string, data []byte) {
	switch eventType {
	case evThemeChanged:
		var p ThemeChangedPayload
		if err := json.Unmarshal(data, &p); err != nil {
			w.logBadPayload(eventType, err)
			return
		}
		w.mu.Lock()
		w.theme = p.ThemeParams
		w.mu.Unlock()
		w.emit(EventThemeChanged, p)

	case evViewportChanged:
		var p ViewportChangedPayload
		if err := json.Unmarshal(data, &p); err != nil {
			w.logBadPayload(eventType, err)
			return
		}
		w.mu.Lock()
		w.viewportHeight = p.Height
		w.isExpanded = p.IsExpanded
		if p.IsStateStable {
			w.viewportStable = p.Height
		}
		w.mu.Unlock()
		w.emit(EventViewportChanged, p)

	case evMainButtonPressed:
		w.mainButton.fireClick()
		w.emit(EventMainButtonClicked, struct{}{})

	case evBackButtonPressed:
		w.backButton.fireClick()
		w.emit(EventBackButtonClicked, struct{}{})

	case evSettingsButtonPressed:
		w.settingsButton.fireClick()
		w.emit(EventSettingsButtonClicked, struct{}{})

	case evPopupClosed:
		var p PopupClosedPayload
		if len(data) > 0 {
			if err := json.Unmarshal(data, &p); err != nil {
				w.logBadPayload(eventType, err)
				return
			}
		}
		w.resolvePopup(p.ButtonID)
		w.emit(EventPopupClosed, p)

	case evScanQrPopupClosed:
		w.resolveScanQrClosed()
		w.emit(EventScanQrPopupClosed, struct{}{})

	case evQRTextReceived:
		var p QRTextReceivedPayload
		if err := json.Unmarshal(data, &p); err != nil {
			w.logBadPayload(eventType, err)
			return
		}
		w.resolveQRText(p.Data)
		w.emit(EventQRTextReceived, p)

	case evClipboardTextReceived:
		var p ClipboardTextReceivedPayload
		if err := json.Unmarshal(data, &p); err != nil {
			w.logBadPayload(eventType, err)
			return
		}
		w.resolveClipboard(p.ReqID, p.Data)
		w.emit(EventClipboardTextReceived, p)

	case evWriteAccessRequested:
		status := gjson.GetBytes(data, "status").String()
		w.resolveWriteAccess(status == "allowed")
		w.emit(EventWriteAccessRequested, WriteAccessRequestedPayload{Status: status})

	case evPhoneRequested:
		status := gjson.GetBytes(data, "status").String()
		w.resolvePhone(status == "sent")
		w.emit(EventContactRequested, ContactRequestedPayload{Status: status})

	case evCustomMethodInvoked:
		res := gjson.GetBytes(data, "req_id")
		w.resolveCustomMethod(res.String(),
			gjson.GetBytes(data, "result"),
			gjson.GetBytes(data, "error").String())

	case evInvoiceClosed:
		slug := gjson.GetBytes(data, "slug").String()
		status := InvoiceStatus(gjson.GetBytes(data, "status").String())
		url := w.resolveInvoice(slug, status)
		w.emit(EventInvoiceClosed, InvoiceClosedPayload{URL: url, Status: status})

	default:
		w.log.Debug("webapp: unknown host event", "event", eventType)
	}
}

func (w *WebApp) logBadPayload(eventType string, err error) {
	w.log.Warn("webapp: undecodable host event payload",
		"event", eventType, "error", err)
}
