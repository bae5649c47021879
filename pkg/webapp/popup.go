package webapp

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// PopupButtonType is the closed set of button roles in a host popup.
type PopupButtonType string

const (
	PopupButtonDefault     PopupButtonType = "default"
	PopupButtonOK          PopupButtonType = "ok"
	PopupButtonClose       PopupButtonType = "close"
	PopupButtonCancel      PopupButtonType = "cancel"
	PopupButtonDestructive PopupButtonType = "destructive"
)

// PopupButton describes one button in a host popup. Text is required for
// the "default" and "destructive" roles; the host supplies localized labels
// for the rest.
type PopupButton struct {
	ID   string          `json:"id,omitempty"`
	Type PopupButtonType `json:"type,omitempty"`
	Text string          `json:"text,omitempty"`
}

// PopupParams describes a host-rendered popup: a title, a message and up
// to three buttons.
type PopupParams struct {
	Title   string        `json:"title,omitempty"`
	Message string        `json:"message"`
	Buttons []PopupButton `json:"buttons,omitempty"`
}

// ShowPopup opens a popup. cb receives the id of the pressed button, or
// nil when the popup was dismissed some other way. Only one popup can be
// open: a request made while one is pending is dropped with a warning,
// since the host exposes no failure channel for it.
func (w *WebApp) ShowPopup(params PopupParams, cb func(buttonID *string)) {
	if !w.supports("6.2", "popup") {
		return
	}
	w.pending.mu.Lock()
	if w.pending.popup != nil {
		w.pending.mu.Unlock()
		w.log.Warn("webapp: popup already open, request dropped")
		return
	}
	w.pending.popup = cb
	if cb == nil {
		// Keep the slot occupied so a second popup is still refused.
		w.pending.popup = func(*string) {}
	}
	w.pending.mu.Unlock()
	w.post(cmdOpenPopup, params)
}

// ShowAlert opens a message with a single close button. cb, if non-nil,
// runs when the alert is dismissed.
func (w *WebApp) ShowAlert(message string, cb func()) {
	w.ShowPopup(PopupParams{
		Message: message,
		Buttons: []PopupButton{{Type: PopupButtonClose}},
	}, func(*string) {
		if cb != nil {
			cb()
		}
	})
}

// ShowConfirm opens a message with OK and Cancel buttons. cb receives true
// only when OK was pressed.
func (w *WebApp) ShowConfirm(message string, cb func(ok bool)) {
	w.ShowPopup(PopupParams{
		Message: message,
		Buttons: []PopupButton{
			{ID: "ok", Type: PopupButtonOK},
			{ID: "cancel", Type: PopupButtonCancel},
		},
	}, func(buttonID *string) {
		if cb != nil {
			cb(buttonID != nil && *buttonID == "ok")
		}
	})
}

func (w *WebApp) resolvePopup(buttonID *string) {
	w.pending.mu.Lock()
	cb := w.pending.popup
	w.pending.popup = nil
	w.pending.mu.Unlock()
	if cb != nil {
		cb(buttonID)
	}
}

// ShowScanQrPopup opens the QR scanner, optionally showing prompt text.
// cb runs for every scanned code; returning true keeps the scanner open
// for further codes, anything else makes the wrapper close it. A nil cb
// leaves the scanner open and delivers codes through events only.
func (w *WebApp) ShowScanQrPopup(text string, cb func(data string) bool) {
	if !w.supports("6.4", "QR scanner") {
		return
	}
	w.pending.mu.Lock()
	w.pending.qr = cb
	w.pending.mu.Unlock()
	payload := map[string]string{}
	if text != "" {
		payload["text"] = text
	}
	w.post(cmdOpenScanQrPopup, payload)
}

// CloseScanQrPopup closes the QR scanner.
func (w *WebApp) CloseScanQrPopup() {
	if !w.supports("6.4", "QR scanner") {
		return
	}
	w.pending.mu.Lock()
	w.pending.qr = nil
	w.pending.mu.Unlock()
	w.post(cmdCloseScanQrPopup, nil)
}

func (w *WebApp) resolveQRText(data string) {
	w.pending.mu.Lock()
	cb := w.pending.qr
	w.pending.mu.Unlock()
	if cb == nil {
		return
	}
	if !cb(data) {
		w.CloseScanQrPopup()
	}
}

func (w *WebApp) resolveScanQrClosed() {
	w.pending.mu.Lock()
	w.pending.qr = nil
	w.pending.mu.Unlock()
}

// ReadTextFromClipboard asks the host for the clipboard text. cb receives
// nil both when the app may not read the clipboard and when the clipboard
// is empty; the host does not tell those apart and neither does this
// wrapper. Available to apps launched from the attachment menu.
func (w *WebApp) ReadTextFromClipboard(cb func(text *string)) {
	if !w.supports("6.4", "clipboard read") {
		return
	}
	reqID := uuid.NewString()
	if cb != nil {
		w.pending.mu.Lock()
		w.pending.clipboard[reqID] = cb
		w.pending.mu.Unlock()
	}
	w.post(cmdReadClipboard, map[string]string{"req_id": reqID})
}

func (w *WebApp) resolveClipboard(reqID string, text *string) {
	w.pending.mu.Lock()
	cb, ok := w.pending.clipboard[reqID]
	if ok {
		delete(w.pending.clipboard, reqID)
	}
	w.pending.mu.Unlock()
	if ok {
		cb(text)
	}
}

// RequestWriteAccess asks the user to let the bot message them. cb, if
// non-nil, receives the outcome as a bare boolean; a denial carries no
// message by contract.
func (w *WebApp) RequestWriteAccess(cb func(granted bool)) {
	if !w.supports("6.9", "write access request") {
		return
	}
	w.pending.mu.Lock()
	w.pending.writeAccess = append(w.pending.writeAccess, cb)
	w.pending.mu.Unlock()
	w.post(cmdRequestWriteAccess, nil)
}

func (w *WebApp) resolveWriteAccess(granted bool) {
	w.pending.mu.Lock()
	var cb func(bool)
	if len(w.pending.writeAccess) > 0 {
		cb = w.pending.writeAccess[0]
		w.pending.writeAccess = w.pending.writeAccess[1:]
	}
	w.pending.mu.Unlock()
	if cb != nil {
		cb(granted)
	}
}

// Contact is the unsafe parsed mirror of a shared phone contact.
type Contact struct {
	UserID      int64  `json:"user_id"`
	PhoneNumber string `json:"phone_number"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name,omitempty"`
}

// RequestedContact is the signed contact payload the host hands over after
// the user agrees to share their phone number. Raw is the only field to
// trust for verification, same as the launch payload.
type RequestedContact struct {
	Raw      string
	Contact  Contact
	AuthDate int64
	Hash     string
}

// RequestContact asks the user to share their phone number with the bot.
// On success cb additionally receives the signed contact data; on refusal
// the contact is nil.
func (w *WebApp) RequestContact(cb func(granted bool, contact *RequestedContact)) {
	if !w.supports("6.9", "contact request") {
		return
	}
	w.pending.mu.Lock()
	w.pending.phone = append(w.pending.phone, func(granted bool) {
		if cb == nil {
			return
		}
		if !granted {
			cb(false, nil)
			return
		}
		w.fetchRequestedContact(cb)
	})
	w.pending.mu.Unlock()
	w.post(cmdRequestPhone, nil)
}

func (w *WebApp) resolvePhone(granted bool) {
	w.pending.mu.Lock()
	var cb func(bool)
	if len(w.pending.phone) > 0 {
		cb = w.pending.phone[0]
		w.pending.phone = w.pending.phone[1:]
	}
	w.pending.mu.Unlock()
	if cb != nil {
		cb(granted)
	}
}

// fetchRequestedContact pulls the signed contact payload over the custom
// method channel once the user has agreed.
func (w *WebApp) fetchRequestedContact(cb func(granted bool, contact *RequestedContact)) {
	w.invokeCustomMethod("getRequestedContact", struct{}{},
		func(result gjson.Result, err error) {
			if err != nil {
				w.log.Warn("webapp: contact fetch failed", "error", err)
				cb(true, nil)
				return
			}
			cb(true, parseRequestedContact(result.String(), w))
		})
}

// parseRequestedContact decodes the query-string-shaped signed contact
// payload. A payload that does not decode still reaches the caller via
// Raw; the mirror fields are then zero.
func parseRequestedContact(raw string, w *WebApp) *RequestedContact {
	rc := &RequestedContact{Raw: raw}
	values, err := url.ParseQuery(raw)
	if err != nil {
		w.log.Warn("webapp: malformed contact payload", "error", err)
		return rc
	}
	rc.Hash = values.Get("hash")
	if v := values.Get("auth_date"); v != "" {
		rc.AuthDate, _ = strconv.ParseInt(v, 10, 64)
	}
	if v := values.Get("contact"); v != "" {
		if err := json.Unmarshal([]byte(v), &rc.Contact); err != nil {
			w.log.Warn("webapp: malformed contact object", "error", err)
		}
	}
	return rc
}

// OpenInvoice opens a payment invoice by its URL or slug. cb, if non-nil,
// receives the closed set of outcomes once the invoice flow finishes.
func (w *WebApp) OpenInvoice(invoiceURL string, cb func(status InvoiceStatus)) {
	if !w.supports("6.1", "invoice") {
		return
	}
	slug := invoiceSlug(invoiceURL)
	w.pending.mu.Lock()
	w.pending.invoices[slug] = pendingInvoice{url: invoiceURL, cb: cb}
	w.pending.mu.Unlock()
	w.post(cmdOpenInvoice, map[string]string{"slug": slug})
}

// resolveInvoice returns the URL the flow was opened with, or "" for a
// slug this bridge never issued: a slug is not a URL and must not be
// passed off as one.
func (w *WebApp) resolveInvoice(slug string, status InvoiceStatus) string {
	w.pending.mu.Lock()
	p, ok := w.pending.invoices[slug]
	if ok {
		delete(w.pending.invoices, slug)
	}
	w.pending.mu.Unlock()
	if !ok {
		return ""
	}
	if p.cb != nil {
		p.cb(status)
	}
	return p.url
}

// invoiceSlug extracts the slug from an invoice deep link. Bare slugs pass
// through unchanged.
func invoiceSlug(invoiceURL string) string {
	s := invoiceURL
	if i := strings.LastIndex(s, "/"); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimPrefix(s, "$")
}
