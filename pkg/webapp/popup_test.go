package webapp_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/sipeed/miniapp/pkg/webapp"
)

func TestShowPopupPayloadAndCallback(t *testing.T) {
	w, tr := newTestApp(t, "6.2")

	var got *string
	w.ShowPopup(webapp.PopupParams{
		Title:   "Delete?",
		Message: "This cannot be undone.",
		Buttons: []webapp.PopupButton{
			{ID: "del", Type: webapp.PopupButtonDestructive, Text: "Delete"},
			{ID: "keep", Type: webapp.PopupButtonCancel},
		},
	}, func(buttonID *string) { got = buttonID })

	ev, ok := tr.lastOf("web_app_open_popup")
	require.True(t, ok)
	assert.Equal(t, "Delete?", gjson.GetBytes(ev.Data, "title").String())
	buttons := gjson.GetBytes(ev.Data, "buttons").Array()
	require.Len(t, buttons, 2)
	assert.Equal(t, "destructive", buttons[0].Get("type").String())

	w.HandleEvent("popup_closed", []byte(`{"button_id":"del"}`))
	require.NotNil(t, got)
	assert.Equal(t, "del", *got)
}

// Only one popup can be pending; the second request is dropped silently
// (warn log only), matching a host with no failure channel.
func TestSecondPopupDropped(t *testing.T) {
	w, tr := newTestApp(t, "6.2")

	w.ShowPopup(webapp.PopupParams{Message: "first"}, nil)
	w.ShowPopup(webapp.PopupParams{Message: "second"}, nil)

	count := 0
	for _, ev := range tr.posted {
		if ev.Type == "web_app_open_popup" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestPopupReusableAfterClose(t *testing.T) {
	w, tr := newTestApp(t, "6.2")

	w.ShowPopup(webapp.PopupParams{Message: "first"}, nil)
	w.HandleEvent("popup_closed", []byte(`{}`))
	w.ShowPopup(webapp.PopupParams{Message: "second"}, nil)

	ev, ok := tr.lastOf("web_app_open_popup")
	require.True(t, ok)
	assert.Equal(t, "second", gjson.GetBytes(ev.Data, "message").String())
}

func TestShowAlert(t *testing.T) {
	w, tr := newTestApp(t, "6.2")

	done := false
	w.ShowAlert("saved", func() { done = true })

	ev, ok := tr.lastOf("web_app_open_popup")
	require.True(t, ok)
	buttons := gjson.GetBytes(ev.Data, "buttons").Array()
	require.Len(t, buttons, 1)
	assert.Equal(t, "close", buttons[0].Get("type").String())

	w.HandleEvent("popup_closed", []byte(`{}`))
	assert.True(t, done)
}

func TestShowConfirm(t *testing.T) {
	cases := []struct {
		payload string
		want    bool
	}{
		{`{"button_id":"ok"}`, true},
		{`{"button_id":"cancel"}`, false},
		{`{}`, false},
	}
	for _, c := range cases {
		w, _ := newTestApp(t, "6.2")
		var got bool
		w.ShowConfirm("sure?", func(ok bool) { got = ok })
		w.HandleEvent("popup_closed", []byte(c.payload))
		assert.Equal(t, c.want, got, "payload %s", c.payload)
	}
}

func TestPopupGatedOnOldHost(t *testing.T) {
	w, tr := newTestApp(t, "6.1")

	w.ShowAlert("hi", nil)

	assert.Zero(t, tr.count())
}

// Returning true from the scan callback keeps the scanner open; anything
// else makes the wrapper close it.
func TestScanQrContinuation(t *testing.T) {
	w, tr := newTestApp(t, "6.4")

	var scans []string
	w.ShowScanQrPopup("point at a code", func(data string) bool {
		scans = append(scans, data)
		return len(scans) < 2
	})

	ev, ok := tr.lastOf("web_app_open_scan_qr_popup")
	require.True(t, ok)
	assert.Equal(t, "point at a code", gjson.GetBytes(ev.Data, "text").String())

	w.HandleEvent("qr_text_received", []byte(`{"data":"one"}`))
	_, closed := tr.lastOf("web_app_close_scan_qr_popup")
	assert.False(t, closed, "scanner must stay open while callback returns true")

	w.HandleEvent("qr_text_received", []byte(`{"data":"two"}`))
	_, closed = tr.lastOf("web_app_close_scan_qr_popup")
	assert.True(t, closed)
	assert.Equal(t, []string{"one", "two"}, scans)
}

// Once the host reports the scanner closed, stale scan events reach no
// callback.
func TestScanQrClosedByHost(t *testing.T) {
	w, _ := newTestApp(t, "6.4")

	scans := 0
	w.ShowScanQrPopup("", func(string) bool { scans++; return true })

	w.HandleEvent("scan_qr_popup_closed", nil)
	w.HandleEvent("qr_text_received", []byte(`{"data":"late"}`))

	assert.Zero(t, scans)
}

func TestReadTextFromClipboard(t *testing.T) {
	w, tr := newTestApp(t, "6.4")

	var got *string
	called := false
	w.ReadTextFromClipboard(func(text *string) {
		called = true
		got = text
	})

	ev, ok := tr.lastOf("web_app_read_text_from_clipboard")
	require.True(t, ok)
	reqID := gjson.GetBytes(ev.Data, "req_id").String()
	require.NotEmpty(t, reqID)

	w.HandleEvent("clipboard_text_received", []byte(`{"req_id":"`+reqID+`","data":"copied"}`))
	require.True(t, called)
	require.NotNil(t, got)
	assert.Equal(t, "copied", *got)
}

// nil covers both denied access and an empty clipboard; the contract does
// not tell them apart.
func TestReadTextFromClipboardNull(t *testing.T) {
	w, tr := newTestApp(t, "6.4")

	var got *string
	called := false
	w.ReadTextFromClipboard(func(text *string) {
		called = true
		got = text
	})

	ev, _ := tr.lastOf("web_app_read_text_from_clipboard")
	reqID := gjson.GetBytes(ev.Data, "req_id").String()

	w.HandleEvent("clipboard_text_received", []byte(`{"req_id":"`+reqID+`","data":null}`))
	require.True(t, called)
	assert.Nil(t, got)
}

func TestRequestWriteAccess(t *testing.T) {
	w, tr := newTestApp(t, "6.9")

	var granted *bool
	w.RequestWriteAccess(func(ok bool) { granted = &ok })

	_, ok := tr.lastOf("web_app_request_write_access")
	require.True(t, ok)

	w.HandleEvent("write_access_requested", []byte(`{"status":"allowed"}`))
	require.NotNil(t, granted)
	assert.True(t, *granted)
}

func TestRequestWriteAccessDenied(t *testing.T) {
	w, _ := newTestApp(t, "6.9")

	var granted *bool
	w.RequestWriteAccess(func(ok bool) { granted = &ok })

	w.HandleEvent("write_access_requested", []byte(`{"status":"cancelled"}`))
	require.NotNil(t, granted)
	assert.False(t, *granted)
}

func TestRequestContactDeclined(t *testing.T) {
	w, tr := newTestApp(t, "6.9")

	var gotGranted bool
	var gotContact *webapp.RequestedContact
	called := false
	w.RequestContact(func(granted bool, contact *webapp.RequestedContact) {
		called = true
		gotGranted, gotContact = granted, contact
	})

	_, ok := tr.lastOf("web_app_request_phone")
	require.True(t, ok)

	w.HandleEvent("phone_requested", []byte(`{"status":"cancelled"}`))
	require.True(t, called)
	assert.False(t, gotGranted)
	assert.Nil(t, gotContact)
}

// A granted phone request pulls the signed contact payload through the
// custom-method channel and hands both the raw and mirrored forms over.
func TestRequestContactShared(t *testing.T) {
	w, tr := newTestApp(t, "6.9")

	var gotContact *webapp.RequestedContact
	w.RequestContact(func(granted bool, contact *webapp.RequestedContact) {
		require.True(t, granted)
		gotContact = contact
	})

	w.HandleEvent("phone_requested", []byte(`{"status":"sent"}`))

	method, reqID, _ := lastCustomMethod(t, tr)
	require.Equal(t, "getRequestedContact", method)

	v := url.Values{}
	v.Set("contact", `{"user_id":279058397,"phone_number":"+15550100","first_name":"Vladislav"}`)
	v.Set("auth_date", "1687183506")
	v.Set("hash", "deadbeef")
	raw := v.Encode()

	answer(w, reqID, `"`+raw+`"`, "")

	require.NotNil(t, gotContact)
	assert.Equal(t, raw, gotContact.Raw)
	assert.Equal(t, "+15550100", gotContact.Contact.PhoneNumber)
	assert.Equal(t, int64(279058397), gotContact.Contact.UserID)
	assert.Equal(t, int64(1687183506), gotContact.AuthDate)
	assert.Equal(t, "deadbeef", gotContact.Hash)
}

func TestOpenInvoice(t *testing.T) {
	w, tr := newTestApp(t, "6.1")

	var got webapp.InvoiceStatus
	w.OpenInvoice("https://t.me/$abcDEF123", func(status webapp.InvoiceStatus) { got = status })

	ev, ok := tr.lastOf("web_app_open_invoice")
	require.True(t, ok)
	assert.Equal(t, "abcDEF123", gjson.GetBytes(ev.Data, "slug").String())

	var payload webapp.InvoiceClosedPayload
	webapp.On(w, webapp.InvoiceClosed, func(p webapp.InvoiceClosedPayload) { payload = p })

	w.HandleEvent("invoice_closed", []byte(`{"slug":"abcDEF123","status":"paid"}`))
	assert.Equal(t, webapp.InvoicePaid, got)
	assert.Equal(t, "https://t.me/$abcDEF123", payload.URL)
	assert.Equal(t, webapp.InvoicePaid, payload.Status)
}

// An invoice_closed for a slug this bridge never opened carries no URL:
// subscribers must not receive the bare slug where a URL belongs.
func TestInvoiceClosedUnknownSlug(t *testing.T) {
	w, _ := newTestApp(t, "6.1")

	var payload webapp.InvoiceClosedPayload
	called := false
	webapp.On(w, webapp.InvoiceClosed, func(p webapp.InvoiceClosedPayload) {
		called = true
		payload = p
	})

	w.HandleEvent("invoice_closed", []byte(`{"slug":"stranger","status":"failed"}`))

	require.True(t, called)
	assert.Empty(t, payload.URL)
	assert.Equal(t, webapp.InvoiceFailed, payload.Status)
}

func TestPermissionRequestsGatedOnOldHost(t *testing.T) {
	w, tr := newTestApp(t, "6.4")

	w.RequestWriteAccess(nil)
	w.RequestContact(nil)

	assert.Zero(t, tr.count())
}
