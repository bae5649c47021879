// Package webapp is a typed client wrapper around the capability object a
// chat-platform host injects into an embedded mini app.
//
// The package implements none of the host's behavior. Commands are forwarded
// through an injected Transport and are fire-and-forget; the host owns all
// state (button visibility, stored values, theme) and reports changes back
// as events which the embedder feeds into HandleEvent. Operations that can
// fail deliver the failure inside their callback — never as a returned or
// raised error — because the host never interrupts control flow on failure.
package webapp

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"sync"

	"github.com/sipeed/miniapp/pkg/initdata"
)

// Transport delivers app→host commands. The embedder wires it to whatever
// carries events to the host (a webview bridge, a message port, a test
// recorder). Implementations must not block on the host's response; there
// is none.
type Transport interface {
	PostEvent(eventType string, eventData any) error
}

// Outgoing host commands.
const (
	cmdReady              = "web_app_ready"
	cmdExpand             = "web_app_expand"
	cmdClose              = "web_app_close"
	cmdClosingBehavior    = "web_app_setup_closing_behavior"
	cmdSetHeaderColor     = "web_app_set_header_color"
	cmdSetBackgroundColor = "web_app_set_background_color"
	cmdDataSend           = "web_app_data_send"
	cmdOpenLink           = "web_app_open_link"
	cmdOpenInternalLink   = "web_app_open_tg_link"
	cmdSwitchInlineQuery  = "web_app_switch_inline_query"
	cmdSetupMainButton    = "web_app_setup_main_button"
	cmdSetupBackButton    = "web_app_setup_back_button"
	cmdSetupSettings      = "web_app_setup_settings_button"
	cmdHapticFeedback     = "web_app_trigger_haptic_feedback"
	cmdOpenPopup          = "web_app_open_popup"
	cmdOpenScanQrPopup    = "web_app_open_scan_qr_popup"
	cmdCloseScanQrPopup   = "web_app_close_scan_qr_popup"
	cmdOpenInvoice        = "web_app_open_invoice"
	cmdRequestWriteAccess = "web_app_request_write_access"
	cmdRequestPhone       = "web_app_request_phone"
	cmdReadClipboard      = "web_app_read_text_from_clipboard"
	cmdInvokeCustomMethod = "web_app_invoke_custom_method"
)

// ColorScheme is the host's overall appearance.
type ColorScheme string

const (
	ColorSchemeLight ColorScheme = "light"
	ColorSchemeDark  ColorScheme = "dark"
)

// Theme slot keys accepted by the color setters alongside literal colors.
const (
	ColorKeyBackground          = "bg_color"
	ColorKeySecondaryBackground = "secondary_bg_color"
)

// ChatType constrains SwitchInlineQuery targets.
type ChatType string

const (
	ChatTypeUsers    ChatType = "users"
	ChatTypeBots     ChatType = "bots"
	ChatTypeGroups   ChatType = "groups"
	ChatTypeChannels ChatType = "channels"
)

// Config carries everything the host hands an app at launch. Transport is
// required; the rest defaults to a minimal host.
type Config struct {
	Transport   Transport
	Version     string // host API version, e.g. "7.0"
	Platform    string // open-ended: "android", "ios", "tdesktop", "weba", ...
	InitData    string // raw signed launch payload, may be empty
	ColorScheme ColorScheme
	ThemeParams ThemeParams
	Logger      *slog.Logger
}

// WebApp is the typed handle to the injected host object. All methods are
// safe for concurrent use; HandleEvent may be called from any goroutine.
type WebApp struct {
	transport Transport
	log       *slog.Logger

	version     string
	platform    string
	rawInitData string
	parsedInit  initdata.InitData

	mu                  sync.RWMutex
	colorScheme         ColorScheme
	theme               ThemeParams
	isExpanded          bool
	viewportHeight      float64
	viewportStable      float64
	headerColor         string
	backgroundColor     string
	closingConfirmation bool

	handlersMu sync.RWMutex
	handlers   map[EventType][]eventHandler

	pending pendingCalls

	mainButton     *MainButton
	backButton     *BackButton
	settingsButton *SettingsButton
	haptic         *HapticFeedback
	cloud          *CloudStorage
}

// New builds a bridge handle from launch data. It fails only when the
// transport is missing or the init payload does not parse; a host that
// omits launch data entirely is legal (the mirror is then zero).
func New(cfg Config) (*WebApp, error) {
	if cfg.Transport == nil {
		return nil, errors.New("webapp: nil transport")
	}

	var parsed initdata.InitData
	if cfg.InitData != "" {
		var err error
		parsed, err = initdata.Parse(cfg.InitData)
		if err != nil {
			return nil, fmt.Errorf("webapp: %w", err)
		}
	}

	version := cfg.Version
	if version == "" {
		version = "6.0"
	}
	scheme := cfg.ColorScheme
	if scheme == "" {
		scheme = ColorSchemeLight
	}
	logger := cfg.Logger
	if logger == nil {
		// slog.DiscardHandler requires Go 1.24; this handler is equivalent
		// (Enabled reports false for every level) on the available toolchain.
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)}))
	}

	w := &WebApp{
		transport:   cfg.Transport,
		log:         logger,
		version:     version,
		platform:    cfg.Platform,
		rawInitData: cfg.InitData,
		parsedInit:  parsed,
		colorScheme: scheme,
		theme:       cfg.ThemeParams,
		handlers:    make(map[EventType][]eventHandler),
	}
	w.pending.init()
	w.mainButton = newMainButton(w)
	w.backButton = &BackButton{app: w}
	w.settingsButton = &SettingsButton{app: w}
	w.haptic = &HapticFeedback{app: w}
	w.cloud = &CloudStorage{app: w}
	return w, nil
}

// InitData returns the raw signed launch payload. This is the value to send
// server-side for verification; never trust the parsed mirror instead.
func (w *WebApp) InitData() string { return w.rawInitData }

// InitDataUnsafe returns the parsed launch payload. The data is exactly
// what the host claims and has not been verified against the signature.
func (w *WebApp) InitDataUnsafe() initdata.InitData { return w.parsedInit }

// Version returns the host API version string.
func (w *WebApp) Version() string { return w.version }

// Platform returns the host platform name. The set is open: hosts add
// platforms without notice, so callers must not treat it as an enumeration.
func (w *WebApp) Platform() string { return w.platform }

func (w *WebApp) ColorScheme() ColorScheme {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.colorScheme
}

func (w *WebApp) ThemeParams() ThemeParams {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.theme
}

func (w *WebApp) IsExpanded() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.isExpanded
}

func (w *WebApp) ViewportHeight() float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.viewportHeight
}

func (w *WebApp) ViewportStableHeight() float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.viewportStable
}

func (w *WebApp) IsClosingConfirmationEnabled() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.closingConfirmation
}

func (w *WebApp) HeaderColor() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.headerColor
}

func (w *WebApp) BackgroundColor() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.backgroundColor
}

// MainButton returns the primary action button controller.
func (w *WebApp) MainButton() *MainButton { return w.mainButton }

// BackButton returns the back navigation button controller.
func (w *WebApp) BackButton() *BackButton { return w.backButton }

// SettingsButton returns the context-menu settings item controller.
func (w *WebApp) SettingsButton() *SettingsButton { return w.settingsButton }

// HapticFeedback returns the device feedback controller.
func (w *WebApp) HapticFeedback() *HapticFeedback { return w.haptic }

// CloudStorage returns the host-managed key-value storage controller.
func (w *WebApp) CloudStorage() *CloudStorage { return w.cloud }

// Ready signals that the app has loaded and the host may hide its loader.
func (w *WebApp) Ready() {
	w.post(cmdReady, nil)
}

// Expand requests expansion to the maximum available height.
func (w *WebApp) Expand() {
	w.post(cmdExpand, nil)
}

// Close asks the host to close the app. There is no way to observe whether
// it happened; if it did, nothing runs afterwards anyway.
func (w *WebApp) Close() {
	w.post(cmdClose, nil)
}

// EnableClosingConfirmation makes the host confirm before closing the app.
func (w *WebApp) EnableClosingConfirmation() {
	w.setClosingConfirmation(true)
}

// DisableClosingConfirmation restores immediate close.
func (w *WebApp) DisableClosingConfirmation() {
	w.setClosingConfirmation(false)
}

func (w *WebApp) setClosingConfirmation(need bool) {
	if !w.supports("6.2", "closing confirmation") {
		return
	}
	w.mu.Lock()
	w.closingConfirmation = need
	w.mu.Unlock()
	w.post(cmdClosingBehavior, map[string]bool{"need_confirmation": need})
}

// SetHeaderColor changes the header color. The argument is either one of the
// theme slot keys (ColorKeyBackground, ColorKeySecondaryBackground) or a
// literal color string; literal strings are forwarded unvalidated.
func (w *WebApp) SetHeaderColor(colorOrKey string) {
	isKey := colorOrKey == ColorKeyBackground || colorOrKey == ColorKeySecondaryBackground
	payload := map[string]string{}
	switch {
	case isKey:
		if !w.supports("6.1", "header color") {
			return
		}
		payload["color_key"] = colorOrKey
	default:
		// Literal colors came later than slot keys.
		if !w.supports("6.9", "custom header color") {
			return
		}
		payload["color"] = colorOrKey
	}
	w.mu.Lock()
	w.headerColor = colorOrKey
	w.mu.Unlock()
	w.post(cmdSetHeaderColor, payload)
}

// SetBackgroundColor changes the app background color. Accepts the same
// slot-key-or-literal argument as SetHeaderColor: slot keys travel under
// the key discriminator so the host resolves them against the theme.
func (w *WebApp) SetBackgroundColor(colorOrKey string) {
	if !w.supports("6.1", "background color") {
		return
	}
	payload := map[string]string{}
	if colorOrKey == ColorKeyBackground || colorOrKey == ColorKeySecondaryBackground {
		payload["color_key"] = colorOrKey
	} else {
		payload["color"] = colorOrKey
	}
	w.mu.Lock()
	w.backgroundColor = colorOrKey
	w.mu.Unlock()
	w.post(cmdSetBackgroundColor, payload)
}

// SendData sends an opaque payload to the controlling bot and closes the
// app. No acknowledgment exists; available only for apps launched from a
// keyboard button.
func (w *WebApp) SendData(data string) {
	w.post(cmdDataSend, map[string]string{"data": data})
}

// OpenLinkOption modifies OpenLink behavior.
type OpenLinkOption func(*openLinkPayload)

type openLinkPayload struct {
	URL            string `json:"url"`
	TryInstantView bool   `json:"try_instant_view,omitempty"`
}

// WithInstantView asks the host to open the link in its in-app preview
// when one is available for the target page.
func WithInstantView() OpenLinkOption {
	return func(p *openLinkPayload) { p.TryInstantView = true }
}

// OpenLink opens an external URL in the device browser.
func (w *WebApp) OpenLink(url string, opts ...OpenLinkOption) {
	p := openLinkPayload{URL: url}
	for _, opt := range opts {
		opt(&p)
	}
	w.post(cmdOpenLink, p)
}

// OpenTelegramLink opens a platform-internal deep link inside the host.
func (w *WebApp) OpenTelegramLink(url string) {
	path := url
	for _, prefix := range []string{"https://t.me", "http://t.me"} {
		if strings.HasPrefix(path, prefix) {
			path = strings.TrimPrefix(path, prefix)
			break
		}
	}
	w.post(cmdOpenInternalLink, map[string]string{"path_full": path})
}

// SwitchInlineQuery inserts the bot's username with the given query into
// the input field of a chat the user picks among the allowed types. With no
// types given, the current chat is used.
func (w *WebApp) SwitchInlineQuery(query string, chatTypes ...ChatType) {
	if !w.supports("6.7", "inline query switch") {
		return
	}
	payload := map[string]any{"query": query}
	if len(chatTypes) > 0 {
		payload["chat_types"] = chatTypes
	}
	w.post(cmdSwitchInlineQuery, payload)
}

// post forwards a command to the host. Failures are logged and swallowed:
// the contract exposes no error channel for commands.
func (w *WebApp) post(eventType string, eventData any) {
	if err := w.transport.PostEvent(eventType, eventData); err != nil {
		w.log.Warn("webapp: transport rejected command",
			"event", eventType, "error", err)
	}
}

// supports gates a command on the host version, mirroring hosts that
// silently ignore methods they predate.
func (w *WebApp) supports(minVersion, feature string) bool {
	if w.IsVersionAtLeast(minVersion) {
		return true
	}
	w.log.Warn("webapp: feature not supported by host version",
		"feature", feature, "host_version", w.version, "requires", minVersion)
	return false
}
