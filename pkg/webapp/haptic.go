package webapp

// ImpactStyle selects the collision strength for impact feedback.
type ImpactStyle string

const (
	ImpactLight  ImpactStyle = "light"
	ImpactMedium ImpactStyle = "medium"
	ImpactHeavy  ImpactStyle = "heavy"
	ImpactRigid  ImpactStyle = "rigid"
	ImpactSoft   ImpactStyle = "soft"
)

// NotificationType selects the tone for notification feedback.
type NotificationType string

const (
	NotificationError   NotificationType = "error"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
)

// HapticFeedback triggers device vibration through the host. It holds no
// state; every call is a bare trigger the host may honor or ignore.
type HapticFeedback struct {
	app *WebApp
}

type hapticPayload struct {
	Type             string           `json:"type"`
	ImpactStyle      ImpactStyle      `json:"impact_style,omitempty"`
	NotificationType NotificationType `json:"notification_type,omitempty"`
}

// ImpactOccurred signals a collision of UI elements.
func (h *HapticFeedback) ImpactOccurred(style ImpactStyle) *HapticFeedback {
	return h.trigger(hapticPayload{Type: "impact", ImpactStyle: style})
}

// NotificationOccurred signals a completed task or action.
func (h *HapticFeedback) NotificationOccurred(typ NotificationType) *HapticFeedback {
	return h.trigger(hapticPayload{Type: "notification", NotificationType: typ})
}

// SelectionChanged signals the user moving through a set of choices. Use it
// on selection change only, not on make or confirm.
func (h *HapticFeedback) SelectionChanged() *HapticFeedback {
	return h.trigger(hapticPayload{Type: "selection_change"})
}

func (h *HapticFeedback) trigger(p hapticPayload) *HapticFeedback {
	if !h.app.supports("6.1", "haptic feedback") {
		return h
	}
	h.app.post(cmdHapticFeedback, p)
	return h
}
