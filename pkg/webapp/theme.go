package webapp

// ThemeParams is a complete palette snapshot from the host. All fields are
// populated on theme_changed; values are CSS-style color strings.
type ThemeParams struct {
	BgColor                string `json:"bg_color"`
	TextColor              string `json:"text_color"`
	HintColor              string `json:"hint_color"`
	LinkColor              string `json:"link_color"`
	ButtonColor            string `json:"button_color"`
	ButtonTextColor        string `json:"button_text_color"`
	SecondaryBgColor       string `json:"secondary_bg_color"`
	HeaderBgColor          string `json:"header_bg_color"`
	AccentTextColor        string `json:"accent_text_color"`
	SectionBgColor         string `json:"section_bg_color"`
	SectionHeaderTextColor string `json:"section_header_text_color"`
	SubtitleTextColor      string `json:"subtitle_text_color"`
	DestructiveTextColor   string `json:"destructive_text_color"`
}
