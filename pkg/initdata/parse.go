package initdata

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// Parse decodes a raw launch payload string into its untrusted mirror.
//
// The payload is query-string shaped; the user, receiver and chat fields
// carry JSON objects. Parse checks shape only: auth_date and hash must be
// present, everything else is optional. It does NOT verify the signature —
// the raw string must be sent to a party holding the bot secret for that.
func Parse(raw string) (InitData, error) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return InitData{}, fmt.Errorf("initdata: malformed payload: %w", err)
	}

	var d InitData

	d.Hash = values.Get("hash")
	if d.Hash == "" {
		return InitData{}, fmt.Errorf("initdata: missing required field hash")
	}

	authDate := values.Get("auth_date")
	if authDate == "" {
		return InitData{}, fmt.Errorf("initdata: missing required field auth_date")
	}
	d.AuthDate, err = strconv.ParseInt(authDate, 10, 64)
	if err != nil {
		return InitData{}, fmt.Errorf("initdata: invalid auth_date %q: %w", authDate, err)
	}

	d.QueryID = values.Get("query_id")
	d.ChatType = ChatType(values.Get("chat_type"))
	d.ChatInstance = values.Get("chat_instance")
	d.StartParam = values.Get("start_param")

	if v := values.Get("can_send_after"); v != "" {
		d.CanSendAfter, err = strconv.Atoi(v)
		if err != nil {
			return InitData{}, fmt.Errorf("initdata: invalid can_send_after %q: %w", v, err)
		}
	}

	if v := values.Get("user"); v != "" {
		d.User = new(User)
		if err := json.Unmarshal([]byte(v), d.User); err != nil {
			return InitData{}, fmt.Errorf("initdata: invalid user object: %w", err)
		}
	}
	if v := values.Get("receiver"); v != "" {
		d.Receiver = new(User)
		if err := json.Unmarshal([]byte(v), d.Receiver); err != nil {
			return InitData{}, fmt.Errorf("initdata: invalid receiver object: %w", err)
		}
	}
	if v := values.Get("chat"); v != "" {
		d.Chat = new(Chat)
		if err := json.Unmarshal([]byte(v), d.Chat); err != nil {
			return InitData{}, fmt.Errorf("initdata: invalid chat object: %w", err)
		}
	}

	return d, nil
}
