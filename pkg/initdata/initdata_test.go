package initdata_test

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipeed/miniapp/pkg/initdata"
)

func TestParseFullPayload(t *testing.T) {
	v := url.Values{}
	v.Set("query_id", "AAH9mUEexampleQ")
	v.Set("user", `{"id":279058397,"first_name":"Vladislav","last_name":"K","username":"vdkfrost","language_code":"ru","is_premium":true,"photo_url":"https://cdn.example/u.jpg"}`)
	v.Set("chat", `{"id":-100123456789,"type":"supergroup","title":"Dev Chat","username":"devchat"}`)
	v.Set("chat_type", "supergroup")
	v.Set("chat_instance", "8428209589180549439")
	v.Set("start_param", "ref_42")
	v.Set("can_send_after", "10")
	v.Set("auth_date", "1662771648")
	v.Set("hash", "c501b71e775f74ce10e377dea85a7ea2")

	d, err := initdata.Parse(v.Encode())
	require.NoError(t, err)

	assert.Equal(t, "AAH9mUEexampleQ", d.QueryID)
	require.NotNil(t, d.User)
	assert.Equal(t, int64(279058397), d.User.ID)
	assert.Equal(t, "Vladislav", d.User.FirstName)
	assert.Equal(t, "ru", d.User.LanguageCode)
	assert.True(t, d.User.IsPremium)
	require.NotNil(t, d.Chat)
	assert.Equal(t, initdata.ChatTypeSupergroup, d.Chat.Type)
	assert.Equal(t, "Dev Chat", d.Chat.Title)
	assert.Equal(t, initdata.ChatTypeSupergroup, d.ChatType)
	assert.Equal(t, "ref_42", d.StartParam)
	assert.Equal(t, 10, d.CanSendAfter)
	assert.Equal(t, int64(1662771648), d.AuthDate)
	assert.Equal(t, "c501b71e775f74ce10e377dea85a7ea2", d.Hash)
}

// auth_date and hash are the only required fields; every optional field may
// legitimately be absent.
func TestParseMinimalPayload(t *testing.T) {
	d, err := initdata.Parse("auth_date=1662771648&hash=abc")
	require.NoError(t, err)

	assert.Nil(t, d.User)
	assert.Nil(t, d.Receiver)
	assert.Nil(t, d.Chat)
	assert.Empty(t, d.QueryID)
	assert.Empty(t, d.StartParam)
	assert.Zero(t, d.CanSendAfter)
}

func TestParseMissingRequiredFields(t *testing.T) {
	_, err := initdata.Parse("hash=abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth_date")

	_, err = initdata.Parse("auth_date=1662771648")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hash")
}

func TestParseRejectsBadFieldShapes(t *testing.T) {
	_, err := initdata.Parse("auth_date=notanumber&hash=abc")
	require.Error(t, err)

	v := url.Values{}
	v.Set("auth_date", "1662771648")
	v.Set("hash", "abc")
	v.Set("user", "{not json")
	_, err = initdata.Parse(v.Encode())
	require.Error(t, err)

	v.Set("user", "{}")
	v.Set("can_send_after", "soon")
	_, err = initdata.Parse(v.Encode())
	require.Error(t, err)
}

func TestParseReceiver(t *testing.T) {
	v := url.Values{}
	v.Set("receiver", `{"id":987654,"first_name":"Bot","is_bot":true}`)
	v.Set("chat_type", "sender")
	v.Set("auth_date", "1662771648")
	v.Set("hash", "abc")

	d, err := initdata.Parse(v.Encode())
	require.NoError(t, err)
	require.NotNil(t, d.Receiver)
	assert.True(t, d.Receiver.IsBot)
	assert.Equal(t, initdata.ChatTypeSender, d.ChatType)
}

func TestAuthTime(t *testing.T) {
	d := initdata.InitData{AuthDate: 1662771648}
	assert.Equal(t, time.Unix(1662771648, 0), d.AuthTime())
}

// Chat.Type is a closed three-value set; fixtures for each value must
// decode, and the set must not silently widen.
func TestChatTypeVocabulary(t *testing.T) {
	for _, ct := range []initdata.ChatType{
		initdata.ChatTypeGroup,
		initdata.ChatTypeSupergroup,
		initdata.ChatTypeChannel,
	} {
		v := url.Values{}
		v.Set("chat", `{"id":1,"type":"`+string(ct)+`","title":"c"}`)
		v.Set("auth_date", "1")
		v.Set("hash", "h")
		d, err := initdata.Parse(v.Encode())
		require.NoError(t, err)
		assert.Equal(t, ct, d.Chat.Type)
	}
}
