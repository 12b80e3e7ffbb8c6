package gateway

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeInteractionFrame(t *testing.T) {
	raw := `{
		"op": 0, "t": "INTERACTION_CREATE", "s": 42,
		"d": {
			"id": "901", "token": "itoken", "guild_id": "1399747611602194432",
			"member": {
				"user": {"id": "42", "username": "somebody"},
				"nick": "Some Body",
				"roles": ["10", "11"],
				"joined_at": "2025-08-12T10:00:00Z",
				"permissions": "8"
			},
			"data": {"name": "verify"}
		}
	}`

	var f Frame
	require.NoError(t, json.Unmarshal([]byte(raw), &f))
	assert.Equal(t, opDispatch, f.Op)
	assert.Equal(t, EventInteractionCreate, f.T)
	require.NotNil(t, f.S)
	assert.EqualValues(t, 42, *f.S)

	var i Interaction
	require.NoError(t, json.Unmarshal(f.D, &i))
	assert.Equal(t, uint64(901), i.ID)
	assert.Equal(t, uint64(1399747611602194432), i.GuildID)
	assert.Equal(t, "verify", i.Data.Name)
	assert.Equal(t, uint64(42), i.Member.User.ID)
	assert.Equal(t, "Some Body", i.Member.DisplayName())
	assert.True(t, i.Member.HasRole(10))
	assert.False(t, i.Member.HasRole(12))
	assert.True(t, i.Member.IsAdmin())
}

func TestMemberDefaults(t *testing.T) {
	m := Member{User: User{ID: 1, Username: "plain"}}
	assert.Equal(t, "plain", m.DisplayName())
	assert.False(t, m.IsAdmin(), "empty permission field means no admin")
	assert.False(t, m.HasRole(10))
}

func TestDecodeHello(t *testing.T) {
	var f Frame
	require.NoError(t, json.Unmarshal(
		[]byte(`{"op":10,"d":{"heartbeat_interval":41250}}`), &f))
	require.Equal(t, opHello, f.Op)

	var h helloData
	require.NoError(t, json.Unmarshal(f.D, &h))
	assert.Equal(t, 41250, h.HeartbeatInterval)
}

func TestHeartbeatFrame(t *testing.T) {
	b, err := json.Marshal(heartbeatFrame(0))
	require.NoError(t, err)
	assert.JSONEq(t, `{"op":1,"d":null}`, string(b))

	b, err = json.Marshal(heartbeatFrame(17))
	require.NoError(t, err)
	assert.JSONEq(t, `{"op":1,"d":17}`, string(b))
}
