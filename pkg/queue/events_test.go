package queue

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageDecode(t *testing.T) {
	event, err := NewEvent(EventFollowCreated, FollowEventData{FollowerID: "a", FollowingID: "b"})
	require.NoError(t, err)

	body, err := json.Marshal(event)
	require.NoError(t, err)

	decoded, err := Message{Key: "a", Value: body}.Decode()
	require.NoError(t, err)
	assert.Equal(t, EventFollowCreated, decoded.Type)

	var data FollowEventData
	require.NoError(t, decoded.Unmarshal(&data))
	assert.Equal(t, "a", data.FollowerID)
	assert.Equal(t, "b", data.FollowingID)
}

func TestMessageDecodeRejectsGarbage(t *testing.T) {
	_, err := Message{Value: []byte("not json")}.Decode()
	assert.Error(t, err)
}
