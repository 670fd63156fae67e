package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverride(t *testing.T) {
	inherit := Inherit[int]()
	_, ok := inherit.Get()
	assert.False(t, ok)
	assert.Equal(t, 9, inherit.OrElse(9))
	assert.Nil(t, inherit.Ptr())

	set := Set(2)
	v, ok := set.Get()
	assert.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 2, set.OrElse(9))
	require.NotNil(t, set.Ptr())
	assert.Equal(t, 2, *set.Ptr())

	n := 4
	assert.Equal(t, Set(4), OverrideFromPtr(&n))
	assert.Equal(t, Inherit[int](), OverrideFromPtr[int](nil))
}

func TestOverride_JSON(t *testing.T) {
	type payload struct {
		Day  Override[int] `json:"day"`
		Week Override[int] `json:"week"`
	}

	data, err := json.Marshal(payload{Day: Set(1), Week: Inherit[int]()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"day":1,"week":null}`, string(data))

	var decoded payload
	require.NoError(t, json.Unmarshal([]byte(`{"day":null,"week":12}`), &decoded))
	assert.False(t, decoded.Day.IsSet())
	assert.Equal(t, 12, decoded.Week.OrElse(0))

	var missing payload
	require.NoError(t, json.Unmarshal([]byte(`{}`), &missing))
	assert.False(t, missing.Day.IsSet())
	assert.False(t, missing.Week.IsSet())
}
