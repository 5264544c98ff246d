package handler

import (
	"testing"

	"WorksForMeBot/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallback_Encode(t *testing.T) {
	tests := []struct {
		cb   Callback
		want string
	}{
		{Callback{Action: ActionManage, UserID: 7, PlanID: 3}, "m|7|3"},
		{Callback{Action: ActionDelete, UserID: 7, PlanID: 3}, "dd|7|3"},
		{Callback{Action: ActionRemoveOption, PlanID: 3, OptionID: 9}, "--|3|9"},
		{Callback{Action: ActionVote, PlanID: 3, OptionID: 9, UserID: 100}, "v|3|9"},
		{Callback{Action: ActionStartVoting, PlanID: 3}, "s|3"},
		{Callback{Action: ActionVoterResults, UserID: 7, PlanID: 3}, "rrv|7|3"},
		{Callback{Action: ActionCancel}, "c"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cb.Encode())
		})
	}
}

func TestParseCallback_AllActions(t *testing.T) {
	for action := range actionCodes {
		cb := Callback{Action: action}
		for _, f := range actionFields[action] {
			switch f {
			case fieldUser:
				cb.UserID = 123456789
			case fieldPlan:
				cb.PlanID = 42
			case fieldOption:
				cb.OptionID = 77
			}
		}
		got, err := ParseCallback(cb.Encode())
		require.NoError(t, err, cb.Encode())
		assert.Equal(t, cb, got)
		assert.LessOrEqual(t, len(cb.Encode()), 64)
	}
}

func TestParseCallback_Errors(t *testing.T) {
	tests := []struct {
		data string
		want error
	}{
		{"", model.ErrUnknownAction},
		{"zz|1|2", model.ErrUnknownAction},
		{"m|1", model.ErrMalformedCallback},
		{"m|1|2|3", model.ErrMalformedCallback},
		{"v|one|2", model.ErrMalformedCallback},
		{"c|1", model.ErrMalformedCallback},
	}
	for _, tt := range tests {
		t.Run(tt.data, func(t *testing.T) {
			_, err := ParseCallback(tt.data)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
