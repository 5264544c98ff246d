package handler

import (
	"fmt"
	"strconv"
	"strings"

	"WorksForMeBot/model"
)

// Action is the button kind carried in callback data.
type Action int

const (
	ActionManage Action = iota + 1
	ActionDeleteConfirm
	ActionDelete
	ActionEditTitle
	ActionAddOption
	ActionRemoveOptionList
	ActionRemoveOption
	ActionResults
	ActionDetailedResults
	ActionVoterResults
	ActionStartVoting
	ActionVote
	ActionCancel
)

type field int

const (
	fieldUser field = iota
	fieldPlan
	fieldOption
)

// Wire codes are kept short: Telegram caps callback data at 64 bytes.
var actionCodes = map[Action]string{
	ActionManage:           "m",
	ActionDeleteConfirm:    "d",
	ActionDelete:           "dd",
	ActionEditTitle:        "q",
	ActionAddOption:        "+",
	ActionRemoveOptionList: "-",
	ActionRemoveOption:     "--",
	ActionResults:          "r",
	ActionDetailedResults:  "rr",
	ActionVoterResults:     "rrv",
	ActionStartVoting:      "s",
	ActionVote:             "v",
	ActionCancel:           "c",
}

var actionFields = map[Action][]field{
	ActionManage:           {fieldUser, fieldPlan},
	ActionDeleteConfirm:    {fieldUser, fieldPlan},
	ActionDelete:           {fieldUser, fieldPlan},
	ActionEditTitle:        {fieldUser, fieldPlan},
	ActionAddOption:        {fieldUser, fieldPlan},
	ActionRemoveOptionList: {fieldUser, fieldPlan},
	ActionRemoveOption:     {fieldPlan, fieldOption},
	ActionResults:          {fieldUser, fieldPlan},
	ActionDetailedResults:  {fieldUser, fieldPlan},
	ActionVoterResults:     {fieldUser, fieldPlan},
	ActionStartVoting:      {fieldPlan},
	ActionVote:             {fieldPlan, fieldOption},
	ActionCancel:           nil,
}

var codeActions = func() map[string]Action {
	m := make(map[string]Action, len(actionCodes))
	for a, c := range actionCodes {
		m[c] = a
	}
	return m
}()

// Callback is a decoded button press. Only the fields listed for its
// Action are meaningful.
type Callback struct {
	Action   Action
	UserID   int64
	PlanID   int64
	OptionID int64
}

func (c Callback) value(f field) int64 {
	switch f {
	case fieldUser:
		return c.UserID
	case fieldPlan:
		return c.PlanID
	default:
		return c.OptionID
	}
}

// Encode renders the callback as pipe-delimited button data.
func (c Callback) Encode() string {
	code, ok := actionCodes[c.Action]
	if !ok {
		return ""
	}
	parts := []string{code}
	for _, f := range actionFields[c.Action] {
		parts = append(parts, strconv.FormatInt(c.value(f), 10))
	}
	return strings.Join(parts, "|")
}

// ParseCallback decodes button data produced by Encode.
func ParseCallback(data string) (Callback, error) {
	parts := strings.Split(data, "|")
	action, ok := codeActions[parts[0]]
	if !ok {
		return Callback{}, fmt.Errorf("%w: %q", model.ErrUnknownAction, parts[0])
	}
	fields := actionFields[action]
	if len(parts)-1 != len(fields) {
		return Callback{}, fmt.Errorf("%w: %q wants %d arguments", model.ErrMalformedCallback, data, len(fields))
	}

	c := Callback{Action: action}
	for i, f := range fields {
		v, err := strconv.ParseInt(parts[i+1], 10, 64)
		if err != nil {
			return Callback{}, fmt.Errorf("%w: %q: %v", model.ErrMalformedCallback, data, err)
		}
		switch f {
		case fieldUser:
			c.UserID = v
		case fieldPlan:
			c.PlanID = v
		case fieldOption:
			c.OptionID = v
		}
	}
	return c, nil
}

func manageData(userID, planID int64) string {
	return Callback{Action: ActionManage, UserID: userID, PlanID: planID}.Encode()
}

func userPlanData(a Action, userID, planID int64) string {
	return Callback{Action: a, UserID: userID, PlanID: planID}.Encode()
}

func voteData(planID, optionID int64) string {
	return Callback{Action: ActionVote, PlanID: planID, OptionID: optionID}.Encode()
}

func removeOptionData(planID, optionID int64) string {
	return Callback{Action: ActionRemoveOption, PlanID: planID, OptionID: optionID}.Encode()
}

func startVotingData(planID int64) string {
	return Callback{Action: ActionStartVoting, PlanID: planID}.Encode()
}

func cancelData() string {
	return Callback{Action: ActionCancel}.Encode()
}
