package model

import "time"

// AnswerValue is a voter's availability for a single option.
type AnswerValue int

const (
	AnswerNo          AnswerValue = 0
	AnswerYes         AnswerValue = 1
	AnswerIfNecessary AnswerValue = 2
)

// Next returns the value a repeated vote cycles to: YES -> IF_NECESSARY -> NO -> YES.
// Anything unrecognized resets to YES.
func (a AnswerValue) Next() AnswerValue {
	switch a {
	case AnswerYes:
		return AnswerIfNecessary
	case AnswerIfNecessary:
		return AnswerNo
	default:
		return AnswerYes
	}
}

func (a AnswerValue) String() string {
	switch a {
	case AnswerYes:
		return "✔ Yes"
	case AnswerIfNecessary:
		return "❔ If necessary"
	case AnswerNo:
		return "❌ No"
	default:
		return "unknown"
	}
}

type Plan struct {
	ID            int64
	CreatorUserID int64
	Question      string
	Enabled       bool // false while options are still being entered
	CreationDate  time.Time
}

// PlanSummary is the short form used by plan lists and inline search.
type PlanSummary struct {
	ID       int64
	Question string
}

type Option struct {
	ID     int64
	PlanID int64
	Option string
}

type Answer struct {
	OptionID          int64
	AnsweringUserID   int64
	AnsweringUserName string
	Answer            AnswerValue
}

// OptionTally is an option with its YES and IF_NECESSARY vote counts.
type OptionTally struct {
	ID         int64
	Option     string
	YesCount   int
	MaybeCount int
}

// OptionVoters extends OptionTally with the display names of voters in
// each bucket, in vote order.
type OptionVoters struct {
	ID         int64
	Option     string
	YesNames   []string
	YesCount   int
	MaybeNames []string
	MaybeCount int
}
