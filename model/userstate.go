package model

// OperationKind identifies the multi-step flow a user is in the middle of.
type OperationKind int

const (
	OpNewTitle        OperationKind = iota + 1 // awaiting the title of a new plan
	OpAddOption                                // awaiting the Nth option while authoring
	OpAddSingleOption                          // awaiting one extra option for a published plan
	OpEditTitle                                // awaiting a replacement title
)

// Operation is the pending step recorded for a user between messages.
type Operation struct {
	Kind    OperationKind
	UserID  int64
	PlanID  int64
	Ordinal int // next option number, OpAddOption only
}

func NewTitleOperation(userID int64) Operation {
	return Operation{Kind: OpNewTitle, UserID: userID}
}

func AddOptionOperation(planID int64, ordinal int) Operation {
	return Operation{Kind: OpAddOption, PlanID: planID, Ordinal: ordinal}
}

func AddSingleOptionOperation(userID, planID int64) Operation {
	return Operation{Kind: OpAddSingleOption, UserID: userID, PlanID: planID}
}

func EditTitleOperation(userID, planID int64) Operation {
	return Operation{Kind: OpEditTitle, UserID: userID, PlanID: planID}
}
