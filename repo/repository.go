package repo

import (
	"context"

	"WorksForMeBot/model"
)

// Repository is the durable store for plans, their options and the answers
// cast on them. Lookups that miss, or that are filtered out by an owner id,
// return model.ErrPlanNotFound / model.ErrOptionNotFound; mutations that
// touch no row report model.NotFound.
type Repository interface {
	CreatePlan(ctx context.Context, creatorID int64, question string) (int64, error)
	MarkReady(ctx context.Context, planID int64) (model.Outcome, error)
	RenameTitle(ctx context.Context, planID, ownerID int64, question string) (model.Outcome, error)
	DeletePlan(ctx context.Context, ownerID, planID int64) (model.Outcome, error)

	GetPlan(ctx context.Context, planID int64) (*model.Plan, error)
	GetOwnedPlan(ctx context.Context, planID, ownerID int64) (*model.Plan, error)
	ListOwnedPlans(ctx context.Context, userID int64) ([]model.PlanSummary, error)
	ListOwnedPlansFiltered(ctx context.Context, userID int64, substring string, limit int) ([]model.PlanSummary, error)

	AddOption(ctx context.Context, planID int64, text string) (int64, error)
	RemoveOption(ctx context.Context, planID, optionID int64) (model.Outcome, error)
	GetOption(ctx context.Context, optionID int64) (*model.Option, error)
	ListOptions(ctx context.Context, planID int64) ([]model.Option, error)
	ListOptionsWithTally(ctx context.Context, planID int64) ([]model.OptionTally, error)
	ListOptionsWithNames(ctx context.Context, planID int64) ([]model.OptionVoters, error)

	GetVote(ctx context.Context, optionID, userID int64) (model.AnswerValue, bool, error)
	CastVote(ctx context.Context, optionID, userID int64, userName string, value model.AnswerValue) error

	Close() error
}
