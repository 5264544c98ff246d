package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"WorksForMeBot/model"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// handleInlineQuery lists the user's published plans matching the query so
// one can be shared into any chat.
func (h *PlanBotHandler) handleInlineQuery(ctx context.Context, m Messenger, iq *models.InlineQuery) {
	if iq.From == nil {
		return
	}
	plans, err := h.repo.ListOwnedPlansFiltered(ctx, iq.From.ID, strings.TrimSpace(iq.Query), inlineResultLimit)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", iq.From.ID).Msg("error searching plans")
		plans = nil
	}

	_, err = m.AnswerInlineQuery(ctx, &bot.AnswerInlineQueryParams{
		InlineQueryID: iq.ID,
		Results:       inlineResults(plans),
		CacheTime:     0,
		IsPersonal:    true,
		Button: &models.InlineQueryResultsButton{
			Text:           "Manage your plans or create a new one",
			StartParameter: "manage",
		},
	})
	if err != nil {
		h.log.Error().Err(err).Str("inline_query_id", iq.ID).Msg("error answering inline query")
	}
}

// votablePlan loads a published plan regardless of owner.
func (h *PlanBotHandler) votablePlan(ctx context.Context, planID int64) (*model.Plan, bool, error) {
	plan, err := h.repo.GetPlan(ctx, planID)
	if errors.Is(err, model.ErrPlanNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return plan, plan.Enabled, nil
}

func (h *PlanBotHandler) renderPoll(ctx context.Context, m Messenger, q *models.CallbackQuery, plan *model.Plan) error {
	tallies, err := h.repo.ListOptionsWithTally(ctx, plan.ID)
	if err != nil {
		return err
	}
	h.edit(ctx, m, q, plan.Question, optionSelectorMarkup(tallies, plan.ID, plan.CreatorUserID))
	return nil
}

func (h *PlanBotHandler) startPoll(ctx context.Context, m Messenger, q *models.CallbackQuery, cb Callback) (ack, error) {
	plan, ok, err := h.votablePlan(ctx, cb.PlanID)
	if err != nil {
		return ack{}, err
	}
	if !ok {
		h.edit(ctx, m, q, notFoundText, nil)
		return ack{}, nil
	}
	return ack{}, h.renderPoll(ctx, m, q, plan)
}

// vote cycles the presser's answer for one option and redraws the poll.
func (h *PlanBotHandler) vote(ctx context.Context, m Messenger, q *models.CallbackQuery, cb Callback) (ack, error) {
	option, err := h.repo.GetOption(ctx, cb.OptionID)
	if errors.Is(err, model.ErrOptionNotFound) || (err == nil && option.PlanID != cb.PlanID) {
		return ack{text: notFoundText}, nil
	}
	if err != nil {
		return ack{}, err
	}
	plan, ok, err := h.votablePlan(ctx, cb.PlanID)
	if err != nil {
		return ack{}, err
	}
	if !ok {
		return ack{text: notFoundText}, nil
	}

	userID := q.From.ID
	current, found, err := h.repo.GetVote(ctx, option.ID, userID)
	if err != nil {
		return ack{}, err
	}
	next := model.AnswerYes
	if found {
		next = current.Next()
	}
	if err := h.repo.CastVote(ctx, option.ID, userID, voterName(q.From), next); err != nil {
		return ack{}, err
	}
	h.log.Debug().Int64("user_id", userID).Int64("option_id", option.ID).Stringer("answer", next).Msg("vote cast")

	if err := h.renderPoll(ctx, m, q, plan); err != nil {
		return ack{}, err
	}
	return ack{text: fmt.Sprintf("You answered %s to %s", next, option.Option)}, nil
}

func (h *PlanBotHandler) showResults(ctx context.Context, m Messenger, q *models.CallbackQuery, cb Callback) (ack, error) {
	plan, ok, err := h.ownedPlan(ctx, cb.PlanID, q.From.ID)
	if err != nil || !ok {
		return ack{text: notFoundText}, err
	}
	tallies, err := h.repo.ListOptionsWithTally(ctx, plan.ID)
	if err != nil {
		return ack{}, err
	}
	h.edit(ctx, m, q, summaryResultsText(plan.Question, tallies), moreInfoMarkup(q.From.ID, plan.ID))
	return ack{}, nil
}

// creatorPlan loads planID for a detailed results request. Anyone but the
// creator gets a forbidden alert and the screen is left as it is.
func (h *PlanBotHandler) creatorPlan(ctx context.Context, q *models.CallbackQuery, planID int64) (*model.Plan, *ack, error) {
	plan, err := h.repo.GetPlan(ctx, planID)
	if errors.Is(err, model.ErrPlanNotFound) {
		return nil, &ack{text: notFoundText}, nil
	}
	if err != nil {
		return nil, nil, err
	}
	if plan.CreatorUserID != q.From.ID {
		return nil, &ack{text: "Only the creator of this plan can show the results", alert: true}, nil
	}
	return plan, nil, nil
}

func (h *PlanBotHandler) showDetailedResults(ctx context.Context, m Messenger, q *models.CallbackQuery, cb Callback) (ack, error) {
	plan, denied, err := h.creatorPlan(ctx, q, cb.PlanID)
	if err != nil || denied != nil {
		return derefAck(denied), err
	}
	voters, err := h.repo.ListOptionsWithNames(ctx, plan.ID)
	if err != nil {
		return ack{}, err
	}
	h.edit(ctx, m, q, detailedResultsText(plan.Question, voters), nil)
	return ack{}, nil
}

// sendDetailedResults answers the full results button on a shared poll.
// The names go to the creator's private chat so the poll stays in place.
func (h *PlanBotHandler) sendDetailedResults(ctx context.Context, m Messenger, q *models.CallbackQuery, cb Callback) (ack, error) {
	plan, denied, err := h.creatorPlan(ctx, q, cb.PlanID)
	if err != nil || denied != nil {
		return derefAck(denied), err
	}
	voters, err := h.repo.ListOptionsWithNames(ctx, plan.ID)
	if err != nil {
		return ack{}, err
	}
	h.send(ctx, m, q.From.ID, detailedResultsText(plan.Question, voters), nil)
	return ack{text: "I sent you the full results in our private chat"}, nil
}

func derefAck(a *ack) ack {
	if a == nil {
		return ack{}
	}
	return *a
}
