package handler

import (
	"context"
	"fmt"

	"WorksForMeBot/model"

	"github.com/go-telegram/bot/models"
)

func (h *PlanBotHandler) startOrManage(ctx context.Context, m Messenger, msg *models.Message) error {
	userID := msg.From.ID
	plans, err := h.repo.ListOwnedPlans(ctx, userID)
	if err != nil {
		return fmt.Errorf("listing plans: %w", err)
	}
	if len(plans) == 0 {
		h.send(ctx, m, msg.Chat.ID, "You don't have any plan yet, send me /new to create a new one", nil)
		return nil
	}
	h.send(ctx, m, msg.Chat.ID, "Select a plan to manage it, or send me /new to create a new one", planListMarkup(userID, plans))
	return nil
}

func (h *PlanBotHandler) newPlan(ctx context.Context, m Messenger, msg *models.Message) error {
	h.sessions.Set(msg.From.ID, model.NewTitleOperation(msg.From.ID))
	h.send(ctx, m, msg.Chat.ID, "Ok, send me the name for the plan", nil)
	return nil
}

// done finishes option entry. Any other pending operation is put back.
func (h *PlanBotHandler) done(ctx context.Context, m Messenger, msg *models.Message) error {
	userID := msg.From.ID
	op, ok := h.sessions.Pop(userID)
	if !ok || op.Kind != model.OpAddOption {
		if ok {
			h.sessions.Set(userID, op)
		}
		h.send(ctx, m, msg.Chat.ID, "The command /done does nothing right now", nil)
		return nil
	}

	out, err := h.repo.MarkReady(ctx, op.PlanID)
	if err != nil {
		h.sessions.Set(userID, op)
		return fmt.Errorf("publishing plan %d: %w", op.PlanID, err)
	}
	if !out.Found() {
		h.send(ctx, m, msg.Chat.ID, notFoundText, nil)
		return nil
	}
	h.send(ctx, m, msg.Chat.ID, fmt.Sprintf(
		"Great! Your plan is ready! You can now send it to whoever you want by writing @%s and selecting this plan",
		h.BotName()), nil)
	return nil
}

// plaintext feeds a free-text message to the user's pending operation.
func (h *PlanBotHandler) plaintext(ctx context.Context, m Messenger, msg *models.Message) error {
	userID := msg.From.ID
	op, ok := h.sessions.Pop(userID)
	if !ok {
		h.send(ctx, m, msg.Chat.ID, "I'm sorry, I don't know what you mean", nil)
		return nil
	}

	var err error
	switch op.Kind {
	case model.OpNewTitle:
		err = h.newPlanTitleSent(ctx, m, msg)
	case model.OpAddOption:
		err = h.newPlanAddOption(ctx, m, msg, op)
	case model.OpAddSingleOption:
		err = h.addSingleOption(ctx, m, msg, op)
	case model.OpEditTitle:
		err = h.editTitle(ctx, m, msg, op)
	default:
		h.log.Warn().Int("kind", int(op.Kind)).Int64("user_id", userID).Msg("dropping unknown pending operation")
		h.send(ctx, m, msg.Chat.ID, "I'm sorry, I don't know what you mean", nil)
	}
	if err != nil {
		// let the user retry the same step
		h.sessions.Set(userID, op)
	}
	return err
}

func (h *PlanBotHandler) newPlanTitleSent(ctx context.Context, m Messenger, msg *models.Message) error {
	planID, err := h.repo.CreatePlan(ctx, msg.From.ID, msg.Text)
	if err != nil {
		return err
	}
	h.sessions.Set(msg.From.ID, model.AddOptionOperation(planID, 1))
	h.send(ctx, m, msg.Chat.ID, fmt.Sprintf("Great! Now send me the %s option, or /done to finish", ordinal(1)), nil)
	return nil
}

func (h *PlanBotHandler) newPlanAddOption(ctx context.Context, m Messenger, msg *models.Message, op model.Operation) error {
	if _, err := h.repo.AddOption(ctx, op.PlanID, msg.Text); err != nil {
		return err
	}
	next := op.Ordinal + 1
	h.sessions.Set(msg.From.ID, model.AddOptionOperation(op.PlanID, next))
	h.send(ctx, m, msg.Chat.ID, fmt.Sprintf("Ok, now send me the %s option, or /done to finish", ordinal(next)), nil)
	return nil
}

func (h *PlanBotHandler) addSingleOption(ctx context.Context, m Messenger, msg *models.Message, op model.Operation) error {
	_, ok, err := h.ownedPlan(ctx, op.PlanID, op.UserID)
	if err != nil {
		return err
	}
	if !ok {
		h.send(ctx, m, msg.Chat.ID, notFoundText, nil)
		return nil
	}
	if _, err := h.repo.AddOption(ctx, op.PlanID, msg.Text); err != nil {
		return err
	}
	h.send(ctx, m, msg.Chat.ID, "Option added", nil)
	return nil
}

func (h *PlanBotHandler) editTitle(ctx context.Context, m Messenger, msg *models.Message, op model.Operation) error {
	out, err := h.repo.RenameTitle(ctx, op.PlanID, op.UserID, msg.Text)
	if err != nil {
		return err
	}
	if !out.Found() {
		h.send(ctx, m, msg.Chat.ID, notFoundText, nil)
		return nil
	}
	h.send(ctx, m, msg.Chat.ID, "Title changed", nil)
	return nil
}

func (h *PlanBotHandler) managePlan(ctx context.Context, m Messenger, q *models.CallbackQuery, cb Callback) (ack, error) {
	plan, ok, err := h.ownedPlan(ctx, cb.PlanID, q.From.ID)
	if err != nil || !ok {
		return ack{text: notFoundText}, err
	}
	h.edit(ctx, m, q, fmt.Sprintf("Editing \"%s\"", plan.Question), manageMarkup(q.From.ID, plan.ID))
	return ack{}, nil
}

func (h *PlanBotHandler) deletePlanConfirmation(ctx context.Context, m Messenger, q *models.CallbackQuery, cb Callback) (ack, error) {
	plan, ok, err := h.ownedPlan(ctx, cb.PlanID, q.From.ID)
	if err != nil || !ok {
		return ack{text: notFoundText}, err
	}
	h.edit(ctx, m, q, fmt.Sprintf("Really delete \"%s\"?", plan.Question), deleteConfirmMarkup(q.From.ID, plan.ID))
	return ack{}, nil
}

func (h *PlanBotHandler) deletePlan(ctx context.Context, m Messenger, q *models.CallbackQuery, cb Callback) (ack, error) {
	plan, ok, err := h.ownedPlan(ctx, cb.PlanID, q.From.ID)
	if err != nil || !ok {
		return ack{text: notFoundText}, err
	}
	out, err := h.repo.DeletePlan(ctx, q.From.ID, plan.ID)
	if err != nil {
		return ack{}, err
	}
	if !out.Found() {
		return ack{text: notFoundText}, nil
	}
	h.edit(ctx, m, q, fmt.Sprintf("Plan \"%s\" deleted", plan.Question), nil)
	return ack{}, nil
}

func (h *PlanBotHandler) startTitleEdit(ctx context.Context, m Messenger, q *models.CallbackQuery, cb Callback) (ack, error) {
	plan, ok, err := h.ownedPlan(ctx, cb.PlanID, q.From.ID)
	if err != nil || !ok {
		return ack{text: notFoundText}, err
	}
	h.sessions.Set(q.From.ID, model.EditTitleOperation(q.From.ID, plan.ID))
	h.edit(ctx, m, q, fmt.Sprintf("Ok, send me the new title for \"%s\"", plan.Question), cancelMarkup())
	return ack{}, nil
}

func (h *PlanBotHandler) startAddOption(ctx context.Context, m Messenger, q *models.CallbackQuery, cb Callback) (ack, error) {
	plan, ok, err := h.ownedPlan(ctx, cb.PlanID, q.From.ID)
	if err != nil || !ok {
		return ack{text: notFoundText}, err
	}
	h.sessions.Set(q.From.ID, model.AddSingleOptionOperation(q.From.ID, plan.ID))
	h.edit(ctx, m, q, fmt.Sprintf("Ok, send me the new option for \"%s\"", plan.Question), cancelMarkup())
	return ack{}, nil
}

func (h *PlanBotHandler) chooseOptionToRemove(ctx context.Context, m Messenger, q *models.CallbackQuery, cb Callback) (ack, error) {
	plan, ok, err := h.ownedPlan(ctx, cb.PlanID, q.From.ID)
	if err != nil || !ok {
		return ack{text: notFoundText}, err
	}
	options, err := h.repo.ListOptions(ctx, plan.ID)
	if err != nil {
		return ack{}, err
	}
	h.edit(ctx, m, q, "What option do you want to remove?", removeOptionMarkup(plan.ID, options))
	return ack{}, nil
}

func (h *PlanBotHandler) removeOption(ctx context.Context, m Messenger, q *models.CallbackQuery, cb Callback) (ack, error) {
	_, ok, err := h.ownedPlan(ctx, cb.PlanID, q.From.ID)
	if err != nil || !ok {
		return ack{text: notFoundText}, err
	}
	out, err := h.repo.RemoveOption(ctx, cb.PlanID, cb.OptionID)
	if err != nil {
		return ack{}, err
	}
	if !out.Found() {
		return ack{text: notFoundText}, nil
	}
	h.edit(ctx, m, q, "Option removed", nil)
	return ack{}, nil
}

func (h *PlanBotHandler) cancelOperation(ctx context.Context, m Messenger, q *models.CallbackQuery) ack {
	h.sessions.Clear(q.From.ID)
	h.edit(ctx, m, q, "Ok, nevermind", nil)
	return ack{}
}
