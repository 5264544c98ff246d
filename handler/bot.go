package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"WorksForMeBot/model"
	"WorksForMeBot/repo"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"
)

const (
	notFoundText = "I couldn't find that, it may have been deleted"
	apologyText  = "I'm sorry, something went wrong. Please try again later"
	buttonError  = "We're sorry, there was an error processing your button press"

	inlineResultLimit = 10
)

// Messenger is the subset of the Telegram client the handlers use.
// *bot.Bot satisfies it.
type Messenger interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	EditMessageText(ctx context.Context, params *bot.EditMessageTextParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *bot.AnswerCallbackQueryParams) (bool, error)
	AnswerInlineQuery(ctx context.Context, params *bot.AnswerInlineQueryParams) (bool, error)
}

var _ Messenger = (*bot.Bot)(nil)

// PlanBotHandler turns Telegram updates into plan operations.
type PlanBotHandler struct {
	repo     repo.Repository
	sessions repo.SessionStore
	log      zerolog.Logger

	mu      sync.RWMutex
	botName string
}

func NewPlanBotHandler(r repo.Repository, sessions repo.SessionStore, botName string, logger zerolog.Logger) *PlanBotHandler {
	return &PlanBotHandler{
		repo:     r,
		sessions: sessions,
		log:      logger,
		botName:  botName,
	}
}

// SetBotName sets the @name users type to share plans inline.
func (h *PlanBotHandler) SetBotName(name string) {
	h.mu.Lock()
	h.botName = name
	h.mu.Unlock()
}

func (h *PlanBotHandler) BotName() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.botName
}

// Handle is registered as the bot's default handler.
func (h *PlanBotHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.Dispatch(ctx, b, update)
}

// Dispatch routes one update. It never panics on bad input and replies to
// the user on storage failures instead of returning them.
func (h *PlanBotHandler) Dispatch(ctx context.Context, m Messenger, update *models.Update) {
	switch {
	case update.CallbackQuery != nil:
		h.handleCallback(ctx, m, update.CallbackQuery)
	case update.InlineQuery != nil:
		h.handleInlineQuery(ctx, m, update.InlineQuery)
	case update.Message != nil:
		h.handleMessage(ctx, m, update.Message)
	}
}

// parseCommand splits "/cmd@Bot args" into "cmd" and whether it is meant
// for this bot.
func (h *PlanBotHandler) parseCommand(text string) (string, bool) {
	word, _, _ := strings.Cut(text, " ")
	word = strings.TrimPrefix(word, "/")
	cmd, target, found := strings.Cut(word, "@")
	if found && !strings.EqualFold(target, h.BotName()) {
		return cmd, false
	}
	return strings.ToLower(cmd), true
}

func (h *PlanBotHandler) handleMessage(ctx context.Context, m Messenger, msg *models.Message) {
	if msg.From == nil || msg.Text == "" {
		return
	}
	private := msg.Chat.Type == models.ChatTypePrivate

	h.log.Debug().Int64("user_id", msg.From.ID).Str("username", msg.From.Username).Int("text_len", len(msg.Text)).Msg("message received")

	var err error
	if strings.HasPrefix(msg.Text, "/") {
		cmd, forMe := h.parseCommand(msg.Text)
		if !forMe {
			return
		}
		switch cmd {
		case "start", "manage":
			err = h.startOrManage(ctx, m, msg)
		case "new", "done":
			if !private {
				h.send(ctx, m, msg.Chat.ID, fmt.Sprintf("Send me /%s in our private chat: @%s", cmd, h.BotName()), nil)
				return
			}
			if cmd == "new" {
				err = h.newPlan(ctx, m, msg)
			} else {
				err = h.done(ctx, m, msg)
			}
		default:
			if private {
				h.send(ctx, m, msg.Chat.ID, "I don't know that command. Send me /new to create a plan or /manage to see yours", nil)
			}
		}
	} else if private {
		err = h.plaintext(ctx, m, msg)
	}

	if err != nil {
		h.log.Error().Err(err).Int64("user_id", msg.From.ID).Msg("error handling message")
		h.send(ctx, m, msg.Chat.ID, apologyText, nil)
	}
}

// ack is the answer shown for a callback query once it is handled.
type ack struct {
	text  string
	alert bool
}

func (h *PlanBotHandler) handleCallback(ctx context.Context, m Messenger, q *models.CallbackQuery) {
	a := h.routeCallback(ctx, m, q)
	_, err := m.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: q.ID,
		Text:            a.text,
		ShowAlert:       a.alert,
	})
	if err != nil {
		h.log.Error().Err(err).Str("callback_id", q.ID).Msg("error answering callback query")
	}
}

func (h *PlanBotHandler) routeCallback(ctx context.Context, m Messenger, q *models.CallbackQuery) ack {
	cb, err := ParseCallback(q.Data)
	if err != nil {
		h.log.Warn().Err(err).Int64("user_id", q.From.ID).Msg("bad callback data")
		h.edit(ctx, m, q, buttonError, nil)
		return ack{}
	}

	var a ack
	switch cb.Action {
	case ActionManage:
		a, err = h.managePlan(ctx, m, q, cb)
	case ActionDeleteConfirm:
		a, err = h.deletePlanConfirmation(ctx, m, q, cb)
	case ActionDelete:
		a, err = h.deletePlan(ctx, m, q, cb)
	case ActionEditTitle:
		a, err = h.startTitleEdit(ctx, m, q, cb)
	case ActionAddOption:
		a, err = h.startAddOption(ctx, m, q, cb)
	case ActionRemoveOptionList:
		a, err = h.chooseOptionToRemove(ctx, m, q, cb)
	case ActionRemoveOption:
		a, err = h.removeOption(ctx, m, q, cb)
	case ActionCancel:
		a = h.cancelOperation(ctx, m, q)
	case ActionResults:
		a, err = h.showResults(ctx, m, q, cb)
	case ActionDetailedResults:
		a, err = h.showDetailedResults(ctx, m, q, cb)
	case ActionVoterResults:
		a, err = h.sendDetailedResults(ctx, m, q, cb)
	case ActionStartVoting:
		a, err = h.startPoll(ctx, m, q, cb)
	case ActionVote:
		a, err = h.vote(ctx, m, q, cb)
	default:
		h.edit(ctx, m, q, buttonError, nil)
	}

	if err != nil {
		h.log.Error().Err(err).Int64("user_id", q.From.ID).Str("data", q.Data).Msg("error handling button press")
		return ack{text: apologyText, alert: true}
	}
	return a
}

func (h *PlanBotHandler) send(ctx context.Context, m Messenger, chatID int64, text string, markup *models.InlineKeyboardMarkup) {
	params := &bot.SendMessageParams{ChatID: chatID, Text: text}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	if _, err := m.SendMessage(ctx, params); err != nil {
		h.log.Error().Err(err).Int64("chat_id", chatID).Msg("error sending message")
	}
}

// edit replaces the message the pressed button belongs to. Messages posted
// through inline mode are addressed by inline message id.
func (h *PlanBotHandler) edit(ctx context.Context, m Messenger, q *models.CallbackQuery, text string, markup *models.InlineKeyboardMarkup) {
	params := &bot.EditMessageTextParams{Text: text}
	switch {
	case q.InlineMessageID != "":
		params.InlineMessageID = q.InlineMessageID
	case q.Message.Message != nil:
		params.ChatID = q.Message.Message.Chat.ID
		params.MessageID = q.Message.Message.ID
	default:
		h.log.Warn().Str("callback_id", q.ID).Msg("button message is no longer accessible")
		return
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	if _, err := m.EditMessageText(ctx, params); err != nil {
		h.log.Error().Err(err).Str("callback_id", q.ID).Msg("error editing message")
	}
}

// ownedPlan loads planID if userID created it. Missing and foreign plans
// both come back as ok == false.
func (h *PlanBotHandler) ownedPlan(ctx context.Context, planID, userID int64) (*model.Plan, bool, error) {
	plan, err := h.repo.GetOwnedPlan(ctx, planID, userID)
	if errors.Is(err, model.ErrPlanNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return plan, true, nil
}
