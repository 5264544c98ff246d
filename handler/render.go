package handler

import (
	"fmt"
	"strconv"
	"strings"

	"WorksForMeBot/model"

	"github.com/go-telegram/bot/models"
)

const (
	yesGlyph   = "✔"
	maybeGlyph = "❔"
)

// ordinal formats n with its English suffix: 1st, 2nd, 3rd, 4th, 11th, 21st...
func ordinal(n int) string {
	suffix := "th"
	switch n % 100 {
	case 11, 12, 13:
	default:
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return strconv.Itoa(n) + suffix
}

// voterName is the display name stored with a vote: @username when the
// user has one, else their full name.
func voterName(u models.User) string {
	if u.Username != "" {
		return "@" + u.Username
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func button(text, data string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{Text: text, CallbackData: data}
}

func cancelMarkup() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{{button("❌ Cancel", cancelData())}},
	}
}

func planListMarkup(userID int64, plans []model.PlanSummary) *models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(plans))
	for _, p := range plans {
		rows = append(rows, []models.InlineKeyboardButton{button(p.Question, manageData(userID, p.ID))})
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func manageMarkup(userID, planID int64) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				button("✍️ Edit question", userPlanData(ActionEditTitle, userID, planID)),
				button("❌ Delete", userPlanData(ActionDeleteConfirm, userID, planID)),
			},
			{
				button("➕ Add option", userPlanData(ActionAddOption, userID, planID)),
				button("➖ Remove option", userPlanData(ActionRemoveOptionList, userID, planID)),
			},
			{button("ℹ️ Show results", userPlanData(ActionResults, userID, planID))},
		},
	}
}

func deleteConfirmMarkup(userID, planID int64) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{{
			button("✅ Yes", userPlanData(ActionDelete, userID, planID)),
			button("❌ No", cancelData()),
		}},
	}
}

func removeOptionMarkup(planID int64, options []model.Option) *models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(options)+1)
	for _, o := range options {
		rows = append(rows, []models.InlineKeyboardButton{button("➖ "+o.Option, removeOptionData(planID, o.ID))})
	}
	rows = append(rows, []models.InlineKeyboardButton{button("❌ Cancel", cancelData())})
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// optionLabel is an option's text followed by its nonzero counts.
func optionLabel(t model.OptionTally) string {
	label := t.Option
	if t.YesCount > 0 {
		label += fmt.Sprintf(" %s*%d", yesGlyph, t.YesCount)
	}
	if t.MaybeCount > 0 {
		label += fmt.Sprintf(" %s*%d", maybeGlyph, t.MaybeCount)
	}
	return label
}

// optionSelectorMarkup is the voting keyboard: one button per option plus
// the creator-only full results button.
func optionSelectorMarkup(tallies []model.OptionTally, planID, creatorID int64) *models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(tallies)+1)
	for _, t := range tallies {
		rows = append(rows, []models.InlineKeyboardButton{button(optionLabel(t), voteData(planID, t.ID))})
	}
	rows = append(rows, []models.InlineKeyboardButton{
		button("ℹ️ Show full results", userPlanData(ActionVoterResults, creatorID, planID)),
	})
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func moreInfoMarkup(userID, planID int64) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{button("➕ More info", userPlanData(ActionDetailedResults, userID, planID))},
		},
	}
}

func summaryResultsText(question string, tallies []model.OptionTally) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Here are the results for \"%s\":", question)
	for _, t := range tallies {
		fmt.Fprintf(&sb, "\n%s: %s%s", t.Option,
			strings.Repeat(yesGlyph, t.YesCount), strings.Repeat(maybeGlyph, t.MaybeCount))
		if t.YesCount+t.MaybeCount == 0 {
			sb.WriteString("None")
		}
	}
	return sb.String()
}

func namesOrNoOne(glyph string, names []string) string {
	if len(names) == 0 {
		return "No one"
	}
	return glyph + " " + strings.Join(names, ", ")
}

func detailedResultsText(question string, voters []model.OptionVoters) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Here are the results for \"%s\":", question)
	for _, v := range voters {
		fmt.Fprintf(&sb, "\n\n%s:\n- %s confirmed their availability for this day\n- %s said they may be available for this day if strictly necessary",
			v.Option, namesOrNoOne(yesGlyph, v.YesNames), namesOrNoOne(maybeGlyph, v.MaybeNames))
	}
	return sb.String()
}

// inlineResults renders plans as shareable cards; each posts a message with
// a single "start voting" button.
func inlineResults(plans []model.PlanSummary) []models.InlineQueryResult {
	results := make([]models.InlineQueryResult, 0, len(plans))
	for _, p := range plans {
		results = append(results, &models.InlineQueryResultArticle{
			ID:    strconv.FormatInt(p.ID, 10),
			Title: p.Question,
			InputMessageContent: &models.InputTextMessageContent{
				MessageText: fmt.Sprintf("Click the button below to start the poll \"%s\"", p.Question),
			},
			ReplyMarkup: &models.InlineKeyboardMarkup{
				InlineKeyboard: [][]models.InlineKeyboardButton{{button("▶ Start voting!", startVotingData(p.ID))}},
			},
		})
	}
	return results
}
