// Package keyboard builds Telegram reply markups.
package keyboard

import tele "gopkg.in/telebot.v4"

// RemoveKeyboard returns a markup that hides the keyboard.
func RemoveKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}

// ReplyButtons builds a reply keyboard from rows of text.
func ReplyButtons(rows ...[]string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true}
	keyboard := make([]tele.Row, len(rows))
	for i, labels := range rows {
		btns := make([]tele.Btn, len(labels))
		for j, label := range labels {
			btns[j] = markup.Text(label)
		}
		keyboard[i] = markup.Row(btns...)
	}
	markup.Reply(keyboard...)
	return markup
}

// Choices lays quick replies out n per row as a one-time keyboard. No choices
// removes any keyboard left from a previous prompt.
func Choices(choices []string, n int) *tele.ReplyMarkup {
	if len(choices) == 0 {
		return RemoveKeyboard()
	}
	markup := ReplyButtons(ChunkLabels(choices, n)...)
	markup.OneTimeKeyboard = true
	return markup
}

// ChunkLabels splits labels into rows of at most n. n below 1 means one
// label per row.
func ChunkLabels(labels []string, n int) [][]string {
	n = max(n, 1)
	rows := make([][]string, 0, (len(labels)+n-1)/n)
	for len(labels) > 0 {
		k := min(n, len(labels))
		rows = append(rows, labels[:k])
		labels = labels[k:]
	}
	return rows
}
