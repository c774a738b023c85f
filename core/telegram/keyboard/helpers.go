// Package keyboard builds the reply keyboards shown by the bot.
package keyboard

import tele "gopkg.in/telebot.v4"

// DefaultShareLocationText labels the location request button.
const DefaultShareLocationText = "Share location"

// CitySelection returns a one-time keyboard with one row per city followed by a location request button.
func CitySelection(cities []string, shareLabel string) *tele.ReplyMarkup {
	if shareLabel == "" {
		shareLabel = DefaultShareLocationText
	}
	markup := &tele.ReplyMarkup{ResizeKeyboard: true, OneTimeKeyboard: true}
	rows := make([]tele.Row, 0, len(cities)+1)
	for _, city := range cities {
		rows = append(rows, markup.Row(markup.Text(city)))
	}
	rows = append(rows, markup.Row(markup.Location(shareLabel)))
	markup.Reply(rows...)
	return markup
}

// Commands returns a one-time keyboard with a single row of command buttons.
func Commands(commands ...string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true, OneTimeKeyboard: true}
	buttons := make([]tele.Btn, 0, len(commands))
	for _, c := range commands {
		buttons = append(buttons, markup.Text(c))
	}
	markup.Reply(markup.Row(buttons...))
	return markup
}

// RemoveKeyboard returns a markup that hides the keyboard.
func RemoveKeyboard() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}
