// Package commands declares the bot commands advertised in the Telegram command menu.
package commands

import tele "gopkg.in/telebot.v4"

// Command describes a bot command for the menu.
type Command struct {
	Name        string
	Description string
	Hidden      bool
}

// Defaults lists the commands the router understands.
func Defaults() []Command {
	return []Command{
		{Name: "start", Description: "How to use the bot"},
		{Name: "weather", Description: "Current weather for a city or your location"},
	}
}

// Menu converts visible commands into the form accepted by setMyCommands.
func Menu(cmds []Command) []tele.Command {
	out := make([]tele.Command, 0, len(cmds))
	for _, c := range cmds {
		if c.Hidden || c.Name == "" || c.Description == "" {
			continue
		}
		out = append(out, tele.Command{Text: c.Name, Description: c.Description})
	}
	return out
}
