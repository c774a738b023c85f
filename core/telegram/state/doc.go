// Package state keeps the per-chat conversation state of the bot.
// Chats without a stored entry are idle.
package state
