package telegram

import (
	"strconv"

	tele "gopkg.in/telebot.v4"
)

// Payload is the content of an incoming message: either Text or Location.
type Payload interface {
	payload()
}

// Text is a plain text message body.
type Text string

// Location is a shared geographic position.
type Location struct {
	Lat float64
	Lon float64
}

func (Text) payload()     {}
func (Location) payload() {}

// Update is an incoming event reduced to what the bot acts on.
type Update struct {
	ID      int
	ChatID  int64
	Payload Payload
}

// ParseUpdate projects a Telegram update. Text takes precedence over location.
// Updates without a message, a chat, or a supported payload get a nil Payload.
func ParseUpdate(u tele.Update) Update {
	out := Update{ID: u.ID}
	msg := u.Message
	if msg == nil || msg.Chat == nil {
		return out
	}
	out.ChatID = msg.Chat.ID
	switch {
	case msg.Text != "":
		out.Payload = Text(msg.Text)
	case msg.Location != nil:
		out.Payload = Location{Lat: widen(msg.Location.Lat), Lon: widen(msg.Location.Lng)}
	}
	return out
}

// widen converts a wire float32 to the shortest float64 with the same decimal form.
func widen(f float32) float64 {
	v, err := strconv.ParseFloat(strconv.FormatFloat(float64(f), 'f', -1, 32), 64)
	if err != nil {
		return float64(f)
	}
	return v
}

// PayloadKind names the payload type for logs.
func PayloadKind(p Payload) string {
	switch p.(type) {
	case Text:
		return "text"
	case Location:
		return "location"
	}
	return "none"
}
