package telegram

import (
	"encoding/json"
	"testing"

	tele "gopkg.in/telebot.v4"
)

func decodeUpdate(t *testing.T, raw string) tele.Update {
	t.Helper()
	var u tele.Update
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return u
}

func TestParseUpdateText(t *testing.T) {
	u := ParseUpdate(decodeUpdate(t, `{"update_id":10,"message":{"message_id":1,"date":0,"chat":{"id":55,"type":"private"},"text":"/weather"}}`))
	if u.ID != 10 || u.ChatID != 55 {
		t.Fatalf("unexpected ids: %+v", u)
	}
	if txt, ok := u.Payload.(Text); !ok || txt != "/weather" {
		t.Fatalf("payload = %#v", u.Payload)
	}
	if PayloadKind(u.Payload) != "text" {
		t.Fatalf("kind = %s", PayloadKind(u.Payload))
	}
}

func TestParseUpdateLocation(t *testing.T) {
	u := ParseUpdate(decodeUpdate(t, `{"update_id":11,"message":{"message_id":2,"date":0,"chat":{"id":-7,"type":"group"},"location":{"latitude":48.85,"longitude":2.35}}}`))
	loc, ok := u.Payload.(Location)
	if !ok {
		t.Fatalf("payload = %#v", u.Payload)
	}
	if loc.Lat != 48.85 || loc.Lon != 2.35 {
		t.Fatalf("location = %+v", loc)
	}
	if u.ChatID != -7 {
		t.Fatalf("chat = %d", u.ChatID)
	}
}

func TestParseUpdateWithoutPayload(t *testing.T) {
	cases := []string{
		`{"update_id":12}`,
		`{"update_id":13,"message":{"message_id":3,"date":0,"chat":{"id":1,"type":"private"}}}`,
		`{"update_id":14,"message":{"message_id":4,"date":0,"text":"/weather"}}`,
	}
	for _, raw := range cases {
		u := ParseUpdate(decodeUpdate(t, raw))
		if u.Payload != nil {
			t.Errorf("%s: expected nil payload, got %#v", raw, u.Payload)
		}
		if PayloadKind(u.Payload) != "none" {
			t.Errorf("%s: kind = %s", raw, PayloadKind(u.Payload))
		}
	}
}

func TestParseUpdateWithoutChatHasNoPayload(t *testing.T) {
	u := ParseUpdate(tele.Update{ID: 15, Message: &tele.Message{Text: "London", Location: &tele.Location{Lat: 1, Lng: 2}}})
	if u.Payload != nil || u.ChatID != 0 {
		t.Fatalf("update without chat must not be actionable: %+v", u)
	}
	if u.ID != 15 {
		t.Fatalf("id = %d", u.ID)
	}
}
