// Package router dispatches parsed updates through the per-chat conversation state machine.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/weatherbot/core/logger"
	tg "github.com/m3rciful/weatherbot/core/telegram"
	"github.com/m3rciful/weatherbot/core/telegram/format"
	"github.com/m3rciful/weatherbot/core/telegram/keyboard"
	"github.com/m3rciful/weatherbot/core/telegram/state"
	"github.com/m3rciful/weatherbot/core/weather"
)

const (
	cmdWeather = "weather"
	cmdStart   = "start"
)

// Sender delivers outgoing messages.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, text string, markup *tele.ReplyMarkup) error
}

// Texts holds the user-facing strings.
type Texts struct {
	ChooseCity    string
	ShareLocation string
	Help          string
	Prompt        string
}

// DefaultTexts returns the stock English texts.
func DefaultTexts() Texts {
	return Texts{
		ChooseCity:    "Choose a city",
		ShareLocation: keyboard.DefaultShareLocationText,
		Help:          "Type /weather to open the menu",
		Prompt:        "I can now tell you about the weather",
	}
}

// Options configures New.
type Options struct {
	Cities []string
	// Texts overrides individual strings; empty fields keep the defaults.
	Texts Texts
}

// Router implements telegram.Handler.
type Router struct {
	sender  Sender
	weather weather.Provider
	store   state.Store
	cities  []string
	texts   Texts
}

// New constructs a Router.
func New(sender Sender, provider weather.Provider, store state.Store, opts Options) *Router {
	texts := DefaultTexts()
	if opts.Texts.ChooseCity != "" {
		texts.ChooseCity = opts.Texts.ChooseCity
	}
	if opts.Texts.ShareLocation != "" {
		texts.ShareLocation = opts.Texts.ShareLocation
	}
	if opts.Texts.Help != "" {
		texts.Help = opts.Texts.Help
	}
	if opts.Texts.Prompt != "" {
		texts.Prompt = opts.Texts.Prompt
	}
	return &Router{
		sender:  sender,
		weather: provider,
		store:   store,
		cities:  append([]string(nil), opts.Cities...),
		texts:   texts,
	}
}

// HandleUpdate runs one update through the state machine. Only state store failures are
// returned; weather and send failures are logged and the update is considered handled.
// A panic is recorded in the summary line and then re-raised for the caller's recovery.
func (r *Router) HandleUpdate(ctx context.Context, u tg.Update) (err error) {
	start := time.Now()
	sum := &summary{handler: "unknown", payload: tg.PayloadKind(u.Payload)}
	defer func() {
		if p := recover(); p != nil {
			logHandlerSummary(ctx, sum, start, fmt.Errorf("router: panic: %v", p))
			panic(p)
		}
		logHandlerSummary(ctx, sum, start, err)
	}()
	switch p := u.Payload.(type) {
	case tg.Text:
		err = r.handleText(ctx, u.ChatID, string(p), sum)
	case tg.Location:
		err = r.handleLocation(ctx, u.ChatID, p, sum)
	default:
		sum.handler = "unsupported"
		sum.status = "skip"
		sum.outcome = "ignored"
	}
	return err
}

func (r *Router) handleText(ctx context.Context, chatID int64, text string, sum *summary) error {
	if cmd, _, ok := parseCommand(text); ok {
		sum.command = cmd
		return r.handleCommand(ctx, chatID, cmd, sum)
	}

	current, err := r.store.Get(ctx, chatID)
	if err != nil {
		sum.handler = "text"
		return err
	}
	sum.state = current
	if current == state.AwaitingCity {
		if city, ok := r.matchCity(text); ok {
			sum.handler = "city"
			ctx = logger.WithHandler(ctx, sum.handler)
			return r.report(ctx, chatID, sum, []slog.Attr{slog.String("city", city)}, func(ctx context.Context) (weather.Report, error) {
				return r.weather.ByName(ctx, city)
			})
		}
	}
	sum.handler = "prompt"
	r.send(ctx, chatID, r.texts.Prompt, keyboard.Commands("/"+cmdWeather), sum)
	return nil
}

func (r *Router) handleCommand(ctx context.Context, chatID int64, cmd string, sum *summary) error {
	switch cmd {
	case cmdWeather:
		sum.handler = "weather"
		if err := r.store.Set(ctx, chatID, state.AwaitingCity); err != nil {
			return err
		}
		sum.next = state.AwaitingCity
		r.send(ctx, chatID, r.texts.ChooseCity, keyboard.CitySelection(r.cities, r.texts.ShareLocation), sum)
	case cmdStart:
		sum.handler = "start"
		r.send(ctx, chatID, r.texts.Help, nil, sum)
	default:
		sum.handler = "unknown_command"
		sum.status = "skip"
		sum.outcome = "ignored"
		logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "tg.command.unknown",
			slog.String("command", logger.SanitizeLimit(cmd, 64)),
		)
	}
	return nil
}

func (r *Router) handleLocation(ctx context.Context, chatID int64, loc tg.Location, sum *summary) error {
	sum.handler = "location"
	current, err := r.store.Get(ctx, chatID)
	if err != nil {
		return err
	}
	sum.state = current
	if current != state.AwaitingCity {
		sum.status = "skip"
		sum.outcome = "ignored"
		return nil
	}
	attrs := []slog.Attr{slog.Float64("lat", loc.Lat), slog.Float64("lon", loc.Lon)}
	ctx = logger.WithHandler(ctx, sum.handler)
	return r.report(ctx, chatID, sum, attrs, func(ctx context.Context) (weather.Report, error) {
		return r.weather.ByCoordinates(ctx, loc.Lat, loc.Lon)
	})
}

// report clears the pending state before fetching, so a failed lookup never leaves the chat stuck.
func (r *Router) report(ctx context.Context, chatID int64, sum *summary, attrs []slog.Attr, lookup func(context.Context) (weather.Report, error)) error {
	if err := r.store.Clear(ctx, chatID); err != nil {
		return err
	}
	sum.next = state.Idle
	sum.attrs = append(sum.attrs, attrs...)

	rep, err := lookup(ctx)
	if err != nil {
		sum.status = "fail"
		sum.outcome = "fail"
		logger.LogEvent(ctx, logger.WX, slog.LevelError, "weather.fetch",
			append(attrs,
				slog.String("status", "fail"),
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)...,
		)
		return nil
	}
	sum.attrs = append(sum.attrs, slog.String("place", rep.Place), slog.Float64("temp_c", rep.TempC))
	r.send(ctx, chatID, format.Markdown(rep.String()), keyboard.RemoveKeyboard(), sum)
	return nil
}

func (r *Router) send(ctx context.Context, chatID int64, text string, markup *tele.ReplyMarkup, sum *summary) {
	sum.messages++
	if markup != nil {
		sum.kb = true
	}
	if err := r.sender.SendMessage(ctx, chatID, text, markup); err != nil {
		sum.sendFailures++
		logger.LogEvent(ctx, logger.TG, slog.LevelWarn, "tg.send",
			slog.String("status", "fail"),
			slog.Bool("kb", markup != nil),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}
}

// matchCity returns the configured spelling of text when it names a configured city.
func (r *Router) matchCity(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	for _, c := range r.cities {
		if strings.EqualFold(c, text) {
			return c, true
		}
	}
	return "", false
}

// parseCommand returns the lower-cased command name without the leading slash or @bot suffix.
// ok is false when text is not a command.
func parseCommand(text string) (cmd, args string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	text = text[1:]
	cmd, args, _ = strings.Cut(text, " ")
	args = strings.TrimSpace(args)
	if at := strings.Index(cmd, "@"); at != -1 {
		cmd = cmd[:at]
	}
	return strings.ToLower(cmd), args, true
}
