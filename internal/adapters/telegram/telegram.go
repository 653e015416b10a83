// Package telegram delivers rendered notifications to Telegram chats
// through telebot. It formats the platform-neutral message into HTML.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"notibot/internal/kit"
	"notibot/pkg/logx"
)

type Config struct {
	Token       string
	PollTimeout time.Duration
}

// Adapter implements kit.ChannelSink on top of a telebot bot.
type Adapter struct {
	cfg Config
	log logx.Logger
	bot *tele.Bot
}

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: timeout},
	})
	if err != nil {
		return nil, err
	}
	return &Adapter{cfg: cfg, log: log, bot: b}, nil
}

// Send delivers one rendered message to a chat. channelID is the chat
// id in decimal form; an unparsable id is a sink failure, not a fault.
func (a *Adapter) Send(ctx context.Context, channelID string, msg kit.Message, opt *kit.SendOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	chatID, err := strconv.ParseInt(strings.TrimSpace(channelID), 10, 64)
	if err != nil {
		return fmt.Errorf("bad channel id %q: %w", channelID, err)
	}

	sendOpts := []any{tele.ModeHTML, tele.NoPreview}
	if opt != nil {
		if mk, ok := opt.Components.(*tele.ReplyMarkup); ok && mk != nil {
			sendOpts = append(sendOpts, mk)
		}
	}

	text := formatHTML(msg, opt)
	to := tele.ChatID(chatID)
	if msg.Image != "" {
		photo := &tele.Photo{File: tele.FromURL(msg.Image), Caption: text}
		_, err = a.bot.Send(to, photo, sendOpts...)
		return err
	}
	_, err = a.bot.Send(to, text, sendOpts...)
	return err
}

// formatHTML flattens an embed-style message into Telegram HTML: bold
// title, one "name: value" line per field, italic footer.
func formatHTML(msg kit.Message, opt *kit.SendOptions) string {
	var b strings.Builder
	if opt != nil && opt.Mention != "" {
		b.WriteString(esc(opt.Mention))
		b.WriteString("\n")
	}
	if msg.Title != "" {
		b.WriteString("<b>")
		b.WriteString(esc(msg.Title))
		b.WriteString("</b>\n")
	}
	for _, f := range msg.Fields {
		b.WriteString("\n<b>")
		b.WriteString(esc(f.Name))
		b.WriteString(":</b> ")
		b.WriteString(esc(f.Value))
	}
	if msg.Thumbnail != "" {
		b.WriteString("\n\n")
		b.WriteString(fmt.Sprintf(`<a href="%s">🖼</a>`, esc(msg.Thumbnail)))
	}
	if msg.Footer != "" {
		b.WriteString("\n\n<i>")
		b.WriteString(esc(msg.Footer))
		b.WriteString("</i>")
	}
	return b.String()
}

func esc(s string) string { return html.EscapeString(s) }
