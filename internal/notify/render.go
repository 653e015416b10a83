package notify

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"notibot/internal/kit"
)

// Render produces the delivery-ready message for a notification type.
// It is pure: no queue, no network, no counters.
func (s *Service) Render(typ string, data Data) (kit.Message, error) {
	tpl, ok := s.templates.Get(typ)
	if !ok {
		return kit.Message{}, fmt.Errorf("%w: %q", ErrTemplateNotFound, typ)
	}
	return renderTemplate(tpl, data), nil
}

func renderTemplate(tpl Template, data Data) kit.Message {
	msg := kit.Message{
		Title:  substitute(tpl.Title, data),
		Color:  tpl.Color,
		Footer: substitute(tpl.Footer, data),
	}

	for _, f := range tpl.Fields {
		val := substitute(f.Value, data)
		// Optional data keys silently skip optional fields: a field whose
		// rendered value is empty, or one an upstream producer rendered as
		// "undefined"/"null", is omitted.
		if val == "" || val == "undefined" || val == "null" {
			continue
		}
		msg.Fields = append(msg.Fields, kit.Field{
			Name:   substitute(f.Name, data),
			Value:  truncate(val),
			Inline: f.Inline,
		})
	}

	if v, ok := data["thumbnail"]; ok {
		msg.Thumbnail = v.String()
	}
	if v, ok := data["image"]; ok {
		msg.Image = v.String()
	}
	return msg
}

// substitute replaces every {key} token that has a matching data entry.
// Tokens without a match stay verbatim, so a missing key is visible in
// the delivered message instead of silently blanking out.
func substitute(text string, data Data) string {
	if text == "" || len(data) == 0 || !strings.Contains(text, "{") {
		return text
	}
	for k, v := range data {
		text = strings.ReplaceAll(text, "{"+k+"}", v.String())
	}
	return text
}

// truncate caps v at FieldValueLimit characters. The cut lands on a
// rune boundary so a multibyte value never becomes invalid UTF-8.
func truncate(v string) string {
	if utf8.RuneCountInString(v) <= FieldValueLimit {
		return v
	}
	keep := FieldValueLimit - utf8.RuneCountInString(truncationMark)
	n := 0
	for i := range v {
		if n == keep {
			return v[:i] + truncationMark
		}
		n++
	}
	return v
}
