package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"listing-site-backend/internal/session"
)

// ToInput maps a private chat message to a session input. Messages carrying
// nothing the questionnaire understands are reported as not ok.
func ToInput(msg *tgbotapi.Message) (int64, session.Input, bool) {
	if msg == nil || msg.From == nil || msg.Chat == nil || !msg.Chat.IsPrivate() {
		return 0, session.Input{}, false
	}

	in := session.Input{Username: msg.From.UserName, FirstName: msg.From.FirstName}
	switch {
	case msg.IsCommand() && msg.Command() == "start":
		in.Kind = session.InputStart
		in.Text = strings.TrimSpace(msg.CommandArguments())
	case len(msg.Photo) > 0:
		in.Kind = session.InputPhoto
		in.FileRef = largest(msg.Photo).FileID
	case msg.Video != nil:
		in.Kind = session.InputVideo
		in.FileRef = msg.Video.FileID
	case msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "image/"):
		in.Kind = session.InputPhoto
		in.FileRef = msg.Document.FileID
	case msg.Document != nil && strings.HasPrefix(msg.Document.MimeType, "video/"):
		in.Kind = session.InputVideo
		in.FileRef = msg.Document.FileID
	case msg.Text != "":
		in.Kind = session.InputText
		in.Text = msg.Text
	default:
		return 0, session.Input{}, false
	}
	return msg.From.ID, in, true
}

func largest(sizes []tgbotapi.PhotoSize) tgbotapi.PhotoSize {
	best := sizes[0]
	for _, s := range sizes[1:] {
		if s.Width*s.Height >= best.Width*best.Height {
			best = s
		}
	}
	return best
}

// Render builds the outbound message for r addressed to chatID.
func Render(chatID int64, r session.Reply) tgbotapi.Chattable {
	markup := keyboard(r)

	if r.Document != nil {
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: r.Document.Name, Bytes: r.Document.Data})
		doc.Caption = r.Text
		doc.ParseMode = tgbotapi.ModeHTML
		if markup != nil {
			doc.ReplyMarkup = markup
		}
		return doc
	}

	msg := tgbotapi.NewMessage(chatID, r.Text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	return msg
}

func keyboard(r session.Reply) any {
	if r.RemoveKeyboard {
		return tgbotapi.NewRemoveKeyboard(true)
	}
	if len(r.Keyboard) == 0 {
		return nil
	}

	rows := make([][]tgbotapi.KeyboardButton, 0, len(r.Keyboard))
	for _, labels := range r.Keyboard {
		row := make([]tgbotapi.KeyboardButton, 0, len(labels))
		for _, label := range labels {
			row = append(row, tgbotapi.NewKeyboardButton(label))
		}
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(row...))
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	return kb
}
