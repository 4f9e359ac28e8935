package infrastructure

import (
	"strconv"

	"github.com/yourusername/dupe-guard/internal/domain"
)

// TelegramUpdate is a Bot API update carrying a message
type TelegramUpdate struct {
	UpdateID int64            `json:"update_id"`
	Message  *TelegramMessage `json:"message,omitempty"`
}

// TelegramChat is the chat a message belongs to
type TelegramChat struct {
	ID    int64  `json:"id"`
	Type  string `json:"type"`
	Title string `json:"title,omitempty"`
}

// TelegramFile carries the id of any downloadable attachment
type TelegramFile struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
}

// TelegramMessage holds the message fields relevant to fingerprinting
type TelegramMessage struct {
	MessageID int64          `json:"message_id"`
	Chat      TelegramChat   `json:"chat"`
	Text      string         `json:"text,omitempty"`
	Caption   string         `json:"caption,omitempty"`
	Photo     []TelegramFile `json:"photo,omitempty"` // sizes, smallest first
	Video     *TelegramFile  `json:"video,omitempty"`
	Document  *TelegramFile  `json:"document,omitempty"`
	Audio     *TelegramFile  `json:"audio,omitempty"`
	Voice     *TelegramFile  `json:"voice,omitempty"`
	Sticker   *TelegramFile  `json:"sticker,omitempty"`
}

// ToDomain converts the Bot API message into a message descriptor
func (m *TelegramMessage) ToDomain() *domain.Message {
	msg := &domain.Message{
		GroupID:   strconv.FormatInt(m.Chat.ID, 10),
		MessageID: m.MessageID,
		ChatType:  domain.ChatType(m.Chat.Type),
		ChatTitle: m.Chat.Title,
		Text:      m.Text,
		Caption:   m.Caption,
	}

	for _, size := range m.Photo {
		msg.Media = append(msg.Media, domain.MediaRef{Kind: domain.MediaPhoto, ContentID: size.FileID})
	}

	attachments := []struct {
		kind domain.MediaKind
		file *TelegramFile
	}{
		{domain.MediaVideo, m.Video},
		{domain.MediaDocument, m.Document},
		{domain.MediaAudio, m.Audio},
		{domain.MediaVoice, m.Voice},
		{domain.MediaSticker, m.Sticker},
	}
	for _, a := range attachments {
		if a.file != nil {
			msg.Media = append(msg.Media, domain.MediaRef{Kind: a.kind, ContentID: a.file.FileID})
		}
	}

	return msg
}
