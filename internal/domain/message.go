package domain

// MediaKind represents the kind of media attached to a message
type MediaKind string

const (
	MediaPhoto    MediaKind = "photo"
	MediaVideo    MediaKind = "video"
	MediaDocument MediaKind = "document"
	MediaAudio    MediaKind = "audio"
	MediaVoice    MediaKind = "voice"
	MediaSticker  MediaKind = "sticker"
)

// ChatType represents the kind of chat a message was posted to
type ChatType string

const (
	ChatGroup      ChatType = "group"
	ChatSupergroup ChatType = "supergroup"
	ChatPrivate    ChatType = "private"
	ChatChannel    ChatType = "channel"
)

// MediaRef references a single media attachment by its platform content id
type MediaRef struct {
	Kind      MediaKind `json:"kind" binding:"required"`
	ContentID string    `json:"content_id" binding:"required"`
}

// Message is an inbound chat message descriptor
type Message struct {
	GroupID   string     `json:"group_id" binding:"required"`
	MessageID int64      `json:"message_id" binding:"required"`
	ChatType  ChatType   `json:"chat_type,omitempty"`
	ChatTitle string     `json:"chat_title,omitempty"`
	Text      string     `json:"text,omitempty"`
	Caption   string     `json:"caption,omitempty"`
	Media     []MediaRef `json:"media,omitempty"`
}

// IsGroupChat reports whether the message comes from a group or supergroup.
// Messages without a chat type are treated as group messages.
func (m *Message) IsGroupChat() bool {
	switch m.ChatType {
	case "", ChatGroup, ChatSupergroup:
		return true
	default:
		return false
	}
}

// MediaOfKind returns the media references of the given kind in delivery order
func (m *Message) MediaOfKind(kind MediaKind) []MediaRef {
	var refs []MediaRef
	for _, ref := range m.Media {
		if ref.Kind == kind {
			refs = append(refs, ref)
		}
	}
	return refs
}

// ValidateMediaKind checks if a media kind is known
func ValidateMediaKind(kind MediaKind) bool {
	switch kind {
	case MediaPhoto, MediaVideo, MediaDocument, MediaAudio, MediaVoice, MediaSticker:
		return true
	default:
		return false
	}
}
