package model

// Attachment is a file carried inside a message. URL may be an inline
// data-URL payload; the server never stores it.
type Attachment struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	MimeType string `json:"mimeType"`
}

// Reaction is one emoji applied to a message, with the set of usernames who
// applied it. A username appears at most once per emoji; merging is done on
// the recipient side from relayed reaction events.
type Reaction struct {
	Emoji string   `json:"emoji"`
	Users []string `json:"users"`
}

// Message is a chat payload relayed between participants. Timestamp (Unix
// milliseconds) doubles as the message's identity within a conversation and
// is the key reactions target.
type Message struct {
	From           string       `json:"from"`
	To             string       `json:"to"`
	Content        string       `json:"content"`
	Timestamp      int64        `json:"timestamp"`
	Reactions      []Reaction   `json:"reactions,omitempty"`
	IsGroupMessage bool         `json:"isGroupMessage,omitempty"`
	Attachments    []Attachment `json:"attachments,omitempty"`
}

// AddReaction records that user applied emoji to the message. Adding an
// existing (emoji, user) pair is a no-op. Emojis keep first-use order.
func (m *Message) AddReaction(emoji, user string) {
	for i := range m.Reactions {
		if m.Reactions[i].Emoji != emoji {
			continue
		}
		for _, u := range m.Reactions[i].Users {
			if u == user {
				return
			}
		}
		m.Reactions[i].Users = append(m.Reactions[i].Users, user)
		return
	}
	m.Reactions = append(m.Reactions, Reaction{Emoji: emoji, Users: []string{user}})
}
