package view

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/zhouzirui/geo-chat/backend/internal/model/chat"
)

// ChatboxID is the element htmx swaps after each submission.
const ChatboxID = "chatbox"

// Transcript renders every message, in order, inside div#chatbox.
func Transcript(messages []chat.Message) *html.Node {
	box := Element(atom.Div, attrs("id", ChatboxID))
	for _, msg := range messages {
		box.AppendChild(messageNode(msg))
	}
	return box
}

func messageNode(msg chat.Message) *html.Node {
	if msg.Role != chat.RoleBot {
		return Element(atom.Div, attrs("class", "container chat-user"),
			Element(atom.Div, nil, Text(msg.Text)),
		)
	}

	body := Element(atom.Div, nil, Element(atom.P, nil, Text(msg.Text)))
	if msg.HasLocation() {
		body.AppendChild(NewMap(msg.Location.Lat, msg.Location.Lon).Node())
	}
	return Element(atom.Div, attrs("class", "container chat-bot"), body)
}
