package view

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/zhouzirui/geo-chat/backend/internal/model/chat"
)

func blocks(box *html.Node) []*html.Node {
	var out []*html.Node
	for c := box.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, c)
	}
	return out
}

func textOf(n *html.Node) string {
	var b strings.Builder
	for _, t := range FindAll(n, func(n *html.Node) bool { return n.Type == html.TextNode }) {
		b.WriteString(t.Data)
	}
	return b.String()
}

func TestTranscriptRendersOneBlockPerMessage(t *testing.T) {
	messages := append(chat.Seed(),
		chat.Message{Role: chat.RoleUser, Text: "Is the Earth flat?"},
		chat.Message{Role: chat.RoleBot, Text: "No."},
	)

	box := Transcript(messages)
	id, _ := AttrValue(box, "id")
	assert.Equal(t, ChatboxID, id)

	rendered := blocks(box)
	require.Len(t, rendered, len(messages))
	for i, msg := range messages {
		wantClass := "chat-user"
		if msg.Role == chat.RoleBot {
			wantClass = "chat-bot"
		}
		assert.True(t, HasClass(rendered[i], wantClass), "block %d", i)
		assert.True(t, HasClass(rendered[i], "container"), "block %d", i)
		assert.Equal(t, msg.Text, textOf(rendered[i]), "block %d", i)
	}

	assert.Len(t, FindAll(rendered[1], IsMapPlaceholder), 1)
	assert.Empty(t, FindAll(rendered[0], IsMapPlaceholder))
	assert.Empty(t, FindAll(rendered[3], IsMapPlaceholder))
}

func TestTranscriptEmpty(t *testing.T) {
	box := Transcript(nil)
	assert.Nil(t, box.FirstChild)
}

func TestNewMapIDsAreUnique(t *testing.T) {
	first := NewMap(48.8566, 2.3522)
	second := NewMap(48.8566, 2.3522)

	assert.NotEqual(t, first.ID, second.ID)
	assert.True(t, strings.HasPrefix(first.ID, "map_"))
	assert.NotContains(t, first.ID, "-")
}

func TestMapPlotPayload(t *testing.T) {
	fragment := NewMap(48.8566, 2.3522)
	placeholders := FindAll(fragment.Node(), IsMapPlaceholder)
	require.Len(t, placeholders, 1)

	id, _ := AttrValue(placeholders[0], "id")
	assert.Equal(t, fragment.ID, id)
	assert.True(t, HasClass(placeholders[0], "map"))

	plot, err := DecodePlot(placeholders[0])
	require.NoError(t, err)
	require.Len(t, plot.Data, 1)
	trace := plot.Data[0]
	assert.Equal(t, "scattermap", trace.Type)
	assert.Equal(t, []float64{48.8566}, trace.Lat)
	assert.Equal(t, []float64{2.3522}, trace.Lon)
	assert.Equal(t, MarkerSize, trace.Marker.Size)
	assert.Equal(t, MarkerColor, trace.Marker.Color)
	assert.Equal(t, Center{Lat: 48.8566, Lon: 2.3522}, plot.Layout.Map.Center)
	assert.EqualValues(t, DefaultZoom, plot.Layout.Map.Zoom)
}

func TestRenderEscapesUserText(t *testing.T) {
	var buf bytes.Buffer
	box := Transcript([]chat.Message{{Role: chat.RoleUser, Text: "<script>alert(1)</script>"}})
	require.NoError(t, Render(&buf, box))

	out := buf.String()
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.NotContains(t, out, "Plotly.newPlot")
}

func TestChatPageStructure(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, ChatPage(chat.Seed(), PageOptions{})))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, `hx-post="/geo-chat"`)
	assert.Contains(t, out, `hx-target="#chatbox"`)
	assert.Contains(t, out, `hx-swap="outerHTML"`)
	assert.Contains(t, out, `name="message"`)
	assert.Contains(t, out, `<a href="/geo-chat" class="active">Geo Chat</a>`)
	assert.Contains(t, out, `<a href="/">Home</a>`)
	assert.Contains(t, out, "plotly-2.35.0.min.js")
	assert.NotContains(t, out, "ws-connect")
}

func TestChatPageLive(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, ChatPage(chat.Seed(), PageOptions{Live: true})))
	out := buf.String()

	assert.Contains(t, out, `ws-connect="/geo-chat/ws"`)
	assert.Contains(t, out, "ws-send")
	assert.NotContains(t, out, "hx-post")
}

func TestHomePage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, HomePage()))
	out := buf.String()

	assert.Contains(t, out, "Hello world")
	assert.Contains(t, out, `<a href="/" class="active">Home</a>`)
}
