package view

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/zhouzirui/geo-chat/backend/internal/model/chat"
)

const (
	HomePath       = "/"
	ChatPath       = "/geo-chat"
	ChatSocketPath = "/geo-chat/ws"

	picoCSS   = "https://cdn.jsdelivr.net/npm/@picocss/pico@2/css/pico.amber.min.css"
	plotlyJS  = "https://cdn.plot.ly/plotly-2.35.0.min.js"
	htmxJS    = "https://unpkg.com/htmx.org@2.0.3"
	htmxWSExt = "https://unpkg.com/htmx-ext-ws@2.0.1/ws.js"
)

// PageOptions 控制聊天页面的提交方式。
type PageOptions struct {
	// Live submits over the websocket instead of hx-post.
	Live bool
}

// HomePage is the landing document.
func HomePage() *html.Node {
	return document(
		Element(atom.Main, attrs("class", "container"),
			navigation(HomePath),
			Element(atom.P, nil, Text("Hello world")),
		),
	)
}

// ChatPage is the full geo chat document for a transcript.
func ChatPage(transcript []chat.Message, opts PageOptions) *html.Node {
	mainAttrs := attrs("class", "container pico-color-amber-200", "data-theme", "light")
	if opts.Live {
		mainAttrs = append(mainAttrs, Attr("hx-ext", "ws"), Attr("ws-connect", ChatSocketPath))
	}

	return document(
		Element(atom.Main, mainAttrs,
			navigation(ChatPath),
			Transcript(transcript),
			messageForm(opts),
		),
	)
}

func messageForm(opts PageOptions) *html.Node {
	formAttrs := attrs("hx-post", ChatPath, "hx-target", "#"+ChatboxID, "hx-swap", "outerHTML")
	if opts.Live {
		formAttrs = attrs("ws-send", "")
	}

	return Element(atom.Form, formAttrs,
		Element(atom.Fieldset, attrs("role", "group"),
			Element(atom.Input, attrs("type", "text", "name", "message", "id", "message", "placeholder", "Message")),
			Element(atom.Button, attrs("type", "submit"), Text("Send")),
		),
	)
}

func navigation(current string) *html.Node {
	return Element(atom.Nav, nil,
		Element(atom.Ul, attrs("class", "left"),
			Element(atom.Img, attrs("src", "/static/logo.svg", "alt", "Geo Chat")),
		),
		Element(atom.Ul, attrs("class", "right"),
			Element(atom.Li, nil, navLink("Home", HomePath, current)),
			Element(atom.Li, nil, navLink("Geo Chat", ChatPath, current)),
		),
	)
}

func navLink(label, href, current string) *html.Node {
	linkAttrs := attrs("href", href)
	if href == current {
		linkAttrs = append(linkAttrs, Attr("class", "active"))
	}
	return Element(atom.A, linkAttrs, Text(label))
}

func document(body ...*html.Node) *html.Node {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(Element(atom.Html, attrs("lang", "en"),
		Element(atom.Head, nil,
			Element(atom.Meta, attrs("charset", "utf-8")),
			Element(atom.Meta, attrs("name", "viewport", "content", "width=device-width, initial-scale=1")),
			Element(atom.Title, nil, Text("Geo Chat")),
			Element(atom.Link, attrs("rel", "stylesheet", "href", picoCSS, "type", "text/css")),
			Element(atom.Link, attrs("rel", "stylesheet", "href", "/static/style.css", "type", "text/css")),
			Element(atom.Script, attrs("src", plotlyJS)),
			Element(atom.Script, attrs("src", htmxJS)),
			Element(atom.Script, attrs("src", htmxWSExt)),
			Element(atom.Script, attrs("src", "/static/geochat.js", "defer", "")),
		),
		Element(atom.Body, nil, body...),
	))
	return doc
}
