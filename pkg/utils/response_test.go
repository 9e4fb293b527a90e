package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func TestRespondError(t *testing.T) {
	resp := httptest.NewRecorder()
	RespondError(resp, http.StatusBadRequest, "bad input")

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "application/json", resp.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"bad input"}`, resp.Body.String())
}

func TestRespondHTML(t *testing.T) {
	div := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	div.AppendChild(&html.Node{Type: html.TextNode, Data: "a < b"})

	resp := httptest.NewRecorder()
	RespondHTML(resp, http.StatusOK, div)

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header().Get("Content-Type"))
	assert.Equal(t, "<div>a &lt; b</div>", resp.Body.String())
}

func TestRespondHTMLRenderFailure(t *testing.T) {
	img := &html.Node{Type: html.ElementNode, Data: "img", DataAtom: atom.Img}
	img.AppendChild(&html.Node{Type: html.TextNode, Data: "void elements cannot have children"})

	resp := httptest.NewRecorder()
	RespondHTML(resp, http.StatusOK, img)

	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}
