// Package whatsapp hands orders off to the shop's WhatsApp number. There is
// no checkout here: "buying" is opening a pre-filled chat with the shop, so
// the gateway only builds the greeting and the wa.me URL the browser is
// redirected to. Fire-and-forget, no callback.
package whatsapp

import (
	"fmt"
	"net/url"
	"strings"
)

type Gateway struct {
	number string
}

func NewGateway(number string) *Gateway {
	return &Gateway{number: strings.TrimSpace(number)}
}

// BuildOrderMessage renders the order greeting, e.g.
// "kak mau beli Bolen Keju Large x3 ya". The quantity suffix is omitted for a
// single unit.
func BuildOrderMessage(name, variant string, qty int) string {
	label := name
	if variant != "" {
		label = name + " " + variant
	}
	qtyText := ""
	if qty > 1 {
		qtyText = fmt.Sprintf(" x%d", qty)
	}
	return fmt.Sprintf("kak mau beli %s%s ya", label, qtyText)
}

// OrderURL is the chat link for a message; an empty message links to the bare
// conversation.
func (g *Gateway) OrderURL(message string) string {
	u := "https://wa.me/" + g.number
	if message != "" {
		u += "?text=" + url.QueryEscape(message)
	}
	return u
}
