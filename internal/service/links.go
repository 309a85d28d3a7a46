package service

import (
	"net/url"
	"strings"

	"ticket-stream-portal/internal/config"
	"ticket-stream-portal/internal/notify"
)

// StreamLink is the URL a purchaser opens to redeem their token.
func StreamLink(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/stream?token=" + url.QueryEscape(token)
}

func eventDetails(ev config.Event) notify.EventDetails {
	return notify.EventDetails{
		Name:     ev.Name,
		Artist:   ev.Artist,
		Venue:    ev.Venue,
		Location: ev.Location,
		StartsAt: ev.StartsAt,
	}
}
