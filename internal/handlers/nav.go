package handlers

import (
	"net/http"

	"github.com/evolutio/automated-orders/internal"
	"github.com/evolutio/automated-orders/internal/auth"
)

// NavItem is one entry the host adds to the event navigation.
type NavItem struct {
	Label  string `json:"label"`
	URL    string `json:"url"`
	Icon   string `json:"icon"`
	Active bool   `json:"active"`
}

// Navigation returns the entries visible to id on the event at
// organizer/event. currentPath marks the entry active.
func Navigation(perms auth.Permissions, id *auth.Identity, organizer, event, currentPath, label string) []NavItem {
	if !perms.CanViewOrders(id) {
		return []NavItem{}
	}
	url := FormPath(organizer, event)
	return []NavItem{{
		Label:  label,
		URL:    url,
		Icon:   "ticket",
		Active: currentPath == url,
	}}
}

// nav answers the host's navigation request. The host passes the path
// it is rendering in ?path=.
func (h *BulkOrders) nav(c internal.Context) error {
	s, err := h.scope(c)
	if err != nil {
		return err
	}
	items := Navigation(s.perms, s.id, s.event.OrganizerSlug, s.event.Slug, c.Query("path"), c.T("automated_orders.nav"))
	return c.JSON(http.StatusOK, items)
}
