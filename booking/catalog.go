package booking

import "strings"

// ServiceID is the internal identifier of a bookable service kind.
type ServiceID string

// Service is a catalog entry.
type Service struct {
	Key     string
	ID      ServiceID
	Icon    string
	Name    string
	aliases []string
}

// Label returns the display label with its icon, e.g. "🔧 Plomberie".
func (s Service) Label() string {
	return s.Icon + " " + s.Name
}

// Catalog is the ordered list of bookable services. Keys are the numbers
// users type to pick one.
var Catalog = []Service{
	{Key: "1", ID: "plomberie", Icon: "🔧", Name: "Plomberie"},
	{Key: "2", ID: "électricité", Icon: "⚡", Name: "Électricité", aliases: []string{"electricite"}},
	{Key: "3", ID: "nettoyage", Icon: "🧹", Name: "Nettoyage"},
	{Key: "4", ID: "jardinage", Icon: "🌱", Name: "Jardinage"},
	{Key: "5", ID: "déménagement", Icon: "🚚", Name: "Déménagement", aliases: []string{"demenagement"}},
}

// ServiceByKey looks a service up by its menu number.
func ServiceByKey(key string) (Service, bool) {
	key = strings.TrimSpace(key)
	for _, s := range Catalog {
		if s.Key == key {
			return s, true
		}
	}
	return Service{}, false
}

// ServiceByID looks a service up by its internal id.
func ServiceByID(id ServiceID) (Service, bool) {
	for _, s := range Catalog {
		if s.ID == id {
			return s, true
		}
	}
	return Service{}, false
}

// MatchService finds the first service whose id, icon-less label or alias
// appears in the lowercased text. Menu numbers are not considered.
func MatchService(text string) (Service, bool) {
	text = strings.ToLower(text)
	for _, s := range Catalog {
		if strings.Contains(text, string(s.ID)) || strings.Contains(text, strings.ToLower(s.Name)) {
			return s, true
		}
		for _, a := range s.aliases {
			if strings.Contains(text, a) {
				return s, true
			}
		}
	}
	return Service{}, false
}

// DisplayService returns the catalog label for id, or the raw id when unknown.
func DisplayService(id ServiceID) string {
	if s, ok := ServiceByID(id); ok {
		return s.Label()
	}
	return string(id)
}
