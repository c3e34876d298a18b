package domain

import (
	"fmt"
	"strings"
)

// PersonaID names a client identity
type PersonaID string

const (
	PersonaAndroid PersonaID = "android"
	PersonaWeb     PersonaID = "web"
	PersonaIOS     PersonaID = "ios"
)

// ClientPersona is a bundle of request-shaping hints passed to the extractor
type ClientPersona struct {
	ID            PersonaID
	UserAgent     string
	Referer       string
	ExtractorArgs []string // each becomes one --extractor-args value
}

// DefaultPersonaOrder is the metadata retry order. Android goes first
// because it clears bot checks on YouTube most often.
var DefaultPersonaOrder = []PersonaID{PersonaAndroid, PersonaWeb, PersonaIOS}

var personaTable = map[PersonaID]ClientPersona{
	PersonaAndroid: {
		ID:        PersonaAndroid,
		UserAgent: "Mozilla/5.0 (Linux; Android 10; K) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Mobile Safari/537.36",
		Referer:   "https://m.youtube.com/",
		ExtractorArgs: []string{
			"youtube:player_client=android,web;player_skip=webpage,configs,js",
		},
	},
	PersonaWeb: {
		ID:        PersonaWeb,
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		Referer:   "https://www.youtube.com/",
		ExtractorArgs: []string{
			"youtube:player_client=web",
		},
	},
	PersonaIOS: {
		ID:        PersonaIOS,
		UserAgent: "com.google.ios.youtube/19.29.1 (iPhone16,2; U; CPU iOS 17_5_1 like Mac OS X;)",
		Referer:   "https://www.youtube.com/",
		ExtractorArgs: []string{
			"youtube:player_client=ios",
		},
	},
}

// facebookUserAgent is the desktop browser Facebook serves full formats to
const facebookUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// ForDomain narrows a persona to the hints that apply to a source site.
// YouTube keeps the full persona, Facebook gets a desktop browser with a
// facebook.com referer, and every other site gets no hints at all.
func (p ClientPersona) ForDomain(source SourceDomain) ClientPersona {
	switch source {
	case DomainYouTube:
		p.ExtractorArgs = append([]string(nil), p.ExtractorArgs...)
		return p
	case DomainFacebook:
		return ClientPersona{
			ID:        p.ID,
			UserAgent: facebookUserAgent,
			Referer:   "https://www.facebook.com/",
		}
	default:
		return ClientPersona{ID: p.ID}
	}
}

// LookupPersona returns the persona for an ID
func LookupPersona(id PersonaID) (ClientPersona, error) {
	p, ok := personaTable[PersonaID(strings.ToLower(string(id)))]
	if !ok {
		return ClientPersona{}, fmt.Errorf("unknown persona: %s", id)
	}
	// copy so callers cannot mutate the table
	p.ExtractorArgs = append([]string(nil), p.ExtractorArgs...)
	return p, nil
}

// PersonaSequence resolves an ordered list of IDs. An empty list yields
// the default order. Duplicates are rejected.
func PersonaSequence(ids []string) ([]ClientPersona, error) {
	if len(ids) == 0 {
		ids = make([]string, len(DefaultPersonaOrder))
		for i, id := range DefaultPersonaOrder {
			ids[i] = string(id)
		}
	}

	seen := make(map[PersonaID]bool, len(ids))
	personas := make([]ClientPersona, 0, len(ids))
	for _, raw := range ids {
		p, err := LookupPersona(PersonaID(raw))
		if err != nil {
			return nil, err
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("duplicate persona: %s", p.ID)
		}
		seen[p.ID] = true
		personas = append(personas, p)
	}
	return personas, nil
}
