package modes

import "fmt"

// Route describes where chat traffic for a mode is dispatched.
type Route struct {
	Local       bool   `json:"local"`
	ExternalURL string `json:"external_url"`
}

// DefaultSpaceURLs are the hosted Spaces backing the remote modes.
var DefaultSpaceURLs = map[Mode]string{
	Data:        "https://huggingface.co/spaces/coJournalist/cojournalist-data",
	Investigate: "https://huggingface.co/spaces/coJournalist/cojournalist-investigate",
	FactCheck:   "https://huggingface.co/spaces/coJournalist/coJournalist-Fact-Check",
	Graphics:    "https://huggingface.co/spaces/coJournalist/cojournalist-graphics",
}

// Registry maps every mode to its route. It is immutable after construction.
type Registry struct {
	routes map[Mode]Route
}

// NewRegistry builds the registry. SCRAPE always routes locally with no
// external link; the remaining modes route to their Space, with entries in
// overrides replacing the defaults.
func NewRegistry(overrides map[Mode]string) *Registry {
	routes := make(map[Mode]Route, len(all))
	for _, m := range all {
		if m == Scrape {
			routes[m] = Route{Local: true}
			continue
		}
		url := DefaultSpaceURLs[m]
		if override, ok := overrides[m]; ok && override != "" {
			url = override
		}
		routes[m] = Route{ExternalURL: url}
	}
	return &Registry{routes: routes}
}

// Resolve returns the route for m. Passing a mode outside the closed set is a
// programming error and panics.
func (r *Registry) Resolve(m Mode) Route {
	route, ok := r.routes[m]
	if !ok {
		panic(fmt.Sprintf("modes: resolve called with unknown mode %q", m))
	}
	return route
}

// Entry is the listing shape of one mode.
type Entry struct {
	Mode  Mode   `json:"mode"`
	Label string `json:"label"`
	Route
}

// Entries lists every mode with its route in display order.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, 0, len(all))
	for _, m := range all {
		out = append(out, Entry{Mode: m, Label: m.Label(), Route: r.routes[m]})
	}
	return out
}
