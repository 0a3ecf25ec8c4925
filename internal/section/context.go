package section

import "strings"

// Context is the section a chunk belongs to. A detected heading opens a
// new context; chunks without one inherit the previous chunk's context.
type Context struct {
	Heading    string
	Title      string
	Identifier string
	Path       []string
}

// Rank renders the path as a breadcrumb, e.g. "2 > 1 > Billing".
func (c Context) Rank() string { return strings.Join(c.Path, " > ") }

// Level is the depth of the section, the number of path tokens.
func (c Context) Level() int { return len(c.Path) }

// Clone copies the context with its own path slice.
func (c Context) Clone() Context {
	out := c
	if c.Path != nil {
		out.Path = append([]string(nil), c.Path...)
	}
	return out
}

// General is the fallback context for text appearing before any heading.
func General() Context {
	return Context{Heading: "General", Title: "General", Path: []string{"General"}}
}

// Context converts a heading match into a fresh section context.
func (h *Heading) Context() Context {
	title := h.Title
	if title == "" {
		title = h.Text
	}
	path := h.Path
	if len(path) == 0 {
		path = []string{title}
	}
	return Context{
		Heading:    h.Text,
		Title:      title,
		Identifier: h.Identifier,
		Path:       append([]string(nil), path...),
	}
}
