// Package panel defines the per-category form collaborators. The engine
// asks a panel for its modal, hands submitted fields back for extraction,
// and posts the panel's summary; it never interprets field layout itself.
package panel

import (
	"fmt"

	"github.com/spec-kit/ticket-desk/internal/domain"
)

// Field describes one input of a category's request modal.
type Field struct {
	ID          string
	Label       string
	Placeholder string
	Required    bool
	Paragraph   bool
}

// Modal is the form shown to a requester before a ticket is created.
type Modal struct {
	ID     string
	Title  string
	Fields []Field
}

// Panel is the collaborator contract for one category.
type Panel interface {
	Category() domain.Category
	Modal() Modal
	Extract(fields map[string]string) domain.FormData
	Summary(form domain.FormData) string
}

// ModalID is the identifier convention binding a modal submission back to
// its category.
func ModalID(category domain.Category) string {
	return "ticket-create:" + string(category)
}

// Registry indexes panels by category and by modal identifier.
type Registry struct {
	byCategory map[domain.Category]Panel
	byModalID  map[string]Panel
}

// NewRegistry registers the given panels, rejecting duplicates.
func NewRegistry(panels ...Panel) (*Registry, error) {
	r := &Registry{
		byCategory: make(map[domain.Category]Panel, len(panels)),
		byModalID:  make(map[string]Panel, len(panels)),
	}
	for _, p := range panels {
		cat := p.Category()
		if _, dup := r.byCategory[cat]; dup {
			return nil, fmt.Errorf("duplicate panel for category %q", cat)
		}
		r.byCategory[cat] = p
		r.byModalID[p.Modal().ID] = p
	}
	return r, nil
}

// ByCategory resolves the panel for a category.
func (r *Registry) ByCategory(category domain.Category) (Panel, bool) {
	p, ok := r.byCategory[category]
	return p, ok
}

// ByModalID resolves the panel owning a submitted modal.
func (r *Registry) ByModalID(modalID string) (Panel, bool) {
	p, ok := r.byModalID[modalID]
	return p, ok
}

// ModalIDs lists every registered modal identifier.
func (r *Registry) ModalIDs() []string {
	ids := make([]string, 0, len(r.byModalID))
	for id := range r.byModalID {
		ids = append(ids, id)
	}
	return ids
}
