package panel

import (
	"fmt"
	"strings"

	"github.com/spec-kit/ticket-desk/internal/domain"
)

// formPanel is the shared implementation behind the built-in category
// panels: a static field list plus an optional headline field surfaced in
// the creation summary.
type formPanel struct {
	category domain.Category
	title    string
	fields   []Field
	headline string
}

func (p *formPanel) Category() domain.Category { return p.category }

func (p *formPanel) Modal() Modal {
	return Modal{
		ID:     ModalID(p.category),
		Title:  p.title,
		Fields: p.fields,
	}
}

// Extract keeps only the fields this panel declared, dropping anything a
// stale or tampered submission might carry.
func (p *formPanel) Extract(fields map[string]string) domain.FormData {
	form := domain.FormData{}
	for _, f := range p.fields {
		if v, ok := fields[f.ID]; ok {
			if v = strings.TrimSpace(v); v != "" {
				form[f.ID] = v
			}
		}
	}
	return form
}

// Summary renders the one-line creation summary. The headline field, when
// present, leads; the rest of the form follows in declaration order.
func (p *formPanel) Summary(form domain.FormData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s request", p.category.Label())
	if p.headline != "" {
		if v, ok := form[p.headline]; ok {
			fmt.Fprintf(&b, ": %s", v)
		}
	}
	for _, f := range p.fields {
		if f.ID == p.headline {
			continue
		}
		if v, ok := form[f.ID]; ok {
			fmt.Fprintf(&b, "\n%s: %s", f.Label, v)
		}
	}
	return b.String()
}

// BuiltIn returns the six shipped category panels.
func BuiltIn() []Panel {
	return []Panel{
		&formPanel{
			category: domain.CategorySupport,
			title:    "Open a Support Ticket",
			headline: "issue",
			fields: []Field{
				{ID: "issue", Label: "What do you need help with?", Required: true},
				{ID: "details", Label: "Details", Paragraph: true},
			},
		},
		&formPanel{
			category: domain.CategoryRecruitment,
			title:    "Apply to the Team",
			headline: "position",
			fields: []Field{
				{ID: "position", Label: "Position", Placeholder: "e.g. moderator", Required: true},
				{ID: "experience", Label: "Relevant experience", Paragraph: true, Required: true},
				{ID: "availability", Label: "Availability"},
			},
		},
		&formPanel{
			category: domain.CategoryPartnership,
			title:    "Propose a Partnership",
			headline: "organization",
			fields: []Field{
				{ID: "organization", Label: "Organization", Required: true},
				{ID: "proposal", Label: "Proposal", Paragraph: true, Required: true},
			},
		},
		&formPanel{
			category: domain.CategoryBooking,
			title:    "Request a Booking",
			headline: "event",
			fields: []Field{
				{ID: "event", Label: "Event", Required: true},
				{ID: "date", Label: "Preferred date", Required: true},
				{ID: "notes", Label: "Notes", Paragraph: true},
			},
		},
		&formPanel{
			category: domain.CategoryFounders,
			title:    "Contact the Founders",
			headline: "subject",
			fields: []Field{
				{ID: "subject", Label: "Subject", Required: true},
				{ID: "message", Label: "Message", Paragraph: true, Required: true},
			},
		},
		&formPanel{
			category: domain.CategoryHR,
			title:    "Open an HR Ticket",
			headline: "subject",
			fields: []Field{
				{ID: "subject", Label: "Subject", Required: true},
				{ID: "description", Label: "Description", Paragraph: true, Required: true},
			},
		},
	}
}
