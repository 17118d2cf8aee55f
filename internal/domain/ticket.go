package domain

import "time"

// FormData is the opaque payload captured from the originating request form.
// The core stores and echoes it; only the owning panel interprets its keys.
type FormData map[string]string

// TicketRecord is the durable state of one ticket, keyed by the channel
// hosting it. ChannelID and UserID are immutable after creation; everything
// else changes only through the lifecycle transitions.
type TicketRecord struct {
	ChannelID          string     `json:"channelId"`
	UserID             string     `json:"userId"`
	Category           Category   `json:"category"`
	CreatedAt          time.Time  `json:"createdAt"`
	Closed             bool       `json:"closed"`
	ClosedAt           *time.Time `json:"closedAt,omitempty"`
	ClosedBy           string     `json:"closedBy,omitempty"`
	ReopenedAt         *time.Time `json:"reopenedAt,omitempty"`
	ReopenedBy         string     `json:"reopenedBy,omitempty"`
	ManuallyRegistered bool       `json:"manuallyRegistered,omitempty"`
	FormData           FormData   `json:"formData,omitempty"`
}

// Open reports whether the ticket is eligible for staff/user interaction.
func (r *TicketRecord) Open() bool {
	return !r.Closed
}

// Clone returns a copy safe to hand outside the registry lock.
func (r *TicketRecord) Clone() *TicketRecord {
	cp := *r
	if r.ClosedAt != nil {
		t := *r.ClosedAt
		cp.ClosedAt = &t
	}
	if r.ReopenedAt != nil {
		t := *r.ReopenedAt
		cp.ReopenedAt = &t
	}
	if r.FormData != nil {
		cp.FormData = make(FormData, len(r.FormData))
		for k, v := range r.FormData {
			cp.FormData[k] = v
		}
	}
	return &cp
}
