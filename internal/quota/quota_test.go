package quota

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-desk/internal/config"
	"github.com/spec-kit/ticket-desk/internal/domain"
	apperrors "github.com/spec-kit/ticket-desk/pkg/util/errorutil"
)

func openTickets(userID string, category domain.Category, n int) []*domain.TicketRecord {
	recs := make([]*domain.TicketRecord, n)
	for i := range recs {
		recs[i] = &domain.TicketRecord{
			ChannelID: fmt.Sprintf("10000000000000000%d", i),
			UserID:    userID,
			Category:  category,
		}
	}
	return recs
}

func TestTotalCapDeniesAnyCategory(t *testing.T) {
	g := NewGuard(config.QuotaConfig{MaxTotal: 10, MaxPerCategory: 3})

	// 10 open tickets spread under the per-category cap.
	var open []*domain.TicketRecord
	open = append(open, openTickets("user", domain.CategorySupport, 3)...)
	open = append(open, openTickets("user", domain.CategoryBooking, 3)...)
	open = append(open, openTickets("user", domain.CategoryHR, 3)...)
	open = append(open, openTickets("user", domain.CategoryFounders, 1)...)

	for _, cat := range domain.Categories() {
		err := g.Check("user", cat, open)
		require.Error(t, err, "category %s", cat)
		assert.True(t, apperrors.IsCode(err, "QUOTA_EXCEEDED"))
		assert.Equal(t, "total", apperrors.ToDomainError(err).Details["cap"])
	}
}

func TestCategoryCapIsPerCategory(t *testing.T) {
	g := NewGuard(config.QuotaConfig{MaxTotal: 10, MaxPerCategory: 3})
	open := openTickets("user", domain.CategorySupport, 3)

	err := g.Check("user", domain.CategorySupport, open)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "QUOTA_EXCEEDED"))
	assert.Equal(t, "category", apperrors.ToDomainError(err).Details["cap"])

	assert.NoError(t, g.Check("user", domain.CategoryRecruitment, open))
}

func TestClosedTicketsDoNotCount(t *testing.T) {
	g := NewGuard(config.QuotaConfig{MaxTotal: 10, MaxPerCategory: 3})

	recs := openTickets("user", domain.CategorySupport, 3)
	recs[0].Closed = true

	assert.NoError(t, g.Check("user", domain.CategorySupport, recs))
}

func TestOtherUsersTicketsDoNotCount(t *testing.T) {
	g := NewGuard(config.QuotaConfig{MaxTotal: 10, MaxPerCategory: 3})
	open := openTickets("someone-else", domain.CategorySupport, 3)

	assert.NoError(t, g.Check("user", domain.CategorySupport, open))
}
