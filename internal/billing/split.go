package billing

import (
	"bill-scan-go/internal/models"
	"bill-scan-go/internal/store"

	"github.com/shopspring/decimal"
)

// EvenSplits divides amount equally among members, in cents. The residual
// cents go to the first share so the shares always sum to the rounded amount.
// With no members the whole amount goes to a single implicit payer.
func EvenSplits(amount decimal.Decimal, members []models.TeamMember) []store.SplitShare {
	total := amount.Round(2)
	if len(members) == 0 {
		return []store.SplitShare{{Amount: total}}
	}

	count := decimal.NewFromInt(int64(len(members)))
	share := total.Div(count).Truncate(2)
	residual := total.Sub(share.Mul(count))

	shares := make([]store.SplitShare, len(members))
	for i, member := range members {
		shares[i] = store.SplitShare{TeamMemberId: member.Id, Amount: share}
	}
	shares[0].Amount = shares[0].Amount.Add(residual)
	return shares
}
