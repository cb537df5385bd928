package numbering

import (
	"context"
	"time"

	"github.com/mes/backend/internal/domain/numbering"
)

// LastNumberFunc returns the greatest document number starting with prefix, or ""
type LastNumberFunc func(ctx context.Context, prefix string) (string, error)

// NextDatedCounter renders the next <P>-YYYYMMDD-NNN after the day's greatest number.
// Documents numbered this way have no rule row; call it inside the creating transaction.
func NextDatedCounter(ctx context.Context, last LastNumberFunc, prefix string, now time.Time) (string, error) {
	greatest, err := last(ctx, numbering.DatedPrefix(prefix, now))
	if err != nil {
		return "", err
	}
	return numbering.DatedCounter(prefix, now, numbering.ExtractSequence(greatest)+1), nil
}
