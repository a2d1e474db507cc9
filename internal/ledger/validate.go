package ledger

import (
	"errors"
	"fmt"
	"strings"

	"github.com/carteira-dev/carteira/internal/billing"
	"github.com/carteira-dev/carteira/internal/id"
	"github.com/carteira-dev/carteira/internal/model"
)

// ErrInvalid wraps every validation failure returned by the ledger.
var ErrInvalid = errors.New("validation failed")

// Validation rules checked on every month file.
const (
	RuleEntry      = "entry"
	RuleMonth      = "month"
	RuleID         = "id"
	RuleDuplicate  = "duplicate"
	RuleGroupShape = "group"
)

// ValidationError describes a single rule violation.
type ValidationError struct {
	Rule        string
	EntryID     string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s [%s]: %s", e.Rule, e.EntryID, e.Description)
}

// ValidateEntries checks the entries that make up one month file.
func ValidateEntries(entries []model.Entry, p billing.Period) []ValidationError {
	var errs []ValidationError

	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			errs = append(errs, ValidationError{Rule: RuleEntry, EntryID: e.ID, Description: err.Error()})
		}

		if !p.Contains(e.Date) {
			errs = append(errs, ValidationError{
				Rule:        RuleMonth,
				EntryID:     e.ID,
				Description: fmt.Sprintf("date %s not in %s", e.Date, p),
			})
		}

		if _, _, _, err := id.ParseEntryID(e.ID); err != nil {
			errs = append(errs, ValidationError{Rule: RuleID, EntryID: e.ID, Description: err.Error()})
		}

		if seen[e.ID] {
			errs = append(errs, ValidationError{
				Rule:        RuleDuplicate,
				EntryID:     e.ID,
				Description: "entry ID used more than once",
			})
		}
		seen[e.ID] = true

		if e.InGroup() && !id.ValidGroupID(e.GroupID) {
			errs = append(errs, ValidationError{
				Rule:        RuleGroupShape,
				EntryID:     e.ID,
				Description: fmt.Sprintf("malformed group ID %q", e.GroupID),
			})
		}
	}

	return errs
}

func validationFailed(p billing.Period, verrs []ValidationError) error {
	msgs := make([]string, len(verrs))
	for i, ve := range verrs {
		msgs[i] = ve.Error()
	}
	return fmt.Errorf("%w for %s: %s", ErrInvalid, p, strings.Join(msgs, "; "))
}
