// Package classifier decides whether a concept measures activity over a
// period (a flow) or a balance at an instant (point-in-time). Flows get a
// computed fourth quarter; point-in-time concepts get the annual value
// copied, because a balance at fiscal year end IS the Q4 balance.
package classifier

import (
	"strings"

	"golang-imputation-service/internal/models"
)

// pointInTimeFragments are matched case-insensitively against both the
// qualified name and the label. Any hit classifies the concept as
// point-in-time.
var pointInTimeFragments = []string{
	"cashandcashequivalents",
	"cashcashequivalents",
	"restrictedcash",
	"endofperiod",
	"endofyear",
	"beginningofperiod",
	"beginningofyear",
	"sharesoutstanding",
	"periodincreasedecrease",
	"effectofexchangerate",
	"endingbalance",
	"beginningbalance",
	"end of period",
	"end of year",
	"beginning of period",
	"beginning of year",
	"shares outstanding",
	"ending balance",
	"beginning balance",
}

// IsPointInTime reports whether the concept carries an instant balance
// rather than a period flow.
func IsPointInTime(c *models.Concept) bool {
	name := strings.ToLower(c.QualifiedName)
	label := strings.ToLower(c.Label)
	for _, fragment := range pointInTimeFragments {
		if strings.Contains(name, fragment) || strings.Contains(label, fragment) {
			return true
		}
	}
	return false
}
