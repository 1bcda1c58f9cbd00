package credit

import (
	"time"

	"github.com/shopspring/decimal"

	"credit-approval-service/internal/domain/customer"
	"credit-approval-service/internal/domain/loan"
)

// Weight distribution for the score factors (sums to 100).
var (
	weightOnTimePayment = decimal.NewFromInt(30)
	weightLoanCount     = decimal.NewFromInt(20)
	weightYearActivity  = decimal.NewFromInt(20)
	weightLoanVolume    = decimal.NewFromInt(30)
)

// ratioPrecision bounds the on-time and volume ratio divisions before the
// weighted sum; the sum itself stays in decimal so a tie at exactly .5
// always rounds up instead of depending on float representation.
const ratioPrecision = 16

// Bracket tables are ordered, first-match, inclusive on the upper bound.
// The thresholds are policy, not approximations.
type countBracket struct {
	upTo  int
	ratio decimal.Decimal
}

type volumeBracket struct {
	upTo  decimal.Decimal
	ratio decimal.Decimal
}

var (
	loanCountBrackets = []countBracket{
		{upTo: 2, ratio: ratio("1.0")},
		{upTo: 5, ratio: ratio("0.7")},
		{upTo: 10, ratio: ratio("0.4")},
	}
	loanCountFloor = ratio("0.1")

	yearActivityBrackets = []countBracket{
		{upTo: 0, ratio: ratio("1.0")}, // no new loans this year = stable
		{upTo: 2, ratio: ratio("0.7")},
		{upTo: 4, ratio: ratio("0.4")},
	}
	yearActivityFloor = ratio("0.1")

	volumeBrackets = []volumeBracket{
		{upTo: ratio("0.25"), ratio: ratio("1.0")},
		{upTo: ratio("0.5"), ratio: ratio("0.7")},
		{upTo: ratio("0.75"), ratio: ratio("0.4")},
		{upTo: ratio("1.0"), ratio: ratio("0.2")},
	}
	volumeFloor = decimal.Zero
)

func ratio(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func countRatio(brackets []countBracket, floor decimal.Decimal, n int) decimal.Decimal {
	for _, b := range brackets {
		if n <= b.upTo {
			return b.ratio
		}
	}
	return floor
}

// Scorer computes credit scores from a customer's loan history. Read-only
// and reentrant; safe to call concurrently without locking.
type Scorer struct {
	now func() time.Time
}

func NewScorer() *Scorer { return &Scorer{now: time.Now} }

// NewScorerAt pins the clock, for current-year activity in tests.
func NewScorerAt(now func() time.Time) *Scorer { return &Scorer{now: now} }

// Score returns a 0-100 credit score for the customer.
//
// No history → baseline 50. Active principal above the approved limit →
// 0, short-circuiting everything else. Otherwise four weighted factors:
// on-time payment ratio, loan count, current-year activity, and lifetime
// volume against the approved limit.
func (s *Scorer) Score(c *customer.Customer, history []loan.Loan) int {
	if len(history) == 0 {
		return 50
	}

	activeAmount := decimal.Zero
	totalAmount := decimal.Zero
	totalTenure := 0
	totalOnTime := 0
	currentYearLoans := 0
	year := s.now().UTC().Year()

	for i := range history {
		l := &history[i]
		totalAmount = totalAmount.Add(l.LoanAmount)
		totalTenure += l.Tenure
		totalOnTime += l.EMIsPaidOnTime
		if l.IsActive {
			activeAmount = activeAmount.Add(l.LoanAmount)
		}
		if l.StartDate.Year() == year {
			currentYearLoans++
		}
	}

	approvedLimit := decimal.NewFromInt(c.ApprovedLimit)

	// Over-extended: active principal beyond the approved limit zeroes the
	// score regardless of any other factor.
	if activeAmount.GreaterThan(approvedLimit) {
		return 0
	}

	onTimeRatio := decimal.Zero
	if totalTenure > 0 {
		onTimeRatio = decimal.NewFromInt(int64(totalOnTime)).
			DivRound(decimal.NewFromInt(int64(totalTenure)), ratioPrecision)
	}

	volumeScoreRatio := volumeFloor
	if approvedLimit.Sign() > 0 {
		volumeRatio := totalAmount.DivRound(approvedLimit, ratioPrecision)
		for _, b := range volumeBrackets {
			if volumeRatio.LessThanOrEqual(b.upTo) {
				volumeScoreRatio = b.ratio
				break
			}
		}
	}

	sum := onTimeRatio.Mul(weightOnTimePayment).
		Add(countRatio(loanCountBrackets, loanCountFloor, len(history)).Mul(weightLoanCount)).
		Add(countRatio(yearActivityBrackets, yearActivityFloor, currentYearLoans).Mul(weightYearActivity)).
		Add(volumeScoreRatio.Mul(weightLoanVolume))

	// Round half up, clamp to [0, 100].
	score := int(sum.Round(0).IntPart())
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
