package game

import (
	"errors"
	"fmt"
)

// Rejection sentinels. Validator errors wrap exactly one of these.
var (
	ErrUnknownAction         = errors.New("unknown action type")
	ErrUnknownCompany        = errors.New("unknown company")
	ErrBidLost               = errors.New("bid lost")
	ErrRowBudgetExhausted    = errors.New("row budget exhausted")
	ErrWrongPhase            = errors.New("action not allowed in this phase")
	ErrChipDuringPeriodStart = errors.New("chip purchases are not allowed during the period-start phase")
	ErrExpeditedInPeriod2    = errors.New("expedited chip purchases are not allowed in period 2")
	ErrChipAlreadyThisRow    = errors.New("only one chip purchase per row")
	ErrInvalidChip           = errors.New("invalid chip kind")
	ErrChipLimit             = errors.New("chip limit reached")
	ErrInsufficientCash      = errors.New("insufficient cash")
	ErrInvalidQuantity       = errors.New("invalid quantity")
	ErrUnknownMarket         = errors.New("unknown market")
	ErrMarketClosed          = errors.New("market closed")
	ErrNoSalesman            = errors.New("at least one salesman required to sell")
	ErrBelowMinimumSale      = errors.New("quantity below minimum sale")
	ErrMarketCapacity        = errors.New("market capacity exhausted")
	ErrInsufficientProducts  = errors.New("insufficient products")
	ErrSalesCapacity         = errors.New("quantity exceeds sales capacity")
	ErrPriceOutOfRange       = errors.New("price out of range")
	ErrInventoryReserve      = errors.New("sale would break the final-period inventory reserve")
	ErrMaterialCap           = errors.New("material purchase above cap")
	ErrStorageCapacity       = errors.New("storage capacity exceeded")
	ErrIllegalProduction     = errors.New("moving one material and completing one product in the same action is illegal")
	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrWIPCap                = errors.New("work in progress cap exceeded")
	ErrManufacturingCapacity = errors.New("quantity exceeds manufacturing capacity")
	ErrHireLimit             = errors.New("hire limit per row exceeded")
	ErrInvalidMachine        = errors.New("invalid machine")
	ErrLastMachine           = errors.New("at least one machine must remain")
	ErrAttachmentLimit       = errors.New("attachment limit reached")
	ErrWarehouseLimit        = errors.New("warehouse limit reached")
	ErrInvalidLoan           = errors.New("invalid loan kind")
	ErrLoanLimit             = errors.New("loan limit exceeded")
	ErrLongTermOutsideStart  = errors.New("long-term loans are only available during the period-start phase")
	ErrRepayExceedsBalance   = errors.New("repayment exceeds loan balance")
	ErrInvalidAmount         = errors.New("invalid amount")
)

var (
	ErrSelfCheck     = errors.New("rule self-check failed")
	ErrNoCompanies   = errors.New("no companies")
	ErrInvalidOption = errors.New("invalid option")
)

// InvariantError reports a post-mutation consistency failure. It aborts
// the run: a valid validator never lets one through.
type InvariantError struct {
	Rule    string
	Company CompanyID
	Period  int
	Row     int
	Detail  string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant %s violated: company=%d period=%d row=%d: %s", e.Rule, e.Company, e.Period, e.Row, e.Detail)
}

// IsRejection reports whether err is an expected validator rejection.
func IsRejection(err error) bool {
	if err == nil {
		return false
	}
	var inv *InvariantError
	return !errors.As(err, &inv)
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	if a <= 0 {
		return -((-a) / b)
	}
	return (a + b - 1) / b
}

func pct(v, p int) int {
	return ceilDiv(v*p, 100)
}

func floorPct(v, p int) int {
	if v <= 0 {
		return 0
	}
	return v * p / 100
}
