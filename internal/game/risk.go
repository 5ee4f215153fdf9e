package game

import (
	"fmt"

	"mgsim/internal/rules"
)

type RiskOutcome struct {
	CardID   int                `json:"card_id"`
	Category rules.RiskCategory `json:"category"`
	Detail   string             `json:"detail"`
	Amount   int                `json:"amount"`
}

// ApplyRisk applies the effect of risk card cardID to company id. Every
// category is total: when the company has nothing to lose the card has no
// effect. The outcome is logged under the risk category.
func ApplyRisk(cfg *rules.Config, st *GameState, id CompanyID, cardID int) RiskOutcome {
	c := st.Company(id)
	cat := cfg.RiskCard(cardID)
	out := RiskOutcome{CardID: cardID, Category: cat}
	if c == nil {
		return out
	}

	switch cat {
	case rules.RiskClaimFee:
		out.Amount = chargeRisk(c, cfg.ClaimFee)
		out.Detail = fmt.Sprintf("claim fee %d", cfg.ClaimFee)
	case rules.RiskEnvironmentalFine:
		out.Amount = chargeRisk(c, cfg.EnvironmentalFine)
		out.Detail = fmt.Sprintf("environmental fine %d", cfg.EnvironmentalFine)
	case rules.RiskBankruptCustomer:
		if st.Period == cfg.FirstPeriod {
			out.Detail = "bankrupt customer waived in first period"
			break
		}
		c.Cash -= cfg.BankruptLoss
		c.Book.SpecialLoss += cfg.BankruptLoss
		out.Amount = -cfg.BankruptLoss
		out.Detail = fmt.Sprintf("bankrupt customer loss %d", cfg.BankruptLoss)
	case rules.RiskWIPSpoilage:
		if c.WIP == 0 {
			out.Detail = "no work in progress to spoil"
			break
		}
		c.WIP--
		loseInventory(c, cfg.WIPValue)
		out.Amount = -cfg.WIPValue
		out.Detail = "one work in progress unit spoiled"
	case rules.RiskFire:
		n := c.Materials
		c.Materials = 0
		out.Amount = -insuredLoss(cfg, c, n, cfg.MaterialValue)
		out.Detail = fmt.Sprintf("fire destroyed %d materials", n)
	case rules.RiskTheft:
		n := min(c.Products, cfg.TheftMax)
		c.Products -= n
		out.Amount = -insuredLoss(cfg, c, n, cfg.ProductValue)
		out.Detail = fmt.Sprintf("theft of %d products", n)
	case rules.RiskResearchLeak:
		out.Detail = forfeitChip(c, rules.ChipResearch)
	case rules.RiskEducationLapse:
		out.Detail = forfeitChip(c, rules.ChipEducation)
	case rules.RiskAdvertisingFlop:
		out.Detail = forfeitChip(c, rules.ChipAdvertising)
	case rules.RiskSystemFailure:
		out.Detail = forfeitChip(c, rules.ChipComputer)
	case rules.RiskLabourDispute:
		c.PendingSkips++
		out.Detail = "labour dispute: next row skipped"
	case rules.RiskOrderReversal:
		st.Reversed = !st.Reversed
		out.Detail = fmt.Sprintf("turn order reversed=%t", st.Reversed)
	case rules.RiskSpecialOrder, rules.RiskBulkOrder:
		opp, _ := cfg.Opportunity(cat)
		n := min(opp.MaxQuantity, c.Products)
		if st.Period == cfg.LastPeriod {
			n = min(n, max(c.Inventory()-cfg.Period5InventoryReserve, 0))
		}
		if n == 0 {
			out.Detail = "opportunity order with nothing to sell"
			break
		}
		revenue := n * opp.Price
		c.Cash += revenue
		c.Products -= n
		c.Book.Sales += revenue
		c.TotalSales += revenue
		c.TotalQuantity += n
		out.Amount = revenue
		out.Detail = fmt.Sprintf("sold %d at %d", n, opp.Price)
	case rules.RiskWorkerResigns:
		if c.Workers > 0 {
			c.Workers--
			out.Detail = "a worker resigned"
		} else {
			out.Detail = "no worker to resign"
		}
	case rules.RiskSalesmanResigns:
		if c.Salesmen > 0 {
			c.Salesmen--
			out.Detail = "a salesman resigned"
		} else {
			out.Detail = "no salesman to resign"
		}
	case rules.RiskResearchGrant:
		c.Chips.Research++
		out.Detail = "research grant: one research chip"
	default:
		out.Detail = "no effect"
	}
	c.record(LogRisk, "", out.Amount, "card %d %s: %s", cardID, cat, out.Detail)
	return out
}

func chargeRisk(c *Company, amount int) int {
	c.Cash -= amount
	c.Book.RiskFixed += amount
	return -amount
}

func loseInventory(c *Company, value int) {
	c.Book.InventoryLost += value
	c.Book.SpecialLoss += value
}

// insuredLoss books n lost units. A held insurance chip pays out per unit
// and is consumed. It returns the net loss.
func insuredLoss(cfg *rules.Config, c *Company, n, unitValue int) int {
	if n == 0 {
		return 0
	}
	value := n * unitValue
	c.Book.InventoryLost += value
	payout := 0
	if c.Chips.Insurance > 0 {
		payout = n * cfg.InsurancePayout
		c.Chips.Insurance--
		c.Cash += payout
	}
	net := max(value-payout, 0)
	c.Book.SpecialLoss += net
	return net
}

func forfeitChip(c *Company, k rules.ChipKind) string {
	if c.Chips.Get(k) == 0 {
		return fmt.Sprintf("no %s chip to lose", k)
	}
	c.Chips.Add(k, -1)
	return fmt.Sprintf("lost one %s chip", k)
}
