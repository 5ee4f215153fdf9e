package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"mgsim/internal/api"
	"mgsim/internal/game"
	"mgsim/internal/rules"
	"mgsim/internal/stats"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"
)

var (
	accent  = color.New(color.FgCyan, color.Bold)
	success = color.New(color.FgGreen, color.Bold)
	warn    = color.New(color.FgYellow, color.Bold)
	danger  = color.New(color.FgRed, color.Bold)
	neutral = color.New(color.FgHiWhite)

	border     = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	headerCell = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true).Padding(0, 1)
	cell       = lipgloss.NewStyle().Padding(0, 1)
	numberCell = cell.Align(lipgloss.Right)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

// renderTable right aligns every column except those listed in text.
func renderTable(headers []string, rows [][]string, text ...int) string {
	left := map[int]bool{}
	for _, c := range text {
		left[c] = true
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(border).
		BorderHeader(true).
		BorderRow(false).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerCell
			case left[col]:
				return cell
			default:
				return numberCell
			}
		})
	return t.Render()
}

func renderSimulation(out api.SimulationResponse, logSeat int) error {
	res := out.Result
	accent.Printf("\n== GAME %s (seed %d) ==\n", res.ID, res.Seed)
	fmt.Printf("Rows played:  %d\n", res.Rows)
	fmt.Printf("Risk draws:   %d (reshuffles %d)\n", res.RiskDraws, res.Reshuffles)

	for _, pr := range res.Periods {
		fmt.Println()
		if pr.Dice > 0 {
			accent.Printf("Period %d (dice %d)\n", pr.Period, pr.Dice)
		} else {
			accent.Printf("Period %d\n", pr.Period)
		}
		rows := make([][]string, 0, len(pr.Settlements))
		for _, s := range pr.Settlements {
			rows = append(rows, []string{
				s.Name,
				strconv.Itoa(s.PQ),
				strconv.Itoa(s.VQ),
				strconv.Itoa(s.MQ),
				strconv.Itoa(s.F),
				signed(s.G),
				strconv.Itoa(s.Tax),
				strconv.Itoa(s.EquityAfter),
				strconv.Itoa(s.CashAfter),
			})
		}
		fmt.Println(renderTable([]string{"COMPANY", "PQ", "VQ", "MQ", "F", "G", "TAX", "EQUITY", "CASH"}, rows, 0))
	}

	fmt.Println()
	accent.Println("Ranking")
	rows := make([][]string, 0, len(res.Ranking))
	for i, s := range res.Ranking {
		name := ""
		if int(s.Company) < len(out.Strategies) {
			name = out.Strategies[s.Company]
		}
		qualified := "no"
		if s.Qualified {
			qualified = "yes"
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			s.Name,
			name,
			strconv.Itoa(s.Equity),
			strconv.Itoa(s.Inventory),
			strconv.Itoa(s.CarriedOver),
			qualified,
		})
	}
	fmt.Println(renderTable([]string{"#", "COMPANY", "STRATEGY", "EQUITY", "STOCK", "CHIPS", "QUALIFIED"}, rows, 1, 2, 6))

	fmt.Println()
	if res.WinnerWarning {
		printWarn(fmt.Sprintf("Winner %s (equity %d) did not meet every victory condition.", res.Winner.Name, res.Winner.Equity))
	} else {
		printSuccess(fmt.Sprintf("Winner %s with equity %d.", res.Winner.Name, res.Winner.Equity))
	}

	if logSeat > 0 {
		return renderLog(res, logSeat)
	}
	return nil
}

func renderLog(res game.SimulationResult, seat int) error {
	if seat > len(res.Logs) {
		return fmt.Errorf("no log for seat %d", seat)
	}
	log := res.Logs[seat-1]
	fmt.Println()
	accent.Printf("Log of %s\n", log.Name)
	for _, e := range log.Entries {
		line := fmt.Sprintf("P%d r%-3d %-10s %-14s %6s  %s", e.Period, e.Row, e.Category, e.Action, signed(e.Amount), e.Detail)
		switch e.Category {
		case game.LogRejected, game.LogBidLost:
			danger.Println(line)
		case game.LogRisk:
			warn.Println(line)
		case game.LogSale:
			success.Println(line)
		default:
			fmt.Println(line)
		}
	}
	return nil
}

func renderSummary(sum stats.Summary) {
	accent.Printf("\n== BATCH %s ==\n", sum.ID)
	fmt.Printf("Created:          %s\n", sum.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Printf("Seed:             %d\n", sum.Seed)
	fmt.Printf("Games:            %d (%d failed)\n", sum.Games, sum.Failed)
	fmt.Printf("Winner warnings:  %d\n", sum.WinnerWarnings)
	fmt.Printf("Average rows:     %.1f\n", sum.AverageRows)
	if sum.Failed > 0 {
		printWarn(fmt.Sprintf("%d games stopped on an invariant violation.", sum.Failed))
	}

	rows := make([][]string, 0, len(sum.Strategies))
	for _, name := range sum.Leaders() {
		st := sum.Strategies[name]
		rate := 0.0
		if st.Seats > 0 {
			rate = float64(st.Wins) / float64(st.Seats) * 100
		}
		rows = append(rows, []string{
			name,
			strconv.Itoa(st.Seats),
			strconv.Itoa(st.Wins),
			strconv.Itoa(st.QualifiedWins),
			fmt.Sprintf("%.1f%%", rate),
			fmt.Sprintf("%.1f", st.AverageEquity),
		})
	}
	fmt.Println(renderTable([]string{"STRATEGY", "SEATS", "WINS", "QUALIFIED", "WIN RATE", "AVG EQUITY"}, rows, 0))
}

func renderSummaryList(list []stats.Summary) {
	fmt.Println()
	accent.Println("Recent batches")
	if len(list) == 0 {
		printInfo("No batches stored yet.")
		return
	}
	rows := make([][]string, 0, len(list))
	for _, s := range list {
		leader := "-"
		if l := s.Leaders(); len(l) > 0 {
			leader = l[0]
		}
		rows = append(rows, []string{
			truncate(s.ID, 13),
			s.CreatedAt.Local().Format("2006-01-02 15:04"),
			strconv.Itoa(s.Games),
			strconv.Itoa(s.Failed),
			leader,
		})
	}
	fmt.Println(renderTable([]string{"ID", "CREATED", "GAMES", "FAILED", "LEADER"}, rows, 0, 1, 4))
}

func renderSheet(sheet rules.Sheet) {
	accent.Printf("\n== RULES (%d companies) ==\n", sheet.Companies)
	o := sheet.Opening
	fmt.Printf("Opening:   cash %d, equity %d, %d workers, %d salesmen, stock %d/%d/%d\n",
		o.Cash, o.Equity, o.Workers, o.Salesmen, o.Materials, o.WIP, o.Products)
	fmt.Printf("Storage:   %d units, WIP cap %d, tax %d%%\n", sheet.BaseStorage, sheet.WIPCap, sheet.TaxPct)
	fmt.Printf("Victory:   equity >= %d, stock >= %d, carried chips >= %d\n", sheet.VictoryEquity, sheet.VictoryStock, sheet.VictoryChips)

	fmt.Println()
	accent.Println("Periods")
	rows := make([][]string, 0, len(sheet.Periods))
	for _, p := range sheet.Periods {
		rows = append(rows, []string{
			strconv.Itoa(p.Period),
			strconv.Itoa(p.RowBudget),
			strconv.Itoa(p.BaseWage),
			strconv.Itoa(p.SmallDepreciation),
			strconv.Itoa(p.LargeDepreciation),
		})
	}
	fmt.Println(renderTable([]string{"PERIOD", "ROWS", "WAGE", "SMALL DEP", "LARGE DEP"}, rows))

	fmt.Println()
	accent.Println("Markets")
	markets := append([]rules.MarketSpec(nil), sheet.Markets...)
	sort.SliceStable(markets, func(i, j int) bool { return markets[i].SellPrice > markets[j].SellPrice })
	rows = rows[:0]
	for _, m := range markets {
		bidding := "no"
		if m.Bidding {
			bidding = "yes"
		}
		rows = append(rows, []string{m.Name, strconv.Itoa(m.BuyPrice), strconv.Itoa(m.SellPrice), strconv.Itoa(m.MaxStock), bidding})
	}
	fmt.Println(renderTable([]string{"MARKET", "BUY", "SELL", "MAX STOCK", "BIDDING"}, rows, 0, 4))

	fmt.Println()
	accent.Println("Dice")
	rows = rows[:0]
	for _, d := range sheet.Dice {
		closed := strings.Join(d.ClosedMarkets, ", ")
		if closed == "" {
			closed = "-"
		}
		ceiling := "-"
		if d.CeilingMarket != "" {
			ceiling = fmt.Sprintf("%s <= %d", d.CeilingMarket, d.PriceCeiling)
		}
		rows = append(rows, []string{strconv.Itoa(d.Value), closed, fmt.Sprintf("%d%%", d.WagePct), ceiling, strconv.Itoa(d.RowReduction)})
	}
	fmt.Println(renderTable([]string{"DICE", "CLOSED", "WAGE", "CEILING", "ROWS -"}, rows, 1, 3))

	fmt.Println()
	accent.Println("Risk cards")
	rows = rows[:0]
	for _, r := range sheet.Risk {
		cat := string(r.Category)
		if cat == "" {
			cat = "none"
		}
		rows = append(rows, []string{fmt.Sprintf("%d-%d", r.From, r.To), cat})
	}
	fmt.Println(renderTable([]string{"CARDS", "EFFECT"}, rows, 1))
}

func signed(v int) string {
	text := strconv.Itoa(v)
	if v > 0 {
		text = "+" + text
	}
	switch {
	case v > 0:
		return success.Sprint(text)
	case v < 0:
		return danger.Sprint(text)
	default:
		return neutral.Sprint(text)
	}
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
