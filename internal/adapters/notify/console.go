package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alejandrodnm/polyquant/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.Notifier.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// Notify imprime las señales en el modo configurado.
func (c *Console) Notify(_ context.Context, signals []domain.Signal) error {
	if len(signals) == 0 {
		fmt.Fprintf(c.out, "[%s] no signals this cycle\n", time.Now().Format("15:04:05"))
		return nil
	}

	if c.table {
		c.printFull(signals)
	} else {
		c.printCompact(signals)
	}
	return nil
}

// printCompact imprime lo esencial en una línea.
func (c *Console) printCompact(signals []domain.Signal) {
	now := time.Now().Format("15:04:05")
	mm, sl, tr := countByStrategy(signals)

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %d signals → mm:%d sl:%d tail:%d", now, len(signals), mm, sl, tr)

	shown := 0
	for _, sig := range signals {
		if shown >= 4 {
			break
		}
		name := compactName(sig.Question, 25)
		fmt.Fprintf(&sb, " | %s %s +$%.2f c%.2f",
			strategyIcon(sig.Strategy), name, sig.ExpectedProfit, sig.Confidence)
		shown++
	}

	fmt.Fprintln(c.out, sb.String())
}

// printFull imprime la tabla completa con desglose de riesgo.
func (c *Console) printFull(signals []domain.Signal) {
	now := time.Now().Format("15:04:05")
	mm, sl, tr := countByStrategy(signals)

	fmt.Fprintf(c.out, "\n[%s] %d signals — mm:%d sl:%d tail:%d\n", now, len(signals), mm, sl, tr)

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Strat", "Type", "Market", "YES", "NO", "Size$", "E[P]$", "Conf", "Risk")

	for i, sig := range signals {
		table.Append(
			fmt.Sprintf("%d", i+1),
			shortStrategy(sig.Strategy),
			string(sig.Type),
			marketLabel(sig),
			fmt.Sprintf("%.3f", sig.YesPrice),
			fmt.Sprintf("%.3f", sig.NoPrice),
			fmt.Sprintf("%.0f", sig.TradeSize),
			fmt.Sprintf("%.4f", sig.ExpectedProfit),
			fmt.Sprintf("%.2f", sig.Confidence),
			riskLabel(sig),
		)
	}

	table.Render()

	fmt.Fprintln(c.out, "  E[P]$ = beneficio esperado | Conf = confianza [0,1]")
	fmt.Fprintln(c.out, "  Risk: skew/spread (mm), dispute/carry (sl), worst-case/cluster (tail)")

	c.printRiskDetail(signals)
}

// printRiskDetail imprime el desglose de las 3 mejores señales.
func (c *Console) printRiskDetail(signals []domain.Signal) {
	top := signals
	if len(top) > 3 {
		top = signals[:3]
	}

	fmt.Fprintln(c.out, "\n=== TOP SIGNALS — risk breakdown ===")
	for i, sig := range top {
		fmt.Fprintf(c.out, "\n--- #%d [%s] %s ---\n", i+1, sig.Strategy, marketLabel(sig))
		fmt.Fprintf(c.out, "  type=%s  size=$%.2f  E[P]=$%.4f  conf=%.2f\n",
			sig.Type, sig.TradeSize, sig.ExpectedProfit, sig.Confidence)
		fmt.Fprintf(c.out, "  reason: %s\n", sig.Reason)
		fmt.Fprintf(c.out, "  tags:   %s\n", strings.Join(sig.RiskTags, ", "))

		switch sig.Strategy {
		case "market_making":
			fmt.Fprintf(c.out, "  quote:  bid=%.4f ask=%.4f spread=%.1fbps skew=%+.2f\n",
				sig.Bid, sig.Ask, sig.SpreadBPS, sig.InventorySkew)
		case "settlement_lag":
			fmt.Fprintf(c.out, "  carry:  $%.4f  dispute=%.2f\n", sig.CarryCost, sig.DisputeScore)
		case "tail_risk":
			fmt.Fprintf(c.out, "  kelly=%.4f  worst_case=$%.2f  cluster=%s\n",
				sig.KellyFraction, sig.WorstCaseLoss, sig.Cluster)
			if sig.Hedge != nil {
				fmt.Fprintf(c.out, "  hedge:  %s $%.2f cost=$%.4f (-$%.2f worst case)\n",
					compactName(sig.Hedge.HedgeMarketID, 20), sig.Hedge.HedgeSizeUSDC,
					sig.Hedge.CostUSDC, sig.Hedge.RiskReduction)
			}
		}
	}
	fmt.Fprintln(c.out)
}

// --- helpers ---

func countByStrategy(signals []domain.Signal) (mm, sl, tr int) {
	for _, s := range signals {
		switch s.Strategy {
		case "market_making":
			mm++
		case "settlement_lag":
			sl++
		case "tail_risk":
			tr++
		}
	}
	return
}

func strategyIcon(strategy string) string {
	switch strategy {
	case "market_making":
		return "[MM]"
	case "settlement_lag":
		return "[SL]"
	case "tail_risk":
		return "[TR]"
	}
	return "[??]"
}

func shortStrategy(strategy string) string {
	switch strategy {
	case "market_making":
		return "mm"
	case "settlement_lag":
		return "sl"
	case "tail_risk":
		return "tail"
	}
	return strategy
}

func marketLabel(sig domain.Signal) string {
	if sig.Question != "" {
		return truncate(sig.Question, 38)
	}
	if len(sig.MarketID) > 14 {
		return sig.MarketID[:12] + "..."
	}
	return sig.MarketID
}

func riskLabel(sig domain.Signal) string {
	switch sig.Strategy {
	case "market_making":
		return fmt.Sprintf("sk%+.2f %0.fbps", sig.InventorySkew, sig.SpreadBPS)
	case "settlement_lag":
		return fmt.Sprintf("d%.2f c$%.2f", sig.DisputeScore, sig.CarryCost)
	case "tail_risk":
		return fmt.Sprintf("wc$%.0f %s", sig.WorstCaseLoss, compactName(sig.Cluster, 14))
	}
	return "-"
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func compactName(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := s[:maxLen]
	if idx := strings.LastIndex(cut, " "); idx > maxLen/2 {
		cut = cut[:idx]
	}
	return cut + "…"
}
