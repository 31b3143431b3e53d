// Package sizing turns the buy set and sell decisions into share counts and
// cash amounts.
package sizing

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/shopspring/decimal"

	"stockfinder/internal/broker"
	"stockfinder/internal/sell"
)

const (
	DistributionEqual        = "equal"
	DistributionProportional = "proportional"
)

type Params struct {
	ReserveRatio    float64 `yaml:"reserve_ratio"`
	MinInvestment   float64 `yaml:"min_investment"`
	MaxInvestment   float64 `yaml:"max_investment"`
	Distribution    string  `yaml:"distribution_strategy"`
	ProportionalPct float64 `yaml:"proportional_percentage"`
}

func DefaultParams() Params {
	return Params{
		ReserveRatio:  0.1,
		MinInvestment: 100,
		Distribution:  DistributionEqual,
	}
}

func (p Params) Validate() error {
	switch p.Distribution {
	case DistributionEqual, DistributionProportional:
	default:
		return fmt.Errorf("unknown distribution strategy: %s", p.Distribution)
	}
	if p.ReserveRatio < 0 || p.ReserveRatio >= 1 {
		return fmt.Errorf("reserve ratio must be in [0,1): %v", p.ReserveRatio)
	}
	if p.MinInvestment < 0 || p.MaxInvestment < 0 {
		return fmt.Errorf("investment limits must be non-negative")
	}
	if p.MaxInvestment > 0 && p.MaxInvestment < p.MinInvestment {
		return fmt.Errorf("max investment %v below min investment %v", p.MaxInvestment, p.MinInvestment)
	}
	return nil
}

type Allocation struct {
	Symbol string
	Amount decimal.Decimal
}

type BuyPlan struct {
	Symbol           string
	InvestmentAmount decimal.Decimal
	CurrentPrice     float64
	TargetShares     int64
	CurrentShares    float64
	SharesToBuy      int64
}

// TotalShares is the holding after the buy fills.
func (b BuyPlan) TotalShares() float64 {
	return b.CurrentShares + float64(b.SharesToBuy)
}

type SellPlan struct {
	Symbol         string
	Reason         sell.Reason
	Shares         int64
	Price          float64
	Amount         decimal.Decimal
	ProfitLoss     float64
	ProfitLossRate float64
}

type Sizer struct {
	params Params
}

func New(params Params) Sizer {
	return Sizer{params: params}
}

// Investable is buyable cash less the reserve.
func (s Sizer) Investable(bal broker.Balance) decimal.Decimal {
	keep := decimal.NewFromInt(1).Sub(decimal.NewFromFloat(s.params.ReserveRatio))
	return bal.BuyableCash.Mul(keep)
}

// Allocate returns per-symbol budgets in input order. Symbols whose budget
// falls below the minimum ticket are dropped.
func (s Sizer) Allocate(symbols []string, bal broker.Balance) []Allocation {
	if len(symbols) == 0 {
		return nil
	}
	investable := s.Investable(bal)
	perStock := investable.Div(decimal.NewFromInt(int64(len(symbols))))
	if s.params.Distribution == DistributionProportional && s.params.ProportionalPct > 0 {
		perStock = bal.TotalBalance.Mul(decimal.NewFromFloat(s.params.ProportionalPct))
	}
	if s.params.MaxInvestment > 0 {
		perStock = decimal.Min(perStock, decimal.NewFromFloat(s.params.MaxInvestment))
	}
	if perStock.LessThan(decimal.NewFromFloat(s.params.MinInvestment)) {
		slog.Info("allocation below minimum investment", "per_stock", perStock.StringFixed(2), "min", s.params.MinInvestment, "dropped", len(symbols))
		return nil
	}

	total := perStock.Mul(decimal.NewFromInt(int64(len(symbols))))
	if total.GreaterThan(investable) {
		// Proportional sizing is not capped in aggregate.
		slog.Warn("allocation exceeds investable cash", "total", total.StringFixed(2), "investable", investable.StringFixed(2))
	}

	out := make([]Allocation, 0, len(symbols))
	for _, symbol := range symbols {
		out = append(out, Allocation{Symbol: symbol, Amount: perStock})
	}
	return out
}

func TargetShares(amount decimal.Decimal, price float64) int64 {
	if price <= 0 || !amount.IsPositive() {
		return 0
	}
	return amount.Div(decimal.NewFromFloat(price)).Floor().IntPart()
}

// SharesToBuy tops a holding up to target and never past it.
func SharesToBuy(target int64, held float64) int64 {
	if held <= 0 {
		return target
	}
	missing := math.Floor(float64(target) - held)
	if missing <= 0 {
		return 0
	}
	return int64(missing)
}

// PlanBuys sizes every allocation at the given prices. Symbols with no price
// or nothing to buy are left out.
func (s Sizer) PlanBuys(symbols []string, bal broker.Balance, holdings map[string]broker.Holding, prices map[string]float64) []BuyPlan {
	var plans []BuyPlan
	for _, alloc := range s.Allocate(symbols, bal) {
		price := prices[alloc.Symbol]
		if price <= 0 {
			slog.Warn("no price for buy candidate", "symbol", alloc.Symbol)
			continue
		}
		target := TargetShares(alloc.Amount, price)
		held := holdings[alloc.Symbol].Quantity
		toBuy := SharesToBuy(target, held)
		if toBuy <= 0 {
			slog.Debug("nothing to buy", "symbol", alloc.Symbol, "target", target, "held", held)
			continue
		}
		plans = append(plans, BuyPlan{
			Symbol:           alloc.Symbol,
			InvestmentAmount: alloc.Amount,
			CurrentPrice:     price,
			TargetShares:     target,
			CurrentShares:    held,
			SharesToBuy:      toBuy,
		})
	}
	slog.Info("buy plan sized", "candidates", len(symbols), "planned", len(plans))
	return plans
}

// PlanSells sells the whole share count of every exiting holding.
func PlanSells(decisions []sell.Decision) []SellPlan {
	var plans []SellPlan
	for _, d := range decisions {
		if !d.Sells() || d.Quantity <= 0 {
			continue
		}
		shares := int64(math.Floor(d.Holding.Quantity))
		if shares <= 0 {
			slog.Debug("fractional holding not sellable", "symbol", d.Symbol, "qty", d.Holding.Quantity)
			continue
		}
		plans = append(plans, SellPlan{
			Symbol:         d.Symbol,
			Reason:         d.Reason,
			Shares:         shares,
			Price:          d.Price,
			Amount:         decimal.NewFromInt(shares).Mul(decimal.NewFromFloat(d.Price)),
			ProfitLoss:     d.Holding.ProfitLoss,
			ProfitLossRate: d.Holding.ProfitLossRate,
		})
	}
	return plans
}
