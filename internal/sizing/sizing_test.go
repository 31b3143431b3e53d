package sizing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockfinder/internal/broker"
	"stockfinder/internal/sell"
)

func cash(v int64) broker.Balance {
	return broker.Balance{BuyableCash: decimal.NewFromInt(v), AvailableCash: decimal.NewFromInt(v), TotalBalance: decimal.NewFromInt(v)}
}

func TestEqualSplitAtMinimumPasses(t *testing.T) {
	s := New(Params{ReserveRatio: 0.1, MinInvestment: 300, Distribution: DistributionEqual})
	allocs := s.Allocate([]string{"A", "B", "C"}, cash(1000))
	require.Len(t, allocs, 3)
	for _, a := range allocs {
		assert.True(t, a.Amount.Equal(decimal.NewFromInt(300)), "got %s", a.Amount)
	}
	assert.Equal(t, "B", allocs[1].Symbol)
}

func TestEqualSplitBelowMinimumDropsAll(t *testing.T) {
	s := New(Params{ReserveRatio: 0.1, MinInvestment: 300, Distribution: DistributionEqual})
	assert.Empty(t, s.Allocate([]string{"A", "B", "C", "D"}, cash(1000)))
}

func TestMaxInvestmentCapsAllocation(t *testing.T) {
	s := New(Params{MinInvestment: 100, MaxInvestment: 250, Distribution: DistributionEqual})
	allocs := s.Allocate([]string{"A", "B"}, cash(1000))
	require.Len(t, allocs, 2)
	assert.True(t, allocs[0].Amount.Equal(decimal.NewFromInt(250)))

	capped := New(Params{MinInvestment: 300, MaxInvestment: 250, Distribution: DistributionEqual})
	assert.Empty(t, capped.Allocate([]string{"A"}, cash(1000)))
}

func TestProportionalIgnoresBuySetSize(t *testing.T) {
	s := New(Params{MinInvestment: 100, Distribution: DistributionProportional, ProportionalPct: 0.2})
	bal := broker.Balance{BuyableCash: decimal.NewFromInt(500), TotalBalance: decimal.NewFromInt(2000)}

	allocs := s.Allocate([]string{"A", "B", "C", "D", "E"}, bal)
	require.Len(t, allocs, 5)
	for _, a := range allocs {
		assert.True(t, a.Amount.Equal(decimal.NewFromInt(400)))
	}
}

func TestProportionalWithoutPercentageFallsBackToEqual(t *testing.T) {
	s := New(Params{MinInvestment: 1, Distribution: DistributionProportional})
	allocs := s.Allocate([]string{"A", "B"}, cash(1000))
	require.Len(t, allocs, 2)
	assert.True(t, allocs[0].Amount.Equal(decimal.NewFromInt(500)))
}

func TestTargetAndDelta(t *testing.T) {
	assert.Equal(t, int64(20), TargetShares(decimal.NewFromInt(3000), 150))
	assert.Equal(t, int64(6), TargetShares(decimal.NewFromInt(1000), 150))
	assert.Equal(t, int64(0), TargetShares(decimal.NewFromInt(1000), 0))

	assert.Equal(t, int64(10), SharesToBuy(20, 10))
	assert.Equal(t, int64(0), SharesToBuy(20, 20))
	assert.Equal(t, int64(0), SharesToBuy(20, 25))
	assert.Equal(t, int64(20), SharesToBuy(20, 0))
	assert.Equal(t, int64(9), SharesToBuy(20, 10.5))
}

func TestPlanBuysTopsUpHeldPositions(t *testing.T) {
	s := New(Params{MinInvestment: 100, Distribution: DistributionEqual})
	holdings := map[string]broker.Holding{
		"AAPL": {Symbol: "AAPL", Quantity: 10},
		"FULL": {Symbol: "FULL", Quantity: 20},
	}
	prices := map[string]float64{"AAPL": 150, "FULL": 150, "NEW": 100}

	plans := s.PlanBuys([]string{"AAPL", "FULL", "NEW", "NOPRICE"}, cash(12000), holdings, prices)
	require.Len(t, plans, 2)

	assert.Equal(t, "AAPL", plans[0].Symbol)
	assert.Equal(t, int64(20), plans[0].TargetShares)
	assert.Equal(t, int64(10), plans[0].SharesToBuy)
	assert.Equal(t, 20.0, plans[0].TotalShares())

	assert.Equal(t, "NEW", plans[1].Symbol)
	assert.Equal(t, int64(30), plans[1].SharesToBuy)
	assert.True(t, plans[1].InvestmentAmount.Equal(decimal.NewFromInt(3000)))
}

func TestPlanSells(t *testing.T) {
	decisions := []sell.Decision{
		{Symbol: "A", Reason: sell.StopLoss, Quantity: 7.6, Price: 81,
			Holding: broker.Holding{Symbol: "A", Quantity: 7.6, ProfitLoss: -144.4, ProfitLossRate: -0.19}},
		{Symbol: "B", Reason: sell.None, Holding: broker.Holding{Symbol: "B", Quantity: 3}},
		{Symbol: "C", Reason: sell.Trend, Quantity: 0.4, Price: 10, Holding: broker.Holding{Symbol: "C", Quantity: 0.4}},
	}
	plans := PlanSells(decisions)
	require.Len(t, plans, 1)
	assert.Equal(t, int64(7), plans[0].Shares)
	assert.True(t, plans[0].Amount.Equal(decimal.NewFromInt(567)))
	assert.Equal(t, -144.4, plans[0].ProfitLoss)
	assert.Equal(t, sell.StopLoss, plans[0].Reason)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, DefaultParams().Validate())
	assert.Error(t, Params{Distribution: "random"}.Validate())
	assert.Error(t, Params{Distribution: DistributionEqual, ReserveRatio: 1}.Validate())
	assert.Error(t, Params{Distribution: DistributionEqual, MinInvestment: 500, MaxInvestment: 100}.Validate())
	assert.Error(t, Params{Distribution: DistributionEqual, MinInvestment: -1}.Validate())
}
