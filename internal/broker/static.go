package broker

import "context"

// StaticAccount serves fixed figures, for tests and dry runs against fixtures.
type StaticAccount struct {
	Bal         Balance
	Held        []Holding
	BalanceErr  error
	HoldingsErr error
}

func (s *StaticAccount) Balance(ctx context.Context) (Balance, error) {
	if s.BalanceErr != nil {
		return Balance{}, s.BalanceErr
	}
	return s.Bal, nil
}

func (s *StaticAccount) Holdings(ctx context.Context) ([]Holding, error) {
	if s.HoldingsErr != nil {
		return nil, s.HoldingsErr
	}
	out := make([]Holding, len(s.Held))
	copy(out, s.Held)
	return out, nil
}
