package domain

import (
	"encoding/json"
	"time"
)

// Load is a saved freight job. Payload holds the client's fields; only the
// revenue, profit and margin figures take part in aggregation.
type Load struct {
	ID           string
	UserEmail    string
	UserName     string
	CreatedAt    time.Time
	Revenue      float64
	Profit       float64
	ProfitMargin float64
	Payload      map[string]any
}

// loadFields is the server-owned part of a load's JSON form.
type loadFields struct {
	ID           string    `json:"id"`
	UserEmail    string    `json:"userEmail"`
	UserName     string    `json:"userName"`
	CreatedAt    time.Time `json:"timestamp"`
	Revenue      float64   `json:"revenue"`
	Profit       float64   `json:"profit"`
	ProfitMargin float64   `json:"profitMargin"`
}

var loadKeys = []string{"id", "userEmail", "userName", "timestamp", "revenue", "profit", "profitMargin"}

// MarshalJSON merges the payload into the top level of the load. Server-owned
// fields win over payload keys of the same name.
func (l Load) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(l.Payload)+len(loadKeys))
	for k, v := range l.Payload {
		out[k] = v
	}
	out["id"] = l.ID
	out["userEmail"] = l.UserEmail
	out["userName"] = l.UserName
	out["timestamp"] = l.CreatedAt
	out["revenue"] = l.Revenue
	out["profit"] = l.Profit
	out["profitMargin"] = l.ProfitMargin
	return json.Marshal(out)
}

// UnmarshalJSON splits a flat load back into its fields and payload.
func (l *Load) UnmarshalJSON(data []byte) error {
	var f loadFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	var rest map[string]any
	if err := json.Unmarshal(data, &rest); err != nil {
		return err
	}
	for _, k := range loadKeys {
		delete(rest, k)
	}
	*l = Load{
		ID:           f.ID,
		UserEmail:    f.UserEmail,
		UserName:     f.UserName,
		CreatedAt:    f.CreatedAt,
		Revenue:      f.Revenue,
		Profit:       f.Profit,
		ProfitMargin: f.ProfitMargin,
	}
	if len(rest) > 0 {
		l.Payload = rest
	}
	return nil
}

// LoadStats are the per-user aggregates recomputed on every save.
type LoadStats struct {
	TotalLoads    int     `json:"totalLoads"`
	TotalRevenue  float64 `json:"totalRevenue"`
	TotalProfit   float64 `json:"totalProfit"`
	AverageMargin float64 `json:"averageMargin"`
}

// ComputeLoadStats folds over the full load list.
func ComputeLoadStats(loads []*Load) LoadStats {
	var s LoadStats
	var marginSum float64
	for _, l := range loads {
		s.TotalRevenue += l.Revenue
		s.TotalProfit += l.Profit
		marginSum += l.ProfitMargin
	}
	s.TotalLoads = len(loads)
	if s.TotalLoads > 0 {
		s.AverageMargin = marginSum / float64(s.TotalLoads)
	}
	return s
}
