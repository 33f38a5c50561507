// Package dispatch selects which discretionary loads run each hour. The
// problem is a 0/1 knapsack: every candidate load has a discretized power
// weight and a scarcity-derived utility, and the solver maximizes utility
// under the offered power budget.
package dispatch

import "math"

// Load is one discretionary candidate.
type Load struct {
	Index   int     // caller's building index, reported back on selection
	DrawKW  float64 // power draw; non-positive loads are not selectable
	Utility float64 // scarcity-weighted value of running this hour
}

// Options tunes the solver.
type Options struct {
	GranularityKW     float64 // weight discretization step, e.g. 0.1 kW
	EfficiencyPenalty float64 // utility /= 1 + penalty*drawKW
}

// ScarcityWeight maps a resource's hours of remaining supply to a dispatch
// priority: roughly 73 near empty, ~2 at 35 h, ~1 beyond the horizon.
func ScarcityWeight(hoursRemaining, horizon float64) float64 {
	return 1 + horizon/(hoursRemaining+1)
}

// Choose returns the indices of the loads to run, maximizing total utility
// without exceeding budgetKW. Ties resolve by declaration order because the
// DP fill order is fixed; two calls with the same inputs always return the
// same selection.
func Choose(budgetKW float64, loads []Load, opts Options) []int {
	scale := 1.0 / opts.GranularityKW
	capacity := int(math.Max(0, budgetKW)*scale + 0.5)
	if capacity <= 0 {
		return nil
	}

	type item struct {
		index  int
		weight int
		value  float64
	}
	items := make([]item, 0, len(loads))
	for _, l := range loads {
		if l.DrawKW <= 0 {
			continue // malformed spec, not selectable
		}
		util := l.Utility / (1 + opts.EfficiencyPenalty*l.DrawKW)
		if util <= 0 {
			continue
		}
		weight := int(l.DrawKW*scale + 0.5)
		if weight <= 0 {
			continue
		}
		items = append(items, item{index: l.Index, weight: weight, value: util})
	}
	if len(items) == 0 {
		return nil
	}

	n := len(items)
	dp := make([][]float64, n+1)
	take := make([][]bool, n+1)
	for i := 0; i <= n; i++ {
		dp[i] = make([]float64, capacity+1)
		take[i] = make([]bool, capacity+1)
	}

	for i := 1; i <= n; i++ {
		w, v := items[i-1].weight, items[i-1].value
		for c := 0; c <= capacity; c++ {
			dp[i][c] = dp[i-1][c]
			if w <= c {
				if cand := dp[i-1][c-w] + v; cand > dp[i][c] {
					dp[i][c] = cand
					take[i][c] = true
				}
			}
		}
	}

	// Backtrack for the chosen set, restoring declaration order.
	var chosen []int
	for i, c := n, capacity; i >= 1; i-- {
		if take[i][c] {
			chosen = append(chosen, items[i-1].index)
			c -= items[i-1].weight
		}
	}
	for l, r := 0, len(chosen)-1; l < r; l, r = l+1, r-1 {
		chosen[l], chosen[r] = chosen[r], chosen[l]
	}
	return chosen
}
