package order

import (
	"sort"

	"github.com/shopspring/decimal"
)

// ProductStat is one row of the product leaderboard
type ProductStat struct {
	Title    string
	Quantity int
	Revenue  decimal.Decimal
}

// Stats summarises the order book.
// Counts and money cover completed orders only; Products covers every order regardless of status.
type Stats struct {
	TotalOrders      int64
	CompletedOrders  int64
	CompletedRevenue decimal.Decimal
	AverageCheck     decimal.Decimal
	Products         []ProductStat
}

// TopProducts returns at most n leaderboard rows
func (s *Stats) TopProducts(n int) []ProductStat {
	if n < 0 || n >= len(s.Products) {
		return s.Products
	}
	return s.Products[:n]
}

// RankProducts aggregates item lists by product title, ordered by units sold,
// then revenue, then title.
func RankProducts(itemLists [][]Item) []ProductStat {
	byTitle := make(map[string]*ProductStat)
	order := make([]string, 0)
	for _, items := range itemLists {
		for _, item := range items {
			ps, ok := byTitle[item.Title]
			if !ok {
				ps = &ProductStat{Title: item.Title, Revenue: decimal.Zero}
				byTitle[item.Title] = ps
				order = append(order, item.Title)
			}
			ps.Quantity += item.Quantity
			ps.Revenue = ps.Revenue.Add(item.Amount())
		}
	}

	result := make([]ProductStat, 0, len(order))
	for _, title := range order {
		result = append(result, *byTitle[title])
	}
	sort.SliceStable(result, func(i, j int) bool {
		if result[i].Quantity != result[j].Quantity {
			return result[i].Quantity > result[j].Quantity
		}
		if !result[i].Revenue.Equal(result[j].Revenue) {
			return result[i].Revenue.GreaterThan(result[j].Revenue)
		}
		return result[i].Title < result[j].Title
	})
	return result
}
