package query

import (
	"testing"
	"time"

	"github.com/mmeshcher/proxypanel/internal/model"
	"github.com/mmeshcher/proxypanel/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(s string) *time.Time {
	t, err := time.Parse(model.TimeLayout, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func testOrders() []model.Order {
	return []model.Order{
		{ID: 1, Username: "Proxy_001", Email: "proxy001@example.com", OrderNo: "ORD20241220001", ProductType: model.ProductUnlimited, Status: model.OrderStatusPaid, PayTime: at("2024-12-20 14:30"), Source: model.OrderSourceWebsite},
		{ID: 2, Username: "Proxy_002", Email: "proxy002@example.com", OrderNo: "ORD20241220002", ProductType: model.ProductResidential, Status: model.OrderStatusUnpaid, Source: model.OrderSourceWebsite},
		{ID: 3, Username: "Proxy_003", Email: "proxy003@example.com", OrderNo: "ORD20241219001", ProductType: model.ProductResidential, Status: model.OrderStatusPaid, PayTime: at("2024-12-19 16:20"), Source: model.OrderSourceBackoffice},
		{ID: 4, Username: "Proxy_004", Email: "proxy004@example.com", OrderNo: "ORD20241218001", ProductType: model.ProductUnlimited, Status: model.OrderStatusPaid, PayTime: at("2024-12-18 09:15"), Source: model.OrderSourceWebsite},
	}
}

func ids(orders []model.Order) []int64 {
	out := make([]int64, 0, len(orders))
	for _, o := range orders {
		out = append(out, o.ID)
	}
	return out
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name     string
		criteria Criteria
		want     []int64
	}{
		{name: "status paid", criteria: Criteria{Equals: map[string]string{"status": "paid"}}, want: []int64{1, 3, 4}},
		{name: "type and status", criteria: Criteria{Equals: map[string]string{"type": "unlimited", "status": "paid"}}, want: []int64{1, 4}},
		{name: "keyword in order number", criteria: Criteria{Keyword: "20241219"}, want: []int64{3}},
		{name: "keyword case insensitive", criteria: Criteria{Keyword: "PROXY002@"}, want: []int64{2}},
		{name: "date range inclusive", criteria: Criteria{DateFrom: "2024-12-19", DateTo: "2024-12-20"}, want: []int64{1, 3}},
		{name: "date to covers whole day", criteria: Criteria{DateTo: "2024-12-18"}, want: []int64{4}},
		{name: "date with minutes", criteria: Criteria{DateFrom: "2024-12-19 16:20", DateTo: "2024-12-20 14:30"}, want: []int64{1, 3}},
		{name: "contains", criteria: Criteria{Contains: map[string]string{"email": "Proxy00"}}, want: []int64{1, 2, 3, 4}},
		{name: "empty equals value ignored", criteria: Criteria{Equals: map[string]string{"status": ""}}, want: []int64{1, 2, 3, 4}},
		{name: "no match", criteria: Criteria{Keyword: "nobody"}, want: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Filter(testOrders(), tt.criteria)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestFilterAbsentTimestampFailsBounds(t *testing.T) {
	got, err := Filter(testOrders(), Criteria{DateFrom: "2000-01-01"})
	require.NoError(t, err)
	assert.NotContains(t, ids(got), int64(2))

	got, err = Filter(testOrders(), Criteria{DateTo: "2999-01-01"})
	require.NoError(t, err)
	assert.NotContains(t, ids(got), int64(2))
}

func TestFilterIdentity(t *testing.T) {
	orders := testOrders()

	got, err := Filter(orders)
	require.NoError(t, err)
	assert.Equal(t, orders, got)

	got, err = Filter(orders, Criteria{}, Criteria{Keyword: "  "})
	require.NoError(t, err)
	assert.Equal(t, orders, got)

	empty, err := Filter([]model.Order{}, Criteria{Keyword: "x"})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestFilterComposition(t *testing.T) {
	pairs := []struct {
		k1, k2 Criteria
	}{
		{Criteria{Equals: map[string]string{"status": "paid"}}, Criteria{Keyword: "proxy00"}},
		{Criteria{DateFrom: "2024-12-19"}, Criteria{Equals: map[string]string{"type": "residential"}}},
		{Criteria{}, Criteria{Keyword: "ORD2024122"}},
		{Criteria{Keyword: "nobody"}, Criteria{}},
	}

	for _, p := range pairs {
		step, err := Filter(testOrders(), p.k1)
		require.NoError(t, err)
		sequential, err := Filter(step, p.k2)
		require.NoError(t, err)

		combined, err := Filter(testOrders(), p.k1, p.k2)
		require.NoError(t, err)

		assert.Equal(t, ids(sequential), ids(combined))
	}
}

func TestFilterErrors(t *testing.T) {
	tests := []struct {
		name      string
		criteria  Criteria
		wantField string
	}{
		{name: "bad from", criteria: Criteria{DateFrom: "20/12/2024"}, wantField: "dateFrom"},
		{name: "bad to", criteria: Criteria{DateTo: "tomorrow"}, wantField: "dateTo"},
		{name: "unknown equals field", criteria: Criteria{Equals: map[string]string{"colour": "red"}}, wantField: "colour"},
		{name: "unknown contains field", criteria: Criteria{Contains: map[string]string{"colour": "red"}}, wantField: "colour"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Filter(testOrders(), tt.criteria)
			verr, ok := validation.As(err)
			require.True(t, ok, "expected validation error, got %v", err)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestFilterUnknownFieldIndependentOfData(t *testing.T) {
	unknown := Criteria{Equals: map[string]string{"bogus": "x"}}

	tests := []struct {
		name     string
		items    []model.Order
		criteria []Criteria
	}{
		{name: "empty collection", items: []model.Order{}, criteria: []Criteria{unknown}},
		{name: "nil collection", items: nil, criteria: []Criteria{unknown}},
		{name: "earlier criteria excludes everything", items: testOrders(), criteria: []Criteria{
			{Equals: map[string]string{"status": "unpaid", "type": "unlimited"}},
			unknown,
		}},
		{name: "known and unknown in one criteria", items: testOrders(), criteria: []Criteria{
			{Equals: map[string]string{"status": "none", "bogus": "x"}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Filter(tt.items, tt.criteria...)
			verr, ok := validation.As(err)
			require.True(t, ok, "expected validation error, got %v", err)
			assert.Equal(t, "bogus", verr.Field)
			assert.Nil(t, got)
		})
	}
}

func TestFilterDailyStats(t *testing.T) {
	day := func(s string) model.DailyStat {
		d, err := time.Parse(model.DateLayout, s)
		require.NoError(t, err)
		return model.DailyStat{Date: d}
	}
	stats := []model.DailyStat{day("2024-12-20"), day("2024-12-19"), day("2024-12-18")}

	got, err := Filter(stats, Criteria{DateFrom: "2024-12-19", DateTo: "2024-12-19"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2024-12-19", got[0].Timestamp())
}
