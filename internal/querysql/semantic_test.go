package querysql

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/liftsql/internal/meta"
	"github.com/roach88/liftsql/internal/store"
	"github.com/roach88/liftsql/internal/testutil"
)

func openShop(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	require.NoError(t, s.Apply(ctx, testutil.ShopDDL))
	require.NoError(t, s.Apply(ctx, testutil.ShopRows))
	return s
}

// Each case pairs a definition with a reference query that keeps every
// condition in WHERE. Lifting must not change which rows come back.
func TestLiftPreservesRows(t *testing.T) {
	db := openShop(t)
	schema := testutil.Shop()
	ctx := context.Background()

	tests := []struct {
		name      string
		def       Definition
		args      map[string]any
		reference string
		want      []int64
	}{
		{
			name: "correlated join fully lifted",
			def: Definition{
				Entity: "Order",
				Joins:  []JoinDef{{Name: "c", Entity: "Customer"}},
				Where:  `self.CustomerId == c.Id && c.Name == "Acme"`,
			},
			reference: `SELECT o.Id FROM Orders o CROSS JOIN Customer c
				WHERE o.CustomerId = c.Id AND c.Name = 'Acme' ORDER BY o.Id`,
			want: []int64{1, 2},
		},
		{
			name: "uncorrelated join partially lifted",
			def: Definition{
				Entity: "Order",
				Joins:  []JoinDef{{Name: "c", Entity: "Customer"}},
				Where:  `self.Status == "Open" && c.Name == "Acme"`,
			},
			reference: `SELECT o.Id FROM Orders o CROSS JOIN Customer c
				WHERE o.Status = 'Open' AND c.Name = 'Acme' ORDER BY o.Id`,
			want: []int64{1, 3},
		},
		{
			name: "mixed disjunction kept in WHERE",
			def: Definition{
				Entity: "Order",
				Joins:  []JoinDef{{Name: "c", Entity: "Customer"}},
				Where:  `self.CustomerId == c.Id && (c.Name == "Globex" || self.Status == "Cancelled")`,
			},
			reference: `SELECT o.Id FROM Orders o CROSS JOIN Customer c
				WHERE o.CustomerId = c.Id AND (c.Name = 'Globex' OR o.Status = 'Cancelled') ORDER BY o.Id`,
			want: []int64{3, 4, 5},
		},
		{
			name: "multi-hop navigation",
			def: Definition{
				Entity: "Order",
				Where:  `self.Customer.Region.Name == "North"`,
			},
			reference: `SELECT o.Id FROM Orders o CROSS JOIN Customer c CROSS JOIN Region r
				WHERE o.CustomerId = c.Id AND c.RegionId = r.Id AND r.Name = 'North' ORDER BY o.Id`,
			want: []int64{1, 2},
		},
		{
			name: "navigation compared to null",
			def: Definition{
				Entity: "Order",
				Where:  `self.Customer.Region == null`,
			},
			reference: `SELECT o.Id FROM Orders o CROSS JOIN Customer c
				WHERE o.CustomerId = c.Id AND c.RegionId IS NULL ORDER BY o.Id`,
			want: []int64{4},
		},
		{
			name: "null comparisons",
			def: Definition{
				Entity: "Order",
				Where:  `self.ShippedAt == null && self.Referrer == null`,
			},
			reference: `SELECT o.Id FROM Orders o
				WHERE o.shipped_at IS NULL AND o.ReferrerId IS NULL ORDER BY o.Id`,
			want: []int64{1, 4},
		},
		{
			name: "second navigation to the same entity",
			def: Definition{
				Entity: "Order",
				Where:  `self.Referrer.Name == "Globex" || self.Customer.Name == "Initech"`,
			},
			reference: `SELECT o.Id FROM Orders o CROSS JOIN Customer c CROSS JOIN Customer r
				WHERE o.CustomerId = c.Id AND o.ReferrerId = r.Id
				AND (r.Name = 'Globex' OR c.Name = 'Initech') ORDER BY o.Id`,
			want: []int64{2},
		},
		{
			name: "bound parameter",
			def: Definition{
				Entity:     "Order",
				Parameters: []ParameterDef{{Name: "status", Type: "string"}},
				Where:      `self.Status == status`,
			},
			args:      map[string]any{"status": "Closed"},
			reference: `SELECT o.Id FROM Orders o WHERE o.Status = @status ORDER BY o.Id`,
			want:      []int64{2, 5},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.def.Name = tc.name
			compiled, err := Build(schema, meta.SQLite, tc.def, BuildOptions{})
			require.NoError(t, err)

			got, err := db.SelectInts(ctx, compiled.Statement, tc.args, "Id")
			require.NoError(t, err, compiled.Statement)

			reference, err := db.SelectInts(ctx, tc.reference, tc.args, "Id")
			require.NoError(t, err)

			assert.Equal(t, tc.want, reference, "reference query")
			assert.Equal(t, reference, got, compiled.Statement)
		})
	}
}

func TestReverseOrderingPagesBackward(t *testing.T) {
	db := openShop(t)
	ctx := context.Background()
	def := Definition{
		Name:    "by total",
		Entity:  "Order",
		Where:   `self.Total > 6`,
		OrderBy: []OrderDef{{Expr: `self.Total`, Descending: true}},
	}

	forward, err := Build(testutil.Shop(), meta.SQLite, def, BuildOptions{})
	require.NoError(t, err)
	backward, err := Build(testutil.Shop(), meta.SQLite, def, BuildOptions{Reverse: true})
	require.NoError(t, err)

	f, err := db.SelectInts(ctx, forward.Statement, nil, "Id")
	require.NoError(t, err)
	b, err := db.SelectInts(ctx, backward.Statement, nil, "Id")
	require.NoError(t, err)

	assert.Equal(t, []int64{2, 5, 3, 1}, f)
	assert.Equal(t, []int64{1, 3, 5, 2}, b)
}
