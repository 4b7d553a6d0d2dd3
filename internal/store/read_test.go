package store

import (
	"context"
	"math"
	"reflect"
	"testing"

	"github.com/roach88/liftsql/internal/ir"
)

func TestSelect_NamedArguments(t *testing.T) {
	s := createShopStore(t)
	ctx := context.Background()

	rows, err := s.Select(ctx,
		"SELECT self.Id, self.Status, self.Total, self.shipped_at FROM Orders AS self WHERE self.Status = @status AND self.Total > @min ORDER BY self.Id ASC",
		map[string]any{"status": "Closed", "min": 100})
	if err != nil {
		t.Fatalf("Select() failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	want := Row{
		"Id":         ir.IRInt(2),
		"Status":     ir.IRString("Closed"),
		"Total":      ir.IRFloat(250),
		"shipped_at": ir.IRString("2024-01-02"),
	}
	if !reflect.DeepEqual(rows[0], want) {
		t.Errorf("row 0 = %v, want %v", rows[0], want)
	}
}

func TestSelect_NullAndEmpty(t *testing.T) {
	s := createShopStore(t)
	ctx := context.Background()

	rows, err := s.Select(ctx, "SELECT shipped_at FROM Orders WHERE Id = 1", nil)
	if err != nil {
		t.Fatalf("Select() failed: %v", err)
	}
	if len(rows) != 1 || !ir.IsNull(rows[0]["shipped_at"]) {
		t.Errorf("expected one NULL shipped_at, got %v", rows)
	}

	rows, err = s.Select(ctx, "SELECT Id FROM Orders WHERE Id = 99", nil)
	if err != nil {
		t.Fatalf("Select() failed: %v", err)
	}
	if rows == nil || len(rows) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", rows)
	}
}

func TestSelect_RejectsInvalidArguments(t *testing.T) {
	s := createShopStore(t)

	_, err := s.Select(context.Background(), "SELECT Id FROM Orders WHERE Total > @min", map[string]any{"min": math.NaN()})
	if err == nil {
		t.Error("expected error for NaN argument")
	}
}

func TestSelectInts(t *testing.T) {
	s := createShopStore(t)
	ctx := context.Background()

	ids, err := s.SelectInts(ctx, "SELECT Id FROM Orders WHERE CustomerId = @c ORDER BY Id", map[string]any{"c": 2}, "Id")
	if err != nil {
		t.Fatalf("SelectInts() failed: %v", err)
	}
	if !reflect.DeepEqual(ids, []int64{3, 5}) {
		t.Errorf("ids = %v, want [3 5]", ids)
	}

	if _, err := s.SelectInts(ctx, "SELECT Status FROM Orders", nil, "Status"); err == nil {
		t.Error("expected error for non-integer column")
	}
}

func TestNamedArgs_Sorted(t *testing.T) {
	args, err := namedArgs(map[string]any{"b": 1, "a": "x", "c": nil})
	if err != nil {
		t.Fatalf("namedArgs() failed: %v", err)
	}
	if len(args) != 3 {
		t.Fatalf("got %d args", len(args))
	}
	names := []string{}
	for _, a := range args {
		names = append(names, reflect.ValueOf(a).FieldByName("Name").String())
	}
	if !reflect.DeepEqual(names, []string{"a", "b", "c"}) {
		t.Errorf("names = %v", names)
	}
}
