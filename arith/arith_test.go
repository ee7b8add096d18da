package arith_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/openrcv/tabulator/arith"
)

func TestDivide(t *testing.T) {
	for _, tt := range []struct {
		name   string
		scale  int
		x, y   string
		mode   arith.Rounding
		expect string
	}{
		{name: "exact integer division", scale: 0, x: "10", y: "2", mode: arith.RoundDown, expect: "5"},
		{name: "truncates down", scale: 0, x: "10", y: "3", mode: arith.RoundDown, expect: "3"},
		{name: "rounds up away from zero", scale: 0, x: "10", y: "3", mode: arith.RoundUp, expect: "4"},
		{name: "scaled truncation", scale: 4, x: "1", y: "3", mode: arith.RoundDown, expect: "0.3333"},
		{name: "scaled round up", scale: 4, x: "1", y: "3", mode: arith.RoundUp, expect: "0.3334"},
		{name: "division by zero yields zero", scale: 4, x: "5", y: "0", mode: arith.RoundDown, expect: "0"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			a := arith.New(tt.scale, true)
			x, _ := decimal.NewFromString(tt.x)
			y, _ := decimal.NewFromString(tt.y)
			got := a.Divide(x, y, tt.mode)
			want, _ := decimal.NewFromString(tt.expect)
			if !got.Equal(want) {
				t.Errorf("Divide(%s, %s) = %s, want %s", tt.x, tt.y, got, want)
			}
		})
	}
}

func TestAugend(t *testing.T) {
	a := arith.New(2, true)
	want, _ := decimal.NewFromString("0.01")
	if !a.Augend().Equal(want) {
		t.Errorf("Augend() = %s, want %s", a.Augend(), want)
	}

	off := arith.New(2, false)
	if !off.Augend().Equal(decimal.NewFromInt(1)) {
		t.Errorf("Augend() with non-integer thresholds disabled = %s, want 1", off.Augend())
	}
}

func TestCeilFloorAt(t *testing.T) {
	x, _ := decimal.NewFromString("1.201")
	if got := arith.CeilAt(x, 2); got.String() != "1.21" {
		t.Errorf("CeilAt = %s, want 1.21", got)
	}
	if got := arith.FloorAt(x, 2); got.String() != "1.20" {
		t.Errorf("FloorAt = %s, want 1.20", got)
	}
}
