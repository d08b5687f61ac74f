package cart

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

func testProduct(id string, price int64, stock *int) domain.Product {
	return domain.Product{
		ID:    id,
		Name:  "تكييف " + id,
		Brand: "Carrier",
		Price: decimal.NewFromInt(price),
		Stock: stock,
	}
}

func TestAdd_UnlimitedStockAlwaysAdds(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	product := testProduct("p1", 100, nil)
	c := Clear()

	expected := 0
	for i := 0; i < 200; i++ {
		qty := rng.Intn(50) + 2
		next, outcome, err := Add(c, product, qty)
		if err != nil || outcome != domain.AddOutcomeAdded {
			t.Fatalf("iteration %d: expected added, got %s (%v)", i, outcome, err)
		}
		expected += qty
		c = next
	}

	if got := c.TotalItems(); got != expected {
		t.Fatalf("expected total %d, got %d", expected, got)
	}
}

func TestAdd_FiniteStockNeverExceeded(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for stock := 1; stock <= 10; stock++ {
		product := testProduct("p1", 100, domain.StockOf(stock))
		c := Clear()

		for i := 0; i < 50; i++ {
			qty := rng.Intn(4) + 1
			before := c.TotalItems()
			next, outcome, err := Add(c, product, qty)

			if outcome == domain.AddOutcomeRejected {
				if !domain.IsStockRejection(err) {
					t.Fatalf("stock=%d: unexpected rejection reason %v", stock, err)
				}
				if next.TotalItems() != before {
					t.Fatalf("stock=%d: rejected add mutated state", stock)
				}
			}
			if next.TotalItems() > stock {
				t.Fatalf("stock=%d: quantity %d exceeds stock", stock, next.TotalItems())
			}
			c = next
		}
	}
}

func TestAdd_ExistingDefaultQuantityReturnsExists(t *testing.T) {
	product := testProduct("p1", 100, nil)
	c, _, err := Add(Clear(), product, 2)
	if err != nil {
		t.Fatalf("seed add failed: %v", err)
	}

	next, outcome, err := Add(c, product, DefaultQuantity)
	if outcome != domain.AddOutcomeExists {
		t.Fatalf("expected exists, got %s", outcome)
	}
	if !errors.Is(err, domain.ErrAlreadyInCart) {
		t.Fatalf("expected ErrAlreadyInCart, got %v", err)
	}
	if line, _ := next.Line("p1"); line.Quantity != 2 {
		t.Fatalf("expected quantity to stay 2, got %d", line.Quantity)
	}
}

func TestAdd_ExistingExplicitQuantityIncrements(t *testing.T) {
	product := testProduct("p1", 100, nil)
	c, _, _ := Add(Clear(), product, 1)

	next, outcome, err := Add(c, product, 3)
	if err != nil || outcome != domain.AddOutcomeAdded {
		t.Fatalf("expected added, got %s (%v)", outcome, err)
	}
	if len(next.Lines) != 1 {
		t.Fatalf("expected single line, got %d", len(next.Lines))
	}
	if next.Lines[0].Quantity != 4 {
		t.Fatalf("expected quantity 4, got %d", next.Lines[0].Quantity)
	}
}

func TestAdd_OutOfStockCheckedBeforeExists(t *testing.T) {
	inCart := testProduct("p1", 100, domain.StockOf(2))
	c, _, _ := Add(Clear(), inCart, 2)

	soldOut := testProduct("p1", 100, domain.StockOf(0))
	_, outcome, err := Add(c, soldOut, 1)
	if outcome != domain.AddOutcomeRejected || !errors.Is(err, domain.ErrOutOfStock) {
		t.Fatalf("expected rejected out of stock, got %s (%v)", outcome, err)
	}
}

func TestAdd_StockLimitReportsHeadroom(t *testing.T) {
	product := testProduct("p1", 100, domain.StockOf(5))
	c, _, _ := Add(Clear(), product, 3)

	_, outcome, err := Add(c, product, 4)
	if outcome != domain.AddOutcomeRejected {
		t.Fatalf("expected rejected, got %s", outcome)
	}
	var limit *domain.StockLimitError
	if !errors.As(err, &limit) {
		t.Fatalf("expected StockLimitError, got %v", err)
	}
	if limit.Available() != 2 {
		t.Fatalf("expected headroom 2, got %d", limit.Available())
	}
	if !errors.Is(err, domain.ErrStockLimitExceeded) {
		t.Fatalf("expected ErrStockLimitExceeded, got %v", err)
	}

	full, _, _ := Add(c, product, 2)
	_, _, err = Add(full, product, 2)
	if !errors.Is(err, domain.ErrStockLimitReached) {
		t.Fatalf("expected ErrStockLimitReached when nothing left, got %v", err)
	}
}

func TestAdd_InvalidQuantityRejected(t *testing.T) {
	product := testProduct("p1", 100, nil)
	for _, qty := range []int{0, -3} {
		next, outcome, err := Add(Clear(), product, qty)
		if outcome != domain.AddOutcomeRejected || !errors.Is(err, domain.ErrQuantityInvalid) {
			t.Fatalf("qty=%d: expected invalid quantity rejection, got %s (%v)", qty, outcome, err)
		}
		if len(next.Lines) != 0 {
			t.Fatalf("qty=%d: expected empty cart", qty)
		}
	}
}

func TestAdd_HugeQuantityWithFiniteStock(t *testing.T) {
	product := testProduct("p1", 100, domain.StockOf(5))
	c, _, _ := Add(Clear(), product, 3)

	next, outcome, err := Add(c, product, math.MaxInt)
	if outcome != domain.AddOutcomeRejected {
		t.Fatalf("expected rejected, got %s", outcome)
	}
	var limit *domain.StockLimitError
	if !errors.As(err, &limit) {
		t.Fatalf("expected StockLimitError, got %v", err)
	}
	if limit.Available() != 2 {
		t.Fatalf("expected headroom 2, got %d", limit.Available())
	}
	if got := next.Lines[0].Quantity; got != 3 {
		t.Fatalf("quantity must stay 3, got %d", got)
	}
	if next.TotalItems() != 3 {
		t.Fatalf("expected total 3, got %d", next.TotalItems())
	}
}

func TestAdd_HugeQuantityWithUnlimitedStock(t *testing.T) {
	product := testProduct("p1", 100, nil)

	c, outcome, err := Add(Clear(), product, math.MaxInt)
	if err != nil || outcome != domain.AddOutcomeAdded {
		t.Fatalf("first add must succeed, got %s (%v)", outcome, err)
	}

	next, outcome, err := Add(c, product, 2)
	if outcome != domain.AddOutcomeRejected || !errors.Is(err, domain.ErrQuantityInvalid) {
		t.Fatalf("expected invalid quantity rejection, got %s (%v)", outcome, err)
	}
	if got := next.Lines[0].Quantity; got != math.MaxInt {
		t.Fatalf("quantity must not wrap, got %d", got)
	}
}

func TestAdd_DoesNotMutateInput(t *testing.T) {
	product := testProduct("p1", 100, nil)
	c, _, _ := Add(Clear(), product, 2)

	_, _, _ = Add(c, product, 5)
	if c.Lines[0].Quantity != 2 {
		t.Fatalf("input cart was mutated: %d", c.Lines[0].Quantity)
	}
}

func TestSetQuantity_ZeroEqualsRemove(t *testing.T) {
	c, _, _ := Add(Clear(), testProduct("p1", 100, nil), 2)
	c, _, _ = Add(c, testProduct("p2", 50, nil), 1)

	viaUpdate, err := SetQuantity(c, "p1", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	viaRemove := Remove(c, "p1")

	if viaUpdate.Find("p1") >= 0 {
		t.Fatal("expected p1 to be removed")
	}
	if len(viaUpdate.Lines) != len(viaRemove.Lines) || viaUpdate.Lines[0].Product.ID != viaRemove.Lines[0].Product.ID {
		t.Fatalf("update(0) and remove differ: %+v vs %+v", viaUpdate.Lines, viaRemove.Lines)
	}
}

func TestSetQuantity_UnknownProductIsNoop(t *testing.T) {
	c, _, _ := Add(Clear(), testProduct("p1", 100, nil), 2)

	next, err := SetQuantity(c, "missing", 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.TotalItems() != 2 || len(next.Lines) != 1 {
		t.Fatalf("expected unchanged cart, got %+v", next.Lines)
	}
}

func TestSetQuantity_AboveStockRejected(t *testing.T) {
	c, _, _ := Add(Clear(), testProduct("p1", 100, domain.StockOf(5)), 3)

	next, err := SetQuantity(c, "p1", 6)
	if !errors.Is(err, domain.ErrStockLimitExceeded) {
		t.Fatalf("expected ErrStockLimitExceeded, got %v", err)
	}
	if line, _ := next.Line("p1"); line.Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", line.Quantity)
	}
}

func TestRemove_AbsentIsNoop(t *testing.T) {
	c, _, _ := Add(Clear(), testProduct("p1", 100, nil), 1)
	next := Remove(c, "p2")
	if len(next.Lines) != 1 {
		t.Fatalf("expected one line, got %d", len(next.Lines))
	}
}

func TestTotals_RecomputedAfterRandomSequence(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	products := []domain.Product{
		testProduct("p1", 19999, domain.StockOf(10)),
		testProduct("p2", 25000, nil),
		testProduct("p3", 31500, domain.StockOf(3)),
	}
	c := Clear()

	for i := 0; i < 300; i++ {
		p := products[rng.Intn(len(products))]
		switch rng.Intn(4) {
		case 0:
			c, _, _ = Add(c, p, rng.Intn(3)+1)
		case 1:
			c, _ = SetQuantity(c, p.ID, rng.Intn(6)-1)
		case 2:
			c = Remove(c, p.ID)
		case 3:
			if rng.Intn(10) == 0 {
				c = Clear()
			}
		}

		items := 0
		price := decimal.Zero
		for _, line := range c.Lines {
			if line.Quantity < 1 {
				t.Fatalf("step %d: line %s has quantity %d", i, line.Product.ID, line.Quantity)
			}
			items += line.Quantity
			price = price.Add(line.Product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}
		if c.TotalItems() != items {
			t.Fatalf("step %d: total items %d, want %d", i, c.TotalItems(), items)
		}
		if !c.TotalPrice().Equal(price) {
			t.Fatalf("step %d: total price %s, want %s", i, c.TotalPrice(), price)
		}
		if errs := c.ValidateInvariants(); len(errs) > 0 {
			t.Fatalf("step %d: invariants broken: %v", i, errs)
		}
	}
}

func TestScenario_StockFive(t *testing.T) {
	product := testProduct("p1", 100, domain.StockOf(5))

	c, outcome, err := Add(Clear(), product, 3)
	if outcome != domain.AddOutcomeAdded || err != nil {
		t.Fatalf("step 1: expected added, got %s (%v)", outcome, err)
	}

	c, outcome, _ = Add(c, product, DefaultQuantity)
	if outcome != domain.AddOutcomeExists {
		t.Fatalf("step 2: expected exists, got %s", outcome)
	}
	if line, _ := c.Line("p1"); line.Quantity != 3 {
		t.Fatalf("step 2: expected quantity 3, got %d", line.Quantity)
	}

	c, err = SetQuantity(c, "p1", 5)
	if err != nil {
		t.Fatalf("step 3: unexpected error: %v", err)
	}

	c, err = SetQuantity(c, "p1", 6)
	if err == nil {
		t.Fatal("step 4: expected rejection")
	}
	if line, _ := c.Line("p1"); line.Quantity != 5 {
		t.Fatalf("step 4: expected quantity 5, got %d", line.Quantity)
	}
}

func TestScenario_StockZero(t *testing.T) {
	c, outcome, err := Add(Clear(), testProduct("p1", 100, domain.StockOf(0)), 1)
	if outcome != domain.AddOutcomeRejected || !errors.Is(err, domain.ErrOutOfStock) {
		t.Fatalf("expected rejected out of stock, got %s (%v)", outcome, err)
	}
	if len(c.Lines) != 0 {
		t.Fatalf("expected empty cart, got %d lines", len(c.Lines))
	}
}
