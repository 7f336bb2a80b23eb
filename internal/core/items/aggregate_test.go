package items

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/joseph-ayodele/invoice-matcher/internal/entity"
)

func quietAggregator() *Aggregator {
	return NewAggregator(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestAggregate_SumsAndFirstSeenOrder(t *testing.T) {
	raw := []entity.RawItem{
		{Description: "Culture Tomato", Quantity: "2", Price: "1,50"},
		{Description: "Onion", Quantity: 3, Price: 2.0},
		{Description: "tomato ", Quantity: 4.0, Price: "1.75"},
		{Description: "", Quantity: 100, Price: 100},
		{Description: "   ", Quantity: 100, Price: 100},
		{Description: "ONION", Quantity: "1", Price: nil},
	}
	got := quietAggregator().Aggregate(raw)
	if len(got) != 2 {
		t.Fatalf("got %d items, want 2: %+v", len(got), got)
	}

	tomato, onion := got[0], got[1]
	if tomato.Key != "tomato" || onion.Key != "onion" {
		t.Fatalf("order = [%s %s], want [tomato onion]", tomato.Key, onion.Key)
	}
	if tomato.Description != "Culture Tomato" {
		t.Errorf("description = %q, want first-seen", tomato.Description)
	}
	if !approx(tomato.Quantity, 6) {
		t.Errorf("tomato qty = %v, want 6", tomato.Quantity)
	}
	if !approx(tomato.UnitPrice, 1.75) {
		t.Errorf("tomato price = %v, want last positive 1.75", tomato.UnitPrice)
	}
	if !approx(tomato.LineTotal, 2*1.5+4*1.75) {
		t.Errorf("tomato line total = %v, want per-occurrence sum 10", tomato.LineTotal)
	}
	if !approx(onion.Quantity, 4) {
		t.Errorf("onion qty = %v, want 4", onion.Quantity)
	}
	if !approx(onion.UnitPrice, 2) {
		t.Errorf("onion price = %v, zero must not overwrite", onion.UnitPrice)
	}
	if !approx(onion.LineTotal, 6) {
		t.Errorf("onion line total = %v, want 6", onion.LineTotal)
	}
}

func TestAggregate_UnparsableStillParticipates(t *testing.T) {
	got := quietAggregator().Aggregate([]entity.RawItem{
		{Description: "Mystery", Quantity: "lots", Price: "n/a"},
	})
	if len(got) != 1 {
		t.Fatalf("got %d items", len(got))
	}
	if got[0].Quantity != 0 || got[0].UnitPrice != 0 || got[0].LineTotal != 0 {
		t.Fatalf("unexpected values %+v", got[0])
	}
}

func TestAggregate_NegativeQuantityClamped(t *testing.T) {
	got := quietAggregator().Aggregate([]entity.RawItem{
		{Description: "Box", Quantity: 5, Price: 2},
		{Description: "box", Quantity: "-3", Price: 2},
	})
	if got[0].Quantity != 5 {
		t.Fatalf("qty = %v, want 5", got[0].Quantity)
	}
	if got[0].LineTotal != 10 {
		t.Fatalf("line total = %v, want 10", got[0].LineTotal)
	}
}

func TestAggregate_OverflowKeepsLastFiniteSum(t *testing.T) {
	got := quietAggregator().Aggregate([]entity.RawItem{
		{Description: "Pipe", Quantity: 1, Price: "1e308"},
		{Description: "pipe", Quantity: 1, Price: "1e308"},
		{Description: "Rod", Quantity: "1e308", Price: 1},
		{Description: "rod", Quantity: "1e308", Price: 1},
	})
	if len(got) != 2 {
		t.Fatalf("got %d items", len(got))
	}
	for _, it := range got {
		if math.IsInf(it.LineTotal, 0) || math.IsInf(it.Quantity, 0) {
			t.Fatalf("%s not finite: qty=%v line=%v", it.Key, it.Quantity, it.LineTotal)
		}
	}
	if got[0].LineTotal != 1e308 || got[0].Quantity != 2 {
		t.Fatalf("pipe = %+v", got[0])
	}
	if got[1].Quantity != 1e308 {
		t.Fatalf("rod qty = %v", got[1].Quantity)
	}
}

func TestAggregate_Empty(t *testing.T) {
	if got := Aggregate(nil); len(got) != 0 {
		t.Fatalf("got %v", got)
	}
}

func TestBuildRecord(t *testing.T) {
	a := quietAggregator()
	inv := a.BuildRecord(entity.KindInvoice, entity.RawDocument{
		InvoiceNo: " INV-7 ",
		PONo:      "PO-1",
		Date:      "2024-03-01",
		Vendor:    " Acme ",
		Items:     []entity.RawItem{{Description: "Nut", Quantity: 1, Price: 2}},
		Total:     "2,00",
	})
	if inv.DocNumber != "INV-7" || inv.PONumber != "PO-1" || inv.Vendor != "Acme" {
		t.Fatalf("unexpected header %+v", inv)
	}
	if inv.Total != 2 || len(inv.Items) != 1 {
		t.Fatalf("unexpected body %+v", inv)
	}

	po := a.BuildRecord(entity.KindPurchaseOrder, entity.RawDocument{PONo: "PO-1", Total: nil})
	if po.DocNumber != "PO-1" || po.Total != 0 || len(po.Items) != 0 {
		t.Fatalf("unexpected po %+v", po)
	}
}
