package reconcile

import (
	"io"
	"log/slog"
	"math"
	"reflect"
	"testing"

	"github.com/joseph-ayodele/invoice-matcher/internal/entity"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func item(desc string, qty, price any) entity.RawItem {
	return entity.RawItem{Description: desc, Quantity: qty, Price: price}
}

func extraction(invItems, poItems []entity.RawItem, invTotal, poTotal any) entity.Extraction {
	return entity.Extraction{
		InvoiceData: entity.RawDocument{
			InvoiceNo: "INV-100",
			PONo:      "PO-55",
			Date:      "2024-05-01",
			Vendor:    "Acme Supplies",
			Items:     invItems,
			Total:     invTotal,
		},
		POData: entity.RawDocument{
			PONo:   "PO-55",
			Date:   "2024-04-20",
			Vendor: "ACME Supplies",
			Items:  poItems,
			Total:  poTotal,
		},
	}
}

func findingsOf(res entity.ReconciliationResult, c entity.Category) []entity.Finding {
	var out []entity.Finding
	for _, f := range res.Findings {
		if f.Category == c {
			out = append(out, f)
		}
	}
	return out
}

func TestScenarioA_AllMatch(t *testing.T) {
	e := NewEngine(WithLogger(quietLogger()))
	_, _, res := e.ReconcileExtraction(extraction(
		[]entity.RawItem{item("Bolt", 10, 100)},
		[]entity.RawItem{item("Bolt", 10, 100)},
		"1000.00", 1000.0,
	))
	if res.Status != entity.StatusApproved {
		t.Fatalf("status = %s, findings = %+v", res.Status, res.Findings)
	}
	if res.Mismatches() != 0 || res.Warnings() != 0 {
		t.Fatalf("mismatches=%d warnings=%d", res.Mismatches(), res.Warnings())
	}
	wantOrder := []entity.Category{
		entity.CategoryPONumber, entity.CategoryVendor, entity.CategoryTotal, entity.CategoryItemQuantity,
	}
	if len(res.Findings) != len(wantOrder) {
		t.Fatalf("got %d findings", len(res.Findings))
	}
	for i, c := range wantOrder {
		if res.Findings[i].Category != c {
			t.Errorf("finding %d category = %s, want %s", i, res.Findings[i].Category, c)
		}
	}
	if res.InvoiceNumber != "INV-100" || res.PONumber != "PO-55" {
		t.Errorf("numbers = %s / %s", res.InvoiceNumber, res.PONumber)
	}
}

func TestScenarioB_KeyNormalizationMatches(t *testing.T) {
	e := NewEngine(WithLogger(quietLogger()))
	_, _, res := e.ReconcileExtraction(extraction(
		[]entity.RawItem{item("Culture X", 10, 5)},
		[]entity.RawItem{item("culture x", 10, 5)},
		50, 50,
	))
	qty := findingsOf(res, entity.CategoryItemQuantity)
	if len(qty) != 1 || qty[0].Severity != entity.SeverityMatch {
		t.Fatalf("quantity findings = %+v", qty)
	}
	if len(findingsOf(res, entity.CategoryUnmatchedItem)) != 0 {
		t.Fatal("prefixed item reported as unmatched")
	}
	if res.Status != entity.StatusApproved {
		t.Fatalf("status = %s", res.Status)
	}
}

func TestScenarioC_QuantityExceedsPO(t *testing.T) {
	e := NewEngine(WithLogger(quietLogger()))
	_, _, res := e.ReconcileExtraction(extraction(
		[]entity.RawItem{item("Widget", 15, 2)},
		[]entity.RawItem{item("Widget", 10, 2)},
		30, 30,
	))
	qty := findingsOf(res, entity.CategoryItemQuantity)
	if len(qty) != 1 || qty[0].Severity != entity.SeverityMismatch {
		t.Fatalf("quantity findings = %+v", qty)
	}
	if qty[0].InvoiceValue != "15" || qty[0].POValue != "10" {
		t.Errorf("values = %s / %s", qty[0].InvoiceValue, qty[0].POValue)
	}
	if res.Status != entity.StatusNeedsReview {
		t.Fatalf("status = %s", res.Status)
	}
}

func TestScenarioD_PartialShipmentLenient(t *testing.T) {
	e := NewEngine(WithVariant(entity.VariantLenient), WithLogger(quietLogger()))
	_, _, res := e.ReconcileExtraction(extraction(
		[]entity.RawItem{item("Widget", 5, 2)},
		[]entity.RawItem{item("Widget", 10, 2)},
		10, 10,
	))
	qty := findingsOf(res, entity.CategoryItemQuantity)
	if len(qty) != 1 || qty[0].Severity != entity.SeverityWarning {
		t.Fatalf("quantity findings = %+v", qty)
	}
	if res.Status != entity.StatusApproved {
		t.Fatalf("status = %s, warnings alone must not escalate", res.Status)
	}
}

func TestPartialShipment_StrictLineTotal(t *testing.T) {
	// fewer units billed but at a higher price than ordered
	invItems := []entity.RawItem{item("Widget", 5, 10)}
	poItems := []entity.RawItem{item("Widget", 10, 2)}

	strict := NewEngine(WithLogger(quietLogger()))
	if strict.Variant() != entity.VariantStrict {
		t.Fatalf("default variant = %s", strict.Variant())
	}
	_, _, res := strict.ReconcileExtraction(extraction(invItems, poItems, 20, 20))
	lt := findingsOf(res, entity.CategoryItemLineTotal)
	if len(lt) != 1 || lt[0].Severity != entity.SeverityMismatch {
		t.Fatalf("line total findings = %+v", lt)
	}
	if lt[0].InvoiceAmount != 50 || lt[0].POAmount != 20 {
		t.Errorf("amounts = %v / %v", lt[0].InvoiceAmount, lt[0].POAmount)
	}
	if res.Status != entity.StatusNeedsReview {
		t.Fatalf("strict status = %s", res.Status)
	}

	lenient := NewEngine(WithVariant(entity.VariantLenient), WithLogger(quietLogger()))
	_, _, res = lenient.ReconcileExtraction(extraction(invItems, poItems, 20, 20))
	if len(findingsOf(res, entity.CategoryItemLineTotal)) != 0 {
		t.Fatal("lenient variant compared line totals")
	}
	if res.Status != entity.StatusApproved {
		t.Fatalf("lenient status = %s", res.Status)
	}
}

func TestPartialShipment_StrictWithinLineTotal(t *testing.T) {
	e := NewEngine(WithLogger(quietLogger()))
	_, _, res := e.ReconcileExtraction(extraction(
		[]entity.RawItem{item("Widget", 5, 2)},
		[]entity.RawItem{item("Widget", 10, 2)},
		10, 10,
	))
	if len(findingsOf(res, entity.CategoryItemLineTotal)) != 0 {
		t.Fatalf("unexpected line total finding: %+v", res.Findings)
	}
	if res.Status != entity.StatusApproved {
		t.Fatalf("status = %s", res.Status)
	}
}

func TestScenarioE_VendorSubstring(t *testing.T) {
	f := compareVendor("Acme International", "acme international trading")
	if f.Severity != entity.SeverityMatch {
		t.Fatalf("vendor finding = %+v", f)
	}
	if f := compareVendor("", "Acme"); f.Severity != entity.SeverityMismatch || f.InvoiceValue != "N/A" {
		t.Fatalf("blank vendor finding = %+v", f)
	}
	if f := compareVendor("Globex", "Initech"); f.Severity != entity.SeverityMismatch {
		t.Fatalf("different vendors matched: %+v", f)
	}
}

func TestScenarioF_TotalOffByTwoCents(t *testing.T) {
	e := NewEngine(WithLogger(quietLogger()))
	_, _, res := e.ReconcileExtraction(extraction(nil, nil, "100.00", "100.02"))
	tot := findingsOf(res, entity.CategoryTotal)
	if len(tot) != 1 || tot[0].Severity != entity.SeverityMismatch {
		t.Fatalf("total findings = %+v", tot)
	}
	if res.Status != entity.StatusNeedsReview {
		t.Fatalf("status = %s", res.Status)
	}
}

func TestCompareTotal_Tolerance(t *testing.T) {
	tests := []struct {
		inv, po float64
		want    entity.Severity
	}{
		{100, 100, entity.SeverityMatch},
		{100, 100.009, entity.SeverityMatch},
		{100, 100.01, entity.SeverityMismatch},
		{0.1 + 0.2, 0.3, entity.SeverityMatch},
	}
	for _, tt := range tests {
		if got := compareTotal(tt.inv, tt.po).Severity; got != tt.want {
			t.Errorf("compareTotal(%v, %v) = %s, want %s", tt.inv, tt.po, got, tt.want)
		}
	}
}

func TestComparePONumber(t *testing.T) {
	tests := []struct {
		inv, po string
		want    entity.Severity
	}{
		{"PO-1", "PO-1", entity.SeverityMatch},
		{" PO-1 ", "PO-1", entity.SeverityMatch},
		{"PO-1", "PO-2", entity.SeverityMismatch},
		{"", "", entity.SeverityMismatch},
		{"N/A", "N/A", entity.SeverityMismatch},
		{"", "PO-1", entity.SeverityMismatch},
	}
	for _, tt := range tests {
		if got := comparePONumber(tt.inv, tt.po).Severity; got != tt.want {
			t.Errorf("comparePONumber(%q, %q) = %s, want %s", tt.inv, tt.po, got, tt.want)
		}
	}
}

func TestUnmatchedAndPOOnlyItems(t *testing.T) {
	e := NewEngine(WithLogger(quietLogger()))
	_, _, res := e.ReconcileExtraction(extraction(
		[]entity.RawItem{item("Gadget", 1, 5), item("Widget", 2, 5)},
		[]entity.RawItem{item("Widget", 2, 5), item("Sprocket", 9, 1)},
		15, 15,
	))
	un := findingsOf(res, entity.CategoryUnmatchedItem)
	if len(un) != 1 || un[0].Item != "Gadget" {
		t.Fatalf("unmatched = %+v", un)
	}
	for _, f := range res.Findings {
		if f.Item == "Sprocket" {
			t.Fatalf("PO-only item reported: %+v", f)
		}
	}
	// invoice first-seen order: Gadget before Widget
	if res.Findings[3].Item != "Gadget" || res.Findings[4].Item != "Widget" {
		t.Fatalf("item order = %s, %s", res.Findings[3].Item, res.Findings[4].Item)
	}
	if res.Status != entity.StatusNeedsReview {
		t.Fatalf("status = %s", res.Status)
	}
}

func TestReconcile_Deterministic(t *testing.T) {
	e := NewEngine(WithLogger(quietLogger()))
	x := extraction(
		[]entity.RawItem{item("C", 1, 1), item("A", 3, 1), item("B", 2, 1), item("a", 1, 1)},
		[]entity.RawItem{item("B", 2, 1), item("A", 2, 1)},
		"7", "5",
	)
	inv, po, first := e.ReconcileExtraction(x)
	for range 10 {
		if again := e.Reconcile(inv, po); !reflect.DeepEqual(first, again) {
			t.Fatalf("results differ:\n%+v\n%+v", first, again)
		}
	}
}

func TestWithVariant_UnknownIsStrict(t *testing.T) {
	if v := NewEngine(WithVariant("bogus")).Variant(); v != entity.VariantStrict {
		t.Fatalf("variant = %s", v)
	}
}

func TestReconcile_HugeAmountsDoNotPanic(t *testing.T) {
	e := NewEngine(WithLogger(quietLogger()))
	x := extraction(
		[]entity.RawItem{item("Pipe", 1, "1e308"), item("Pipe", 1, "1e308")},
		[]entity.RawItem{item("Pipe", 10, 1)},
		"1e308", 10,
	)
	inv, _, res := e.ReconcileExtraction(x)

	if lt := inv.Items[0].LineTotal; math.IsInf(lt, 0) || math.IsNaN(lt) {
		t.Fatalf("line total not finite: %v", lt)
	}
	var lineTotal *entity.Finding
	for i := range res.Findings {
		if res.Findings[i].Category == entity.CategoryItemLineTotal {
			lineTotal = &res.Findings[i]
		}
	}
	if lineTotal == nil || lineTotal.Severity != entity.SeverityMismatch {
		t.Fatalf("expected line total mismatch, got %+v", res.Findings)
	}
	if res.Status != entity.StatusNeedsReview {
		t.Fatalf("status = %s", res.Status)
	}
}

func TestReconcile_NonFiniteRecordValues(t *testing.T) {
	e := NewEngine(WithLogger(quietLogger()))
	inv := entity.DocumentRecord{
		PONumber: "PO-1", Vendor: "Acme", Total: math.Inf(1),
		Items: []entity.NormalizedItem{{Key: "pipe", Description: "Pipe", Quantity: 1, LineTotal: math.Inf(1)}},
	}
	po := entity.DocumentRecord{
		PONumber: "PO-1", Vendor: "Acme", Total: math.NaN(),
		Items: []entity.NormalizedItem{{Key: "pipe", Description: "Pipe", Quantity: 5, LineTotal: math.Inf(-1)}},
	}
	res := e.Reconcile(inv, po)
	if res.Status != entity.StatusNeedsReview {
		t.Fatalf("status = %s", res.Status)
	}
}
