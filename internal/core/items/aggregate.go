package items

import (
	"log/slog"

	"github.com/joseph-ayodele/invoice-matcher/internal/entity"
)

// Aggregator groups raw line items by canonical key.
type Aggregator struct {
	logger *slog.Logger
}

func NewAggregator(logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{logger: logger}
}

// Aggregate is Aggregator.Aggregate with the default logger.
func Aggregate(raw []entity.RawItem) []entity.NormalizedItem {
	return NewAggregator(nil).Aggregate(raw)
}

// Aggregate emits one NormalizedItem per distinct key in first-seen order.
// Quantities are summed, the last positive price is kept as the unit price and
// LineTotal sums quantity × price of every occurrence.
func (a *Aggregator) Aggregate(raw []entity.RawItem) []entity.NormalizedItem {
	acc := NewOrderedMap[string, entity.NormalizedItem]()

	for i, it := range raw {
		if !HasDescription(it.Description) {
			a.logger.Debug("items.aggregate.skip_no_description", "index", i)
			continue
		}
		key := NormalizeKey(it.Description)

		qty := a.parse(it.Quantity, "quantity", key)
		if qty < 0 {
			a.logger.Warn("items.numeric.negative_quantity", "key", key, "value", qty)
			qty = 0
		}
		price := a.parse(it.Price, "price", key)

		first := !acc.Has(key)
		acc.Update(key, func(n *entity.NormalizedItem) {
			if first {
				n.Key = key
				n.Description = it.Description
			}
			if sum, ok := finite(n.Quantity + qty); ok {
				n.Quantity = sum
			} else {
				a.logger.Warn("items.numeric.degraded", "field", "quantity", "key", key, "reason", "overflow")
			}
			if price > 0 {
				n.UnitPrice = price
			}
			if sum, ok := finite(n.LineTotal + qty*price); ok {
				n.LineTotal = sum
			} else {
				a.logger.Warn("items.numeric.degraded", "field", "line_total", "key", key, "reason", "overflow")
			}
		})
	}

	out := make([]entity.NormalizedItem, 0, acc.Len())
	for _, n := range acc.All() {
		out = append(out, n)
	}
	return out
}

func (a *Aggregator) parse(v any, field, key string) float64 {
	f, ok := TryParseNumber(v)
	if !ok {
		a.logger.Warn("items.numeric.degraded", "field", field, "key", key, "value", v)
	}
	return f
}
