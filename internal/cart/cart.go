// Package cart implements the shopping cart as a pure reducer over State,
// plus a Container that persists every mutation to client storage.
package cart

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/storefront/internal/product"
)

type Item struct {
	Product  product.Product `json:"product"`
	Quantity int             `json:"quantity"`
}

// State is the cart. Items keeps insertion order and holds at most one
// entry per product id, each with Quantity >= 1.
type State struct {
	Items []Item `json:"items"`
	Open  bool   `json:"isOpen"`
}

type ActionKind int

const (
	AddItem ActionKind = iota
	RemoveItem
	SetQuantity
	Clear
	Toggle
	SetOpen
	Load
)

type Action struct {
	Kind      ActionKind
	Product   product.Product
	ProductID string
	Quantity  int
	Open      bool
	Items     []Item
}

func Add(p product.Product) Action { return Action{Kind: AddItem, Product: p} }
func Remove(id string) Action      { return Action{Kind: RemoveItem, ProductID: id} }

func ChangeQuantity(id string, q int) Action {
	return Action{Kind: SetQuantity, ProductID: id, Quantity: q}
}

func ClearItems() Action            { return Action{Kind: Clear} }
func ToggleOpen() Action            { return Action{Kind: Toggle} }
func Visible(open bool) Action      { return Action{Kind: SetOpen, Open: open} }
func LoadItems(items []Item) Action { return Action{Kind: Load, Items: items} }

// Reduce returns the state after applying a. The input state is never modified.
func Reduce(s State, a Action) State {
	switch a.Kind {
	case AddItem:
		items := copyItems(s.Items)
		for i := range items {
			if items[i].Product.ID == a.Product.ID {
				items[i].Quantity++
				return State{Items: items, Open: s.Open}
			}
		}
		return State{Items: append(items, Item{Product: a.Product, Quantity: 1}), Open: s.Open}

	case RemoveItem:
		return State{Items: without(s.Items, a.ProductID), Open: s.Open}

	case SetQuantity:
		if a.Quantity <= 0 {
			return State{Items: without(s.Items, a.ProductID), Open: s.Open}
		}
		items := copyItems(s.Items)
		for i := range items {
			if items[i].Product.ID == a.ProductID {
				items[i].Quantity = a.Quantity
			}
		}
		return State{Items: items, Open: s.Open}

	case Clear:
		return State{Items: []Item{}, Open: s.Open}

	case Toggle:
		return State{Items: s.Items, Open: !s.Open}

	case SetOpen:
		return State{Items: s.Items, Open: a.Open}

	case Load:
		return State{Items: normalize(a.Items), Open: s.Open}
	}
	return s
}

func copyItems(in []Item) []Item {
	out := make([]Item, len(in), len(in)+1)
	copy(out, in)
	return out
}

func without(in []Item, id string) []Item {
	out := make([]Item, 0, len(in))
	for _, it := range in {
		if it.Product.ID != id {
			out = append(out, it)
		}
	}
	return out
}

// normalize drops non-positive quantities and folds duplicate product ids
// into the first occurrence.
func normalize(in []Item) []Item {
	out := make([]Item, 0, len(in))
	pos := make(map[string]int, len(in))
	for _, it := range in {
		if it.Quantity <= 0 || it.Product.ID == "" {
			continue
		}
		if i, ok := pos[it.Product.ID]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		pos[it.Product.ID] = len(out)
		out = append(out, it)
	}
	return out
}

func TotalItems(items []Item) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

func TotalPrice(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Product.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

func Encode(items []Item) (string, error) {
	if items == nil {
		items = []Item{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Decode parses a persisted item list. Malformed input yields an empty cart.
func Decode(raw string) []Item {
	var items []Item
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return []Item{}
	}
	return normalize(items)
}
