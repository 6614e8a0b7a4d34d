package order

import "github.com/shopspring/decimal"

// UpdateStatusRequest admin status change payload.
// swagger:model UpdateStatusRequest
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required" example:"shipped"`
}

// View is an order with its display fields resolved.
// swagger:model OrderView
type View struct {
	Order
	Reference    string       `json:"reference" example:"3F2A9C1B"`
	Presentation Presentation `json:"presentation"`
	Tracker      Tracker      `json:"tracker"`
}

func NewView(o Order) View {
	return View{Order: o, Reference: Reference(o.ID), Presentation: Display(o.Status), Tracker: Progress(o.Status)}
}

// Stats admin dashboard counters.
// swagger:model OrderStats
type Stats struct {
	Total    int             `json:"total"`
	ByStatus map[Status]int  `json:"by_status"`
	Revenue  decimal.Decimal `json:"revenue"`
}
