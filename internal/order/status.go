package order

import "errors"

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

var ErrInvalidStatus = errors.New("invalid order status")

// Statuses lists every status in tracker order, cancelled last.
var Statuses = []Status{StatusPending, StatusProcessing, StatusShipped, StatusCompleted, StatusCancelled}

// trackerSteps excludes cancelled.
var trackerSteps = []Status{StatusPending, StatusProcessing, StatusShipped, StatusCompleted}

func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if Status(s) == st {
			return st, nil
		}
	}
	return "", ErrInvalidStatus
}

func (s Status) Valid() bool {
	_, err := ParseStatus(string(s))
	return err == nil
}

type Presentation struct {
	Label       string `json:"label"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
}

var presentations = map[Status]Presentation{
	StatusPending:    {"Order Placed", "Your order has been received and is being reviewed.", "Clock", "yellow"},
	StatusProcessing: {"Processing", "Your order is being prepared for shipment.", "Package", "blue"},
	StatusShipped:    {"Shipped", "Your order is on its way!", "Truck", "purple"},
	StatusCompleted:  {"Delivered", "Your order has been delivered successfully.", "CheckCircle", "green"},
	StatusCancelled:  {"Cancelled", "This order has been cancelled.", "XCircle", "red"},
}

// Display maps a status to its label, icon and color. Unknown values fall
// back to pending.
func Display(s Status) Presentation {
	if p, ok := presentations[s]; ok {
		return p
	}
	return presentations[StatusPending]
}

type Step struct {
	Status   Status `json:"status"`
	Label    string `json:"label"`
	Complete bool   `json:"complete"`
	Current  bool   `json:"current"`
}

// Tracker is the customer-facing progress bar. Index is -1 for cancelled
// orders, in which case no step is complete.
type Tracker struct {
	Index     int    `json:"index"`
	Cancelled bool   `json:"cancelled"`
	Steps     []Step `json:"steps"`
}

func Progress(s Status) Tracker {
	idx := -1
	for i, st := range trackerSteps {
		if st == s {
			idx = i
		}
	}
	t := Tracker{Index: idx, Cancelled: s == StatusCancelled, Steps: make([]Step, len(trackerSteps))}
	for i, st := range trackerSteps {
		t.Steps[i] = Step{
			Status:   st,
			Label:    Display(st).Label,
			Complete: idx >= 0 && i <= idx,
			Current:  i == idx,
		}
	}
	return t
}
