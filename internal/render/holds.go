package render

import (
	"html/template"

	"fuel-dashboard-backend/internal/model"
	"fuel-dashboard-backend/internal/page"
)

// Hold display states.
const (
	HoldCompleted = "COMPLETED"
	HoldActive    = "ACTIVE"
)

// Hold row classes.
const (
	ClassHoldCompleted = "hold-completed"
	ClassHoldElevated  = "hold-used-2-3"
	ClassHoldActive    = "hold-active"
)

// ElevatedUsage is the used/amount ratio above which an active hold is
// highlighted.
const ElevatedUsage = 0.66

const holdColumns = 7

// ClassifyHold returns the display status and row class of a hold.
func ClassifyHold(h model.HoldRecord) (status, class string) {
	if h.Status == "completed" || h.Remaining <= 0 {
		return HoldCompleted, ClassHoldCompleted
	}
	if usageRatio(h) > ElevatedUsage {
		return HoldActive, ClassHoldElevated
	}
	return HoldActive, ClassHoldActive
}

func usageRatio(h model.HoldRecord) float64 {
	if h.Amount <= 0 {
		if h.Used > 0 {
			return 1
		}
		return 0
	}
	return h.Used / h.Amount
}

type holdRow struct {
	Class        string
	ID           string
	Timestamp    string
	Amount       string
	Used         string
	Remaining    string
	Status       string
	Transactions int
}

var holdsTmpl = template.Must(template.New("holds").Parse(
	`{{range .}}<tr class="{{.Class}}"><td>{{.ID}}</td><td>{{.Timestamp}}</td><td>{{.Amount}}</td><td>{{.Used}}</td><td>{{.Remaining}}</td><td class="hold-status">{{.Status}}</td><td>{{.Transactions}}</td></tr>{{end}}`))

// Holds renders the hold history table body.
func Holds(body *page.Element, holds []model.HoldRecord, limit int) {
	if len(holds) == 0 {
		emptyBody(body, holdColumns)
		return
	}
	shown := newestFirst(holds, limit)
	rows := make([]holdRow, 0, len(shown))
	for _, h := range shown {
		status, class := ClassifyHold(h)
		rows = append(rows, holdRow{
			Class:        class,
			ID:           string(h.ID),
			Timestamp:    h.Timestamp,
			Amount:       Money(h.Amount),
			Used:         Money(h.Used),
			Remaining:    Money(h.Remaining),
			Status:       status,
			Transactions: len(h.Transactions),
		})
	}
	writeBody(body, holdsTmpl, rows)
}
