// Package render turns polled snapshots into page elements. Every function
// here is pure with respect to its inputs: the same data always produces the
// same markup.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"log"

	"fuel-dashboard-backend/internal/model"
	"fuel-dashboard-backend/internal/page"
)

// Options selects the optional rendering behaviours.
type Options struct {
	HoldLimit    int
	LogLimit     int
	ExpandFrames bool
	Flow         bool
	FlowLimits   FlowLimits
}

// Snapshot renders every region of the page from one snapshot.
func Snapshot(els page.Elements, snap *model.Snapshot, opts Options) {
	Values(els, snap)
	Holds(els.Element(page.IDHolds), snap.Holds, opts.HoldLimit)
	Packets(els.Element(page.IDPackets), snap.PacketLog, LogOptions{Limit: opts.LogLimit, ExpandFrames: opts.ExpandFrames})
	OPKCMP(els.Element(page.IDOPKCMP), snap.OPKCMPLog, LogOptions{Limit: opts.LogLimit})
	if opts.Flow {
		Flow(els, snap, opts.FlowLimits)
	}
	Animation(els.Element(page.IDAnimation), snap.FuelingActive)
}

// Liters formats a volume the way the page shows it.
func Liters(v float64) string {
	return fmt.Sprintf("%.3f L", v)
}

// Money formats an amount the way the page shows it.
func Money(v float64) string {
	return fmt.Sprintf("%.2f RUB", v)
}

// Values updates the aggregate numeric fields.
func Values(els page.Elements, snap *model.Snapshot) {
	els.Element(page.IDRealTimeLiters).SetText(Liters(snap.RealTime.Liters))
	els.Element(page.IDRealTimeBalance).SetText(Money(snap.RealTime.Balance))
	els.Element(page.IDTotalLiters).SetText(Liters(snap.TotalLiters))
	els.Element(page.IDTotalCost).SetText(Money(snap.TotalCost))
	els.Element(page.IDBalance).SetText(Money(snap.Balance))
	els.Element(page.IDRecipientBalance).SetText(Money(snap.RecipientBalance))
}

// Animation runs or pauses the fueling animation.
func Animation(el *page.Element, active bool) {
	if active {
		el.SetStyle("animation-play-state", "running")
	} else {
		el.SetStyle("animation-play-state", "paused")
	}
}

var emptyRowTmpl = template.Must(template.New("empty").Parse(
	`<tr class="empty-row"><td colspan="{{.Colspan}}">{{.Text}}</td></tr>`))

// NoDataText is the placeholder shown for empty tables.
const NoDataText = "No data"

func emptyBody(body *page.Element, colspan int) {
	writeBody(body, emptyRowTmpl, struct {
		Colspan int
		Text    string
	}{colspan, NoDataText})
}

// writeBody replaces the container markup with the executed template. On a
// template failure the container is left empty rather than half-written.
func writeBody(body *page.Element, tmpl *template.Template, data any) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		log.Printf("Error rendering %s: %v", tmpl.Name(), err)
		body.SetHTML("")
		return
	}
	body.SetHTML(template.HTML(buf.String()))
}

// newestFirst returns the last limit items in reverse order. A non-positive
// limit keeps every item in upstream order.
func newestFirst[T any](items []T, limit int) []T {
	if limit <= 0 {
		return items
	}
	if len(items) < limit {
		limit = len(items)
	}
	out := make([]T, 0, limit)
	for i := len(items) - 1; i >= len(items)-limit; i-- {
		out = append(out, items[i])
	}
	return out
}
