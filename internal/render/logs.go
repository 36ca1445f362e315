package render

import (
	"html/template"

	"fuel-dashboard-backend/internal/model"
	"fuel-dashboard-backend/internal/page"
)

// LogOptions controls how a packet or OPKCMP table is rendered.
type LogOptions struct {
	Limit        int
	ExpandFrames bool
}

const logColumns = 4

type logRow struct {
	Class   string
	Time    string
	Liters  string
	Balance string
	Label   string
	Nested  bool
}

var logTmpl = template.Must(template.New("log").Parse(
	`{{range .}}{{if .Nested}}<tr class="{{.Class}}"><td class="frame-indent">&#8627; {{.Time}}</td>{{else}}<tr class="{{.Class}}"><td>{{.Time}}</td>{{end}}<td>{{.Liters}}</td><td>{{.Balance}}</td><td>{{.Label}}</td></tr>{{end}}`))

type logKind struct {
	finalClass, openClass string
	finalLabel, openLabel string
}

var (
	packetKind = logKind{finalClass: "final-frame", openClass: "packet-frame", finalLabel: "FINAL", openLabel: "PACKET"}
	opkcmpKind = logKind{finalClass: "final-opkcmp", openClass: "opkcmp-buffer", finalLabel: "FINAL", openLabel: "BUFFER"}
)

// Packets renders the packet log table body.
func Packets(body *page.Element, entries []model.LogEntry, opts LogOptions) {
	renderLog(body, entries, opts, packetKind)
}

// OPKCMP renders the OPKCMP buffer log table body.
func OPKCMP(body *page.Element, entries []model.LogEntry, opts LogOptions) {
	renderLog(body, entries, opts, opkcmpKind)
}

func renderLog(body *page.Element, entries []model.LogEntry, opts LogOptions, kind logKind) {
	if len(entries) == 0 {
		emptyBody(body, logColumns)
		return
	}
	shown := newestFirst(entries, opts.Limit)
	rows := make([]logRow, 0, len(shown))
	for _, e := range shown {
		rows = append(rows, kind.row(e, false))
		if !opts.ExpandFrames {
			continue
		}
		for _, f := range e.Frames {
			r := kind.row(f, true)
			r.Class = "frame-row"
			r.Label = "FRAME"
			if f.IsFinal {
				r.Label = kind.finalLabel
			}
			rows = append(rows, r)
		}
	}
	writeBody(body, logTmpl, rows)
}

func (k logKind) row(e model.LogEntry, nested bool) logRow {
	r := logRow{
		Class:   k.openClass,
		Time:    e.Time,
		Liters:  Liters(e.Liters),
		Balance: Money(e.Balance),
		Label:   k.openLabel,
		Nested:  nested,
	}
	if e.IsFinal {
		r.Class = k.finalClass
		r.Label = k.finalLabel
	}
	return r
}
