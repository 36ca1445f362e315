package render

import (
	"fmt"
	"math"

	"fuel-dashboard-backend/internal/model"
	"fuel-dashboard-backend/internal/page"
)

// PacketPeriod is the nominal time in seconds covered by one packet.
const PacketPeriod = 0.1

// FlowLimits holds the full-scale values and highlight thresholds of the
// flow visualization.
type FlowLimits struct {
	MaxFlow     float64
	MaxPayment  float64
	HighFlow    float64
	HighPayment float64
}

// DefaultFlowLimits matches a 6 L/s pump at 54.37 RUB/L.
var DefaultFlowLimits = FlowLimits{
	MaxFlow:     6,
	MaxPayment:  326.22,
	HighFlow:    4.5,
	HighPayment: 250,
}

// Rates derives the instantaneous flow (L/s) and payment (RUB/s) rates from
// the packet count. With no packets both rates are zero.
func Rates(snap *model.Snapshot) (flow, payment float64) {
	elapsed := float64(len(snap.PacketLog)) * PacketPeriod
	if elapsed <= 0 {
		return 0, 0
	}
	return snap.RealTime.Liters / elapsed, snap.TotalCost / elapsed
}

// Percent expresses rate as a share of max, clamped to [0,100].
func Percent(rate, max float64) float64 {
	if max <= 0 {
		return 0
	}
	p := rate / max * 100
	switch {
	case p < 0 || math.IsNaN(p):
		return 0
	case p > 100:
		return 100
	}
	return p
}

// Flow updates the flow and payment meters.
func Flow(els page.Elements, snap *model.Snapshot, limits FlowLimits) {
	flow, payment := Rates(snap)

	els.Element(page.IDFlowProgress).SetStyle("width", fmt.Sprintf("%.2f%%", Percent(flow, limits.MaxFlow)))
	els.Element(page.IDCurrentFlow).SetText(fmt.Sprintf("%.3f L/s", flow))
	els.Element(page.IDPaymentProgress).SetStyle("width", fmt.Sprintf("%.2f%%", Percent(payment, limits.MaxPayment)))
	els.Element(page.IDCurrentPayment).SetText(fmt.Sprintf("%.2f RUB/s", payment))

	els.Element(page.IDFlowMeter).ToggleClass("high-flow", flow > limits.HighFlow)
	els.Element(page.IDPaymentFlow).ToggleClass("high-payment", payment > limits.HighPayment)
}
