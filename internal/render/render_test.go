package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuel-dashboard-backend/internal/model"
	"fuel-dashboard-backend/internal/page"
)

func sampleSnapshot() *model.Snapshot {
	return &model.Snapshot{
		TotalLiters:      1.2,
		TotalCost:        65.24,
		Balance:          999934.76,
		RecipientBalance: 65.24,
		RealTime:         model.RealTimeData{Liters: 1.2, Balance: 999934.76},
		Holds: []model.HoldRecord{
			{ID: "1", Timestamp: "10:00:00", Amount: 100, Used: 100, Remaining: 0, Status: "completed"},
			{ID: "2", Timestamp: "10:00:03", Amount: 100, Used: 70, Remaining: 30, Status: "active",
				Transactions: []model.HoldTransaction{{Liters: 0.3, Cost: 16.31}}},
		},
		PacketLog: []model.LogEntry{
			{Time: "10:00:01.000", Liters: 0.3, Balance: 999983.69},
			{Time: "10:00:01.300", Liters: 0.3, Balance: 999967.38,
				Frames: []model.LogEntry{{Time: "10:00:01.200", Liters: 0.1, Balance: 999972.8}}},
			{Time: "10:00:01.600", Liters: 0.1, Balance: 999961.94, IsFinal: true},
		},
		OPKCMPLog: []model.LogEntry{
			{Time: "10:00:01.000", Liters: 0.3, Balance: 999983.69},
			{Time: "10:00:02.000", Liters: 0.3, Balance: 999967.38, IsFinal: true},
		},
		FuelingActive: true,
	}
}

func TestClassifyHold(t *testing.T) {
	testCases := []struct {
		name          string
		hold          model.HoldRecord
		expectStatus  string
		expectedClass string
	}{
		{
			name:          "completed status wins over usage",
			hold:          model.HoldRecord{Amount: 100, Used: 10, Remaining: 0, Status: "completed"},
			expectStatus:  HoldCompleted,
			expectedClass: ClassHoldCompleted,
		},
		{
			name:          "exhausted hold is completed",
			hold:          model.HoldRecord{Amount: 100, Used: 100, Remaining: 0, Status: "active"},
			expectStatus:  HoldCompleted,
			expectedClass: ClassHoldCompleted,
		},
		{
			name:          "elevated usage",
			hold:          model.HoldRecord{Amount: 100, Used: 70, Remaining: 30, Status: "active"},
			expectStatus:  HoldActive,
			expectedClass: ClassHoldElevated,
		},
		{
			name:          "exactly at threshold is not elevated",
			hold:          model.HoldRecord{Amount: 100, Used: 66, Remaining: 34, Status: "active"},
			expectStatus:  HoldActive,
			expectedClass: ClassHoldActive,
		},
		{
			name:          "zero amount with usage",
			hold:          model.HoldRecord{Amount: 0, Used: 5, Remaining: 1, Status: "active"},
			expectStatus:  HoldActive,
			expectedClass: ClassHoldElevated,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, class := ClassifyHold(tc.hold)
			assert.Equal(t, tc.expectStatus, status)
			assert.Equal(t, tc.expectedClass, class)
		})
	}
}

func TestHolds(t *testing.T) {
	var body page.Element
	Holds(&body, sampleSnapshot().Holds, 0)

	html := string(body.HTML)
	assert.Equal(t, 2, strings.Count(html, "<tr "))
	assert.Contains(t, html, `<tr class="hold-completed"><td>1</td>`)
	assert.Contains(t, html, `<td class="hold-status">COMPLETED</td>`)
	assert.Contains(t, html, `<tr class="hold-used-2-3"><td>2</td>`)
	assert.Contains(t, html, `<td>70.00 RUB</td><td>30.00 RUB</td><td class="hold-status">ACTIVE</td><td>1</td>`)
	assert.Less(t, strings.Index(html, "<td>1</td>"), strings.Index(html, "<td>2</td>"), "upstream order without a limit")
}

func TestHolds_LimitNewestFirst(t *testing.T) {
	var holds []model.HoldRecord
	for i := 1; i <= 8; i++ {
		holds = append(holds, model.HoldRecord{ID: model.HoldID(string(rune('0' + i))), Amount: 100, Remaining: 100})
	}

	var body page.Element
	Holds(&body, holds, 5)

	html := string(body.HTML)
	assert.Equal(t, 5, strings.Count(html, "<tr "))
	assert.True(t, strings.HasPrefix(html, `<tr class="hold-active"><td>8</td>`))
	assert.NotContains(t, html, "<td>3</td>")
}

func TestEmptyTables(t *testing.T) {
	var holds, packets, opkcmp page.Element
	holds.SetHTML("<tr><td>stale</td></tr>")

	Holds(&holds, nil, 5)
	Packets(&packets, []model.LogEntry{}, LogOptions{Limit: 10})
	OPKCMP(&opkcmp, nil, LogOptions{})

	assert.Equal(t, `<tr class="empty-row"><td colspan="7">No data</td></tr>`, string(holds.HTML))
	assert.Equal(t, `<tr class="empty-row"><td colspan="4">No data</td></tr>`, string(packets.HTML))
	assert.Equal(t, 1, strings.Count(string(opkcmp.HTML), "<tr "))
}

func TestPackets(t *testing.T) {
	snap := sampleSnapshot()

	var body page.Element
	Packets(&body, snap.PacketLog, LogOptions{Limit: 10, ExpandFrames: true})

	html := string(body.HTML)
	assert.Equal(t, 4, strings.Count(html, "<tr "))
	assert.True(t, strings.HasPrefix(html, `<tr class="final-frame"><td>10:00:01.600</td><td>0.100 L</td>`), html)
	assert.Contains(t, html, `<td>FINAL</td>`)
	assert.Contains(t, html, `<tr class="packet-frame"><td>10:00:01.300</td>`)
	assert.Contains(t, html, `<tr class="frame-row"><td class="frame-indent">&#8627; 10:00:01.200</td>`)
	assert.Contains(t, html, `<td>FRAME</td>`)

	// Frame row follows its parent packet.
	assert.Less(t, strings.Index(html, "10:00:01.300"), strings.Index(html, "10:00:01.200"))
}

func TestPackets_FramesCollapsed(t *testing.T) {
	var body page.Element
	Packets(&body, sampleSnapshot().PacketLog, LogOptions{})

	html := string(body.HTML)
	assert.Equal(t, 3, strings.Count(html, "<tr "))
	assert.NotContains(t, html, "frame-row")
	assert.True(t, strings.HasPrefix(html, `<tr class="packet-frame"><td>10:00:01.000</td>`))
}

func TestOPKCMP(t *testing.T) {
	var body page.Element
	OPKCMP(&body, sampleSnapshot().OPKCMPLog, LogOptions{Limit: 10})

	html := string(body.HTML)
	assert.True(t, strings.HasPrefix(html, `<tr class="final-opkcmp"><td>10:00:02.000</td>`))
	assert.Contains(t, html, `<tr class="opkcmp-buffer">`)
	assert.Contains(t, html, `<td>BUFFER</td>`)
}

func TestEscapesUpstreamText(t *testing.T) {
	var body page.Element
	Holds(&body, []model.HoldRecord{{ID: "<script>", Amount: 1, Remaining: 1}}, 0)
	assert.NotContains(t, string(body.HTML), "<script>")
	assert.Contains(t, string(body.HTML), "&lt;script&gt;")
}

func TestRatesAndPercent(t *testing.T) {
	snap := sampleSnapshot()
	flow, payment := Rates(snap)
	assert.InDelta(t, 4.0, flow, 1e-9)
	assert.InDelta(t, 217.4667, payment, 1e-3)

	flow, payment = Rates(&model.Snapshot{RealTime: model.RealTimeData{Liters: 5}})
	assert.Zero(t, flow)
	assert.Zero(t, payment)

	assert.Equal(t, 100.0, Percent(12, 6))
	assert.Equal(t, 0.0, Percent(-1, 6))
	assert.Equal(t, 50.0, Percent(3, 6))
	assert.Equal(t, 0.0, Percent(3, 0))
}

func TestFlow(t *testing.T) {
	doc := page.NewDocument()
	snap := sampleSnapshot()
	snap.RealTime.Liters = 1.5 // 5 L/s over three packets

	doc.Mutate(func(els page.Elements) { Flow(els, snap, DefaultFlowLimits) })

	progress, ok := doc.Get(page.IDFlowProgress)
	require.True(t, ok)
	assert.Equal(t, "83.33%", progress.Style["width"])

	current, _ := doc.Get(page.IDCurrentFlow)
	assert.Equal(t, "5.000 L/s", current.Text)

	meter, _ := doc.Get(page.IDFlowMeter)
	assert.True(t, meter.HasClass("high-flow"))

	payment, _ := doc.Get(page.IDPaymentFlow)
	assert.False(t, payment.HasClass("high-payment"))
}

func TestSnapshot_Idempotent(t *testing.T) {
	opts := Options{HoldLimit: 5, LogLimit: 10, ExpandFrames: true, Flow: true, FlowLimits: DefaultFlowLimits}
	snap := sampleSnapshot()

	doc := page.NewDocument()
	doc.Mutate(func(els page.Elements) { Snapshot(els, snap, opts) })
	first := doc.View()
	doc.Mutate(func(els page.Elements) { Snapshot(els, snap, opts) })
	second := doc.View()

	assert.NotEqual(t, first.Version, second.Version)
	assert.Equal(t, first.Elements, second.Elements)
	assert.Equal(t, first.Elements[page.IDHolds].HTML, second.Elements[page.IDHolds].HTML)

	liters := second.Elements[page.IDTotalLiters]
	assert.Equal(t, "1.200 L", liters.Text)
	assert.Equal(t, "running", second.Elements[page.IDAnimation].Style["animation-play-state"])
}

func TestControls(t *testing.T) {
	doc := page.NewDocument()
	doc.Mutate(func(els page.Elements) { Controls(els, model.RunState{IsFueling: true}) })

	button, _ := doc.Get(page.IDFuelButton)
	assert.Equal(t, ButtonStop, button.Text)
	assert.True(t, button.HasClass("stop"))
	status, _ := doc.Get(page.IDStatus)
	assert.Equal(t, "active", status.Data["status"])

	doc.Mutate(func(els page.Elements) { Controls(els, model.RunState{}) })
	button, _ = doc.Get(page.IDFuelButton)
	assert.Equal(t, ButtonStart, button.Text)
	assert.False(t, button.HasClass("stop"))
	status, _ = doc.Get(page.IDStatus)
	assert.Equal(t, StatusInactive, status.Text)
	assert.Equal(t, "inactive", status.Data["status"])
}
