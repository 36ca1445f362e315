package render

import (
	"fuel-dashboard-backend/internal/model"
	"fuel-dashboard-backend/internal/page"
)

// Button and status texts.
const (
	ButtonStart    = "Start Fueling"
	ButtonStop     = "Stop Fueling"
	StatusActive   = "Fueling in progress..."
	StatusInactive = "Ready to start fueling"
)

// Controls reflects the run state on the toggle button and status line.
func Controls(els page.Elements, state model.RunState) {
	button := els.Element(page.IDFuelButton)
	status := els.Element(page.IDStatus)
	if state.IsFueling {
		button.SetText(ButtonStop)
		button.AddClass("stop")
		status.SetText(StatusActive)
		status.SetData("status", "active")
		return
	}
	button.SetText(ButtonStart)
	button.RemoveClass("stop")
	status.SetText(StatusInactive)
	status.SetData("status", "inactive")
}

// Alert shows a user-facing error message. An empty message clears it.
func Alert(el *page.Element, message string) {
	el.SetText(message)
	el.ToggleClass("visible", message != "")
}
