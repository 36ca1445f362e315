// Package page holds the in-memory document the dashboard renders into.
// Element ids are the contract with the served HTML markup.
package page

import (
	"html/template"
	"sort"
	"sync"
)

// Element ids consumed by the dashboard page.
const (
	IDFuelButton       = "fuel-button"
	IDStatus           = "status"
	IDAlert            = "alert"
	IDRealTimeLiters   = "real-time-liters"
	IDRealTimeBalance  = "real-time-balance"
	IDTotalLiters      = "total-liters"
	IDTotalCost        = "total-cost"
	IDBalance          = "balance"
	IDRecipientBalance = "recipient-balance"
	IDHolds            = "holds-log"
	IDPackets          = "packet-log"
	IDOPKCMP           = "opkcmp-log"
	IDFlowMeter        = "flow-meter"
	IDFlowProgress     = "flow-progress"
	IDCurrentFlow      = "current-flow"
	IDPaymentFlow      = "payment-flow"
	IDPaymentProgress  = "payment-progress"
	IDCurrentPayment   = "current-payment"
	IDAnimation        = "fueling-animation"
)

// Element is the rendered state of one addressable node. Table containers
// carry their body markup in HTML; everything else uses Text.
type Element struct {
	Text    string            `json:"text,omitempty"`
	HTML    template.HTML     `json:"html,omitempty"`
	Classes []string          `json:"classes,omitempty"`
	Data    map[string]string `json:"data,omitempty"`
	Style   map[string]string `json:"style,omitempty"`
}

// SetText replaces the text content.
func (e *Element) SetText(s string) {
	e.Text = s
}

// SetHTML replaces the inner markup, discarding the previous one.
func (e *Element) SetHTML(h template.HTML) {
	e.HTML = h
}

// HasClass reports whether the class is set.
func (e *Element) HasClass(name string) bool {
	i := sort.SearchStrings(e.Classes, name)
	return i < len(e.Classes) && e.Classes[i] == name
}

// AddClass adds a class; classes are kept sorted and unique.
func (e *Element) AddClass(name string) {
	if e.HasClass(name) {
		return
	}
	e.Classes = append(e.Classes, name)
	sort.Strings(e.Classes)
}

// RemoveClass removes a class if present.
func (e *Element) RemoveClass(name string) {
	i := sort.SearchStrings(e.Classes, name)
	if i < len(e.Classes) && e.Classes[i] == name {
		e.Classes = append(e.Classes[:i], e.Classes[i+1:]...)
	}
}

// ToggleClass adds the class when on is true and removes it otherwise.
func (e *Element) ToggleClass(name string, on bool) {
	if on {
		e.AddClass(name)
	} else {
		e.RemoveClass(name)
	}
}

// SetData sets a data-* attribute.
func (e *Element) SetData(key, value string) {
	if e.Data == nil {
		e.Data = make(map[string]string)
	}
	e.Data[key] = value
}

// SetStyle sets an inline style property.
func (e *Element) SetStyle(prop, value string) {
	if e.Style == nil {
		e.Style = make(map[string]string)
	}
	e.Style[prop] = value
}

func (e *Element) clone() Element {
	c := Element{Text: e.Text, HTML: e.HTML}
	if len(e.Classes) > 0 {
		c.Classes = append([]string(nil), e.Classes...)
	}
	if len(e.Data) > 0 {
		c.Data = make(map[string]string, len(e.Data))
		for k, v := range e.Data {
			c.Data[k] = v
		}
	}
	if len(e.Style) > 0 {
		c.Style = make(map[string]string, len(e.Style))
		for k, v := range e.Style {
			c.Style[k] = v
		}
	}
	return c
}

// Elements resolves element ids to mutable elements.
type Elements interface {
	Element(id string) *Element
}

// View is an immutable copy of the document.
type View struct {
	Version  uint64             `json:"version"`
	Elements map[string]Element `json:"elements"`
}

// Document is the shared, mutex-guarded page state.
type Document struct {
	mu       sync.RWMutex
	version  uint64
	elements map[string]*Element
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{elements: make(map[string]*Element)}
}

type mutator struct {
	elements map[string]*Element
}

func (m mutator) Element(id string) *Element {
	el, ok := m.elements[id]
	if !ok {
		el = &Element{}
		m.elements[id] = el
	}
	return el
}

// Mutate runs fn with exclusive access to the document and bumps the version.
// Elements must not be retained after fn returns.
func (d *Document) Mutate(fn func(Elements)) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn(mutator{elements: d.elements})
	d.version++
	return d.version
}

// View returns a deep copy of the current document.
func (d *Document) View() View {
	d.mu.RLock()
	defer d.mu.RUnlock()
	v := View{Version: d.version, Elements: make(map[string]Element, len(d.elements))}
	for id, el := range d.elements {
		v.Elements[id] = el.clone()
	}
	return v
}

// Get returns a copy of one element.
func (d *Document) Get(id string) (Element, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	el, ok := d.elements[id]
	if !ok {
		return Element{}, false
	}
	return el.clone(), true
}
