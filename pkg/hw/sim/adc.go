package sim

import "sync"

// ADC replays scripted light readings. When the script is exhausted
// the last value repeats, matching a sensor that has settled.
type ADC struct {
	lock    sync.Mutex
	samples []uint16
	last    uint16
}

// NewADC creates an ADC with an initial reading.
func NewADC(initial uint16) *ADC {
	return &ADC{last: initial}
}

// Sample implements hw.ADC.
func (a *ADC) Sample() (uint16, error) {
	a.lock.Lock()
	defer a.lock.Unlock()
	if len(a.samples) > 0 {
		a.last = a.samples[0]
		a.samples = a.samples[1:]
	}
	return a.last, nil
}

// Script queues readings to be returned in order.
func (a *ADC) Script(samples ...uint16) {
	a.lock.Lock()
	a.samples = append(a.samples, samples...)
	a.lock.Unlock()
}

// Set replaces the steady-state reading.
func (a *ADC) Set(v uint16) {
	a.lock.Lock()
	a.last = v
	a.samples = nil
	a.lock.Unlock()
}
