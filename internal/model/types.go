package model

import "encoding/json"

// -----------------------------------------------------------------------------
// Envelope
// -----------------------------------------------------------------------------

// Target selects the renderer for an Envelope's data.
type Target string

const (
	TargetInterface Target = "interface"
	TargetTraffic   Target = "traffic"
)

// Envelope is the top-level inbound frame.
// Target determines the shape of Data: []TrafficRow for "traffic",
// InterfaceMap for "interface".
type Envelope struct {
	Target Target          `json:"target"`
	Data   json.RawMessage `json:"data"`
}

// Reply is the server's answer to a process_ws_message request.
// Error is null on success and 1 when Response holds a stack trace.
type Reply struct {
	Response json.RawMessage `json:"response"`
	Error    json.RawMessage `json:"error"`
}

// Failed reports whether the server flagged the request as failed.
func (r Reply) Failed() bool {
	return len(r.Error) > 0 && string(r.Error) != "null"
}

// -----------------------------------------------------------------------------
// Traffic matrix
// -----------------------------------------------------------------------------

// TrafficRow is one source/destination/locator flow.
// (SourceRouter, DestRouter, LocatorAddr) identifies a flow, but the server
// may send several rows for the same tuple and all of them are rendered.
type TrafficRow struct {
	SourceRouter string  `json:"source_router"`
	DestRouter   string  `json:"dest_router"`
	LocatorAddr  string  `json:"locator_addr"`
	TrafficRate  float64 `json:"traffic_rate"`

	// Set by newer servers; decoded but not rendered.
	AlgoName   string `json:"algo_name,omitempty"`
	DemandName string `json:"demand_name,omitempty"`
}

// -----------------------------------------------------------------------------
// Interface utilization
// -----------------------------------------------------------------------------

// InterfaceEntry is the utilization of one router interface, including the
// worst case over the simulated failure scenarios.
type InterfaceEntry struct {
	Name             string  `json:"-"` // Key in the router's interface map
	Capacity         float64 `json:"capacity"`
	Traffic          float64 `json:"traffic"`
	Util             float64 `json:"util"`
	WorstCaseTraffic float64 `json:"worst-case-traffic"`
	WorstCaseUtil    float64 `json:"worst-case-util"`
	FailureScenario  string  `json:"failure-scenario"`
}

// RouterInterfaces holds the interfaces of one router in wire order.
type RouterInterfaces struct {
	Router     string
	Interfaces []InterfaceEntry
}

// InterfaceMap is the "interface" payload: router -> interface -> entry.
// It decodes from a JSON object of objects and keeps the key order of the
// wire, which a Go map would lose.
type InterfaceMap struct {
	Routers []RouterInterfaces
}

// Len returns the number of routers.
func (m InterfaceMap) Len() int {
	return len(m.Routers)
}
