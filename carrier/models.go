package carrier

import (
	"github.com/xraph/rating/id"
	"github.com/xraph/rating/types"
)

// Protocol is the signaling transport used to reach a carrier.
type Protocol string

const (
	ProtocolTCP Protocol = "tcp"
	ProtocolUDP Protocol = "udp"
)

// Carrier is a voice carrier reachable at host:port. Rates reference
// carriers by (tenant, carrier_tag); inactive carriers stay addressable
// but are skipped by routing.
type Carrier struct {
	types.Entity
	ID         id.CarrierID `json:"id"`
	Tenant     string       `json:"tenant"`
	CarrierTag string       `json:"carrier_tag"`
	Host       string       `json:"host"`
	Port       int          `json:"port"`
	Protocol   Protocol     `json:"protocol"`
	Active     bool         `json:"active"`
}

// Filter narrows carrier listings.
type Filter struct {
	Q          string
	IDs        []id.CarrierID
	Tenant     string
	CarrierTag string
}
