package simulation

import (
	"github.com/hydroflow/hydroflow/pkg/epanet"
)

// TopologyNode is a node as exposed by the topology endpoint.
type TopologyNode struct {
	ID        string  `json:"id"`
	Type      string  `json:"type"` // junction, reservoir, tank
	Elevation float64 `json:"elevation"`
	X         float64 `json:"x,omitempty"`
	Y         float64 `json:"y,omitempty"`
}

// TopologyLink is a link as exposed by the topology endpoint.
type TopologyLink struct {
	ID       string  `json:"id"`
	Type     string  `json:"type"` // pipe, pump, valve
	FromNode string  `json:"from_node"`
	ToNode   string  `json:"to_node"`
	Length   float64 `json:"length,omitempty"`
	Diameter float64 `json:"diameter,omitempty"`
}

// Topology is the graph view of a scenario's network.
type Topology struct {
	Name  string         `json:"name,omitempty"`
	Nodes []TopologyNode `json:"nodes"`
	Links []TopologyLink `json:"links"`
}

// topologyOf flattens an epanet network into the REST topology shape.
func topologyOf(net *epanet.Network) Topology {
	topo := Topology{Name: net.Title}

	addNode := func(id, typ string, elev float64) {
		n := TopologyNode{ID: id, Type: typ, Elevation: elev}
		if c, ok := net.Coordinates[id]; ok {
			n.X, n.Y = c.X, c.Y
		}
		topo.Nodes = append(topo.Nodes, n)
	}
	for _, j := range net.Junctions {
		addNode(j.ID, "junction", j.Elevation)
	}
	for _, r := range net.Reservoirs {
		addNode(r.ID, "reservoir", r.Head)
	}
	for _, t := range net.Tanks {
		addNode(t.ID, "tank", t.Elevation)
	}

	for _, p := range net.Pipes {
		topo.Links = append(topo.Links, TopologyLink{
			ID: p.ID, Type: "pipe", FromNode: p.FromNode, ToNode: p.ToNode,
			Length: p.Length, Diameter: p.Diameter,
		})
	}
	for _, p := range net.Pumps {
		topo.Links = append(topo.Links, TopologyLink{
			ID: p.ID, Type: "pump", FromNode: p.FromNode, ToNode: p.ToNode,
		})
	}
	for _, v := range net.Valves {
		topo.Links = append(topo.Links, TopologyLink{
			ID: v.ID, Type: "valve", FromNode: v.FromNode, ToNode: v.ToNode,
			Diameter: v.Diameter,
		})
	}
	return topo
}
