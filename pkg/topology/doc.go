// Package topology defines the mesh network model that meshmap renders.
//
// A [Graph] holds the devices of one network snapshot as [Node] records and
// the radio links between them as [Link] records. Node records double as the
// force simulation's particle records: the simulation owns and mutates their
// X, Y, VX and VY fields every tick, and a non-nil FX/FY pins the node.
//
// # Device Types
//
// Every node embeds a [Device] whose [DeviceType] decides how the node is
// drawn. The well-known types are [Coordinator], [Router] and [EndDevice];
// any other string is kept verbatim and rendered with the default shape.
//
// # Serialization
//
// The wire format is the networkmap "raw" shape:
//
//	{
//	  "nodes": [{"ieeeAddr": "0x00124b0014d9d1a2", "type": "Coordinator", "friendlyName": "Coordinator"}],
//	  "links": [{"source": {"ieeeAddr": "0x..."}, "target": {"ieeeAddr": "0x..."}, "lqi": 120}]
//	}
//
// [Decode] accepts it as JSON, YAML or TOML.
package topology
