// Package mapview owns a live mesh map: the force simulation, the rendered
// document and the views drawn into it.
//
// A [Map] is single-threaded. Either drive it directly from one goroutine
// ([Map.Step], [Map.HandlePointer], [Map.WriteSVG]) as the static exporter
// does, or start [Map.Run] and talk to it from any goroutine through
// [Map.Dispatch], [Map.Snapshot] and [Map.Replace], which hand work to the
// loop and wait for it.
//
// Each loop iteration is one of: a simulation tick followed by a render, a
// pointer event dispatched into the document followed by a render, or a
// command. Because all of them run on the loop goroutine, drag handlers and
// simulation ticks never interleave.
package mapview
