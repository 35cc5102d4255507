// Package export serializes a template model into target payloads.
//
// Exporters are pure functions over an already-built model:
//
//   - Classic: Petri net as S/T/I/O lists with 1-based integer handles
//   - PetriNet: schema Petri net with rate expressions and MathML
//   - StockFlow: stock-and-flow JSON with flows, auxiliaries and links
//
// Exporters never import. Concept handles follow the model's template
// insertion order and stay stable for the lifetime of one export call.
package export
