// Package metamodel defines the canonical intermediate representation
// for mechanistic models.
//
// The core types mirror the translation pipeline:
//
//   - [Concept]: a named entity with ontology identifiers and context
//   - [Template]: a typed transition over concepts, one of nine
//     variants (production/degradation/conversion, natural/controlled/
//     grouped-controlled)
//   - [TemplateModel]: the aggregate of templates, parameters,
//     initials and model annotations
//
// Importers build TemplateModels; exporters consume them. Templates
// are immutable after construction: rewrite passes such as
// [TemplateModel.EliminateConstantConcepts] produce new instances.
package metamodel
