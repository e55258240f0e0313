// Package model defines the form descriptors consumed by renderers, the
// validation layer and the submission pipeline. Descriptors mirror the Gravity
// Forms GraphQL schema: a Form owns an ordered list of Fields, each identified
// by a numeric id that maps onto the `input_<id>` name used on the wire.
// Choice based fields (select, multiselect, checkbox, radio) carry their
// options in Choices, which accepts both native JSON arrays and the
// JSON-encoded string the GraphQL schema exposes. Values collects user input
// keyed by input name so HTML form posts, terminal sessions and presets can
// share a single representation.
package model
