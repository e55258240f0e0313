// Package descriptor reads Gravity Forms descriptors from files, fs.FS
// entries or URLs and decodes them into model.Form values.
//
// Three document shapes are accepted: a single form object, a {"forms": [...]}
// collection and the GraphQL export {"allGfForm": {"edges": [{"node": ...}]}},
// optionally wrapped in a top-level "data" key. YAML documents are converted
// to JSON first.
package descriptor
