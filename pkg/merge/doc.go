// Package merge combines the fragments of one fragment directory into the
// content of its target file.
//
// The strategy is picked from the target's extension:
//
//	text  plain concatenation with a separator (the default)
//	json  JSONC fragments folded with RFC 7396 merge patch
//	yaml  YAML fragments folded with RFC 7396 merge patch
//	toml  TOML fragments folded with RFC 7396 merge patch
//	xml   children of each fragment's root appended to the first document
//
// Every strategy is deterministic: the same inputs always produce the same
// bytes.
package merge
