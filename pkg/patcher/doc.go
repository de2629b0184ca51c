// Package patcher ties discovery, path mapping and merging together.
//
// Plan computes every target's merged content without touching the
// filesystem. Apply commits a plan: unchanged targets are left alone and
// changed ones are replaced atomically through a temp file and a rename.
// Every path-mapping problem is reported by Plan, so a bad source tree
// never causes a partial write.
package patcher
