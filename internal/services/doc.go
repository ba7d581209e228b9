// Package services holds cross-cutting helpers shared by the pipeline
// components: sentinel error markers with a context-preserving Wrap, and
// context annotation for cinema, run, and request identifiers.
package services
