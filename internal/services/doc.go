// Package services holds cross-cutting helpers shared by pipeline stages:
// sentinel error markers with a Wrap helper that attaches stage context, and
// context annotations that carry item and stage identity through external
// service calls.
package services
