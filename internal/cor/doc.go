// Package cor holds the Change Order Request record and its closed status and
// priority sets.
package cor
