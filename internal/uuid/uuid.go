// Package uuid wraps ID generation behind an interface so tests can mock it.
package uuid

//go:generate mockgen -destination=mocks/mock.go -package=mockuuid -source=uuid.go

import (
	"github.com/google/uuid"
)

// Generator produces unique instance IDs
type Generator interface {
	New() string
}

// GoogleUUIDGenerator implements Generator using google/uuid
type GoogleUUIDGenerator struct{}

// NewGoogleUUIDGenerator creates a new GoogleUUIDGenerator
func NewGoogleUUIDGenerator() *GoogleUUIDGenerator {
	return &GoogleUUIDGenerator{}
}

// New returns a new random UUID string
func (g *GoogleUUIDGenerator) New() string {
	return uuid.New().String()
}
