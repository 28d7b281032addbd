package engine

import "github.com/google/uuid"

// UUIDv7Generator issues time-ordered flow tokens. Log lines of actions
// submitted one after another sort the same way.
type UUIDv7Generator struct{}

func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// StaticGenerator hands out the same token for every action. Scenario runs
// use it so traces compare byte for byte.
type StaticGenerator string

func (g StaticGenerator) Generate() string {
	return string(g)
}
