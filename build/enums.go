package build

//go:generate go tool go-enum --marshal --names

// Point in the build lifecycle hooks are attached to. Stages run in
// declaration order.
// ENUM(optimize-assets, emit)
type Stage int
