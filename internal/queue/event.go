// Package queue defines message payloads exchanged over the message broker
// and the RabbitMQ publisher/consumer pair that carries them.
package queue

// Recipe event types.
const (
	EventRecipeCreated = "recipe.created"
	EventRecipeUpdated = "recipe.updated"
	EventRecipeDeleted = "recipe.deleted"
)

// RecipeEvent is published after a recipe write succeeds.  It carries
// enough for an audit trail without the picture payload.
type RecipeEvent struct {
	Type       string `json:"type"`
	RecipeID   string `json:"recipe_id"`
	OwnerID    string `json:"owner_id"`
	Name       string `json:"name,omitempty"`
	OccurredAt string `json:"occurred_at"`
}
