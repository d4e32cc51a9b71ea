package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// VariableDefinition declares a variable and its ordered states.
type VariableDefinition struct {
	Name   string   `json:"name" yaml:"name"`
	States []string `json:"states" yaml:"states"`
}

// ArcDefinition declares a parent -> child dependency.
type ArcDefinition struct {
	Parent string `json:"parent" yaml:"parent"`
	Child  string `json:"child" yaml:"child"`
}

// TableDefinition is one row of a conditional probability table: the
// distribution of Variable when its parents are in the Given states.
// Given is empty for a prior.
type TableDefinition struct {
	Variable     string            `json:"variable" yaml:"variable"`
	Given        map[string]string `json:"given,omitempty" yaml:"given,omitempty"`
	Distribution []float64         `json:"distribution" yaml:"distribution,flow"`
}

// NetworkDefinition is the serializable form of a Bayesian network. Arc
// order is significant: it fixes each child's parent order.
type NetworkDefinition struct {
	Variables []VariableDefinition `json:"variables" yaml:"variables"`
	Arcs      []ArcDefinition      `json:"arcs" yaml:"arcs"`
	Tables    []TableDefinition    `json:"tables" yaml:"tables"`
}

type Network struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Definition  NetworkDefinition `json:"definition"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// Session is the externally visible state of an evidence session.
type Session struct {
	ID             uuid.UUID         `json:"id"`
	NetworkID      uuid.UUID         `json:"network_id"`
	Evidence       map[string]string `json:"evidence"`
	CreatedAt      time.Time         `json:"created_at"`
	LastActivityAt time.Time         `json:"last_activity_at"`
}

type NetworkStore interface {
	Create(ctx context.Context, n *Network) error
	GetByID(ctx context.Context, id uuid.UUID) (*Network, error)
	GetByName(ctx context.Context, name string) (*Network, error)
	List(ctx context.Context, limit int) ([]Network, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
