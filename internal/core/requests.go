package core

import (
	"github.com/vk/patchbay/internal/node"
	"github.com/vk/patchbay/internal/value"
)

// Request is a message handled by the control loop. The concrete types
// below are the complete set.
type Request interface {
	Kind() string
}

type CreateNode struct {
	Graph    int           `json:"graph" validate:"gte=0"`
	Package  string        `json:"package" validate:"required"`
	Schema   string        `json:"schema" validate:"required"`
	Position node.Position `json:"position"`
}

type DeleteNode struct {
	Graph int `json:"graph" validate:"gte=0"`
	Node  int `json:"node" validate:"gte=0"`
}

type ConnectIO struct {
	Graph      int    `json:"graph" validate:"gte=0"`
	OutputNode int    `json:"outputNode"`
	Output     string `json:"output" validate:"required"`
	InputNode  int    `json:"inputNode"`
	Input      string `json:"input" validate:"required"`
}

type DisconnectIO struct {
	Graph   int    `json:"graph" validate:"gte=0"`
	Node    int    `json:"node"`
	IO      string `json:"io" validate:"required"`
	IsInput bool   `json:"isInput"`
}

type SetDefaultValue struct {
	Graph int         `json:"graph" validate:"gte=0"`
	Node  int         `json:"node"`
	Input string      `json:"input" validate:"required"`
	Value value.Value `json:"value"`
}

type SetNodePosition struct {
	Graph    int           `json:"graph" validate:"gte=0"`
	Node     int           `json:"node"`
	Position node.Position `json:"position"`
}

type GetPackages struct{}

type GetProject struct{}

type Reset struct {
	Graph int `json:"graph" validate:"gte=0"`
}

type CreateGraph struct {
	Name string `json:"name,omitempty" validate:"omitempty,max=128"`
}

type RenameGraph struct {
	ID   int    `json:"id" validate:"gte=0"`
	Name string `json:"name" validate:"required,max=128"`
}

type DeleteGraph struct {
	ID int `json:"id" validate:"gte=0"`
}

func (CreateNode) Kind() string      { return "CreateNode" }
func (DeleteNode) Kind() string      { return "DeleteNode" }
func (ConnectIO) Kind() string       { return "ConnectIO" }
func (DisconnectIO) Kind() string    { return "DisconnectIO" }
func (SetDefaultValue) Kind() string { return "SetDefaultValue" }
func (SetNodePosition) Kind() string { return "SetNodePosition" }
func (GetPackages) Kind() string     { return "GetPackages" }
func (GetProject) Kind() string      { return "GetProject" }
func (Reset) Kind() string           { return "Reset" }
func (CreateGraph) Kind() string     { return "CreateGraph" }
func (RenameGraph) Kind() string     { return "RenameGraph" }
func (DeleteGraph) Kind() string     { return "DeleteGraph" }
