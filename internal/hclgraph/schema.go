package hclgraph

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// fileRoot decodes all top-level blocks of a file.
type fileRoot struct {
	Graphs []*graphBlock `hcl:"graph,block"`
	Values []*valueBlock `hcl:"value,block"`
	Refs   []*refBlock   `hcl:"ref,block"`
	Calls  []*callBlock  `hcl:"call,block"`
}

type graphBlock struct {
	ID    string `hcl:"id,label"`
	Out   string `hcl:"out"`
	Watch string `hcl:"watch,optional"`
}

type valueBlock struct {
	Name  string    `hcl:"name,label"`
	Value cty.Value `hcl:"value"`
	UUID  string    `hcl:"uuid,optional"`
}

type refBlock struct {
	Name string `hcl:"name,label"`
	Ref  string `hcl:"ref"`
	UUID string `hcl:"uuid,optional"`
}

type callBlock struct {
	Name string         `hcl:"name,label"`
	Fn   string         `hcl:"fn"`
	Args hcl.Expression `hcl:"args,optional"`
	UUID string         `hcl:"uuid,optional"`
}
