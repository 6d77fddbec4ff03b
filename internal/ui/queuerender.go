// This file implements an ASCII/ANSI renderer for the consideration
// queue: one row of node boxes per layer, connected top to bottom in
// consideration order.
package ui

import (
	"fmt"
	"strings"

	"github.com/papapumpkin/synapse/internal/ansi"
	"github.com/papapumpkin/synapse/internal/graph"
)

// QueueRenderer produces an ASCII visualization of the consideration
// queue. Layers are rows; mechanisms within a layer are rendered side by
// side, since they are considered in the same time step.
type QueueRenderer struct {
	// UseColor controls whether ANSI escape codes are emitted.
	UseColor bool
}

// Render draws the consideration queue.
func (r *QueueRenderer) Render(layers [][]string) string {
	if len(layers) == 0 {
		return ""
	}

	var sb strings.Builder
	for i, layer := range layers {
		if i > 0 {
			sb.WriteString(r.dim("        │\n"))
			sb.WriteString(r.dim("        ▼\n"))
		}
		sb.WriteString(r.dim(fmt.Sprintf("layer %d ", i)))
		for j, id := range layer {
			if j > 0 {
				sb.WriteString("  ")
			}
			sb.WriteString(r.box(id))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// RenderSubnetworks summarizes the independent subnetworks of a graph.
func (r *QueueRenderer) RenderSubnetworks(subnets []graph.Subnetwork) string {
	if len(subnets) <= 1 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(r.dim(fmt.Sprintf("%d independent subnetworks\n", len(subnets))))
	for _, sn := range subnets {
		sb.WriteString(fmt.Sprintf("  %s %s\n",
			r.dim(fmt.Sprintf("#%d", sn.ID)),
			strings.Join(sn.NodeIDs, " ")))
	}
	return sb.String()
}

func (r *QueueRenderer) box(id string) string {
	if !r.UseColor {
		return "[" + id + "]"
	}
	return ansi.Paint("[", ansi.Dim) + ansi.Paint(id, ansi.Blue, ansi.Bold) + ansi.Paint("]", ansi.Dim)
}

func (r *QueueRenderer) dim(s string) string {
	if !r.UseColor {
		return s
	}
	return ansi.Paint(s, ansi.Dim)
}
