package sm

import (
	"github.com/Inovesa/inovesa/device"
	"github.com/Inovesa/inovesa/mesh"
)

// Identity copies the input mesh to the output mesh unchanged. It stands
// in for disabled stages so the ping-pong buffer cycle stays intact.
type Identity struct {
	*SourceMap
}

// NewIdentity builds the trivial one-point stencil.
func NewIdentity(ctx *device.Context, in, out *mesh.PhaseSpace) *Identity {
	id := &Identity{newSourceMap(ctx, in, out, 1, false)}
	for i := 0; i < id.size; i++ {
		id.stencil[i] = hi{int32(i), 1}
	}
	return id
}

// ApplyTo leaves a tracked particle unchanged.
func (id *Identity) ApplyTo(pos mesh.Position) mesh.Position { return pos }
