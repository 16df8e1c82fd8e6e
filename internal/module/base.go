package module

import (
	"context"
	"image"
)

// BaseModule implements Module with no-ops. Embed it and override what the
// module needs; an overriding Init must call BaseModule.Init.
type BaseModule struct {
	id  string
	res Resources
}

// NewBaseModule creates a BaseModule with the given ID.
func NewBaseModule(id string) BaseModule {
	return BaseModule{id: id}
}

func (b *BaseModule) ID() string {
	return b.id
}

// Init records the allocated resources.
func (b *BaseModule) Init(ctx context.Context, res Resources) error {
	b.res = res
	return nil
}

func (b *BaseModule) Stop() error                                  { return nil }
func (b *BaseModule) RenderKeys() map[KeyID]image.Image            { return nil }
func (b *BaseModule) RenderStrip() image.Image                     { return nil }
func (b *BaseModule) HandleKey(id KeyID, event KeyEvent) error     { return nil }
func (b *BaseModule) HandleDial(id DialID, event DialEvent) error  { return nil }
func (b *BaseModule) HandleStripTouch(event TouchStripEvent) error { return nil }

// Resources returns what Init recorded. It is fixed after Init.
func (b *BaseModule) Resources() Resources {
	return b.res
}
