// Package render defines the render-surface capability contract: the opaque
// pagination engine that displays book content and reports location and
// content-ready events. The session controller depends only on these types,
// so any engine satisfying the contract is substitutable.
package render

import "context"

// Location is a settled reading position reported by the surface.
type Location struct {
	// Token is an opaque, surface-defined reference to the position. It is
	// persisted verbatim and passed back to request resume navigation.
	Token string `json:"token"`

	// Fraction is reading progress in [0, 1].
	Fraction float64 `json:"fraction"`

	// Href is the content path of the fragment containing the position.
	Href string `json:"href"`
}

// Event is a surface-emitted event. The concrete types are ContentReady,
// Relocated and Fault.
type Event interface {
	isEvent()
}

// ContentReady announces a newly rendered content document, one per
// displayed fragment. Interactive behavior must be injected per occurrence.
type ContentReady struct {
	Doc *Document
}

// Relocated reports a page settle.
type Relocated struct {
	Location Location
}

// Fault reports a fatal internal surface error. The session surfaces a
// "reader unavailable" state and does not reopen automatically.
type Fault struct {
	Err error
}

func (ContentReady) isEvent() {}
func (Relocated) isEvent()    {}
func (Fault) isEvent()        {}

// ManifestItem is one entry of the surface's ordered content list.
type ManifestItem struct {
	Path string
}

// Surface is the pagination/rendering capability.
type Surface interface {
	// Navigate displays the given target: an empty string for the start of
	// the book, a location token, or a content href. It fails when the
	// target cannot be displayed as given; callers run the fallback chain.
	Navigate(ctx context.Context, target string) error

	// Next and Previous move one fragment in reading order.
	Next(ctx context.Context) error
	Previous(ctx context.Context) error

	// Resize recalculates the layout for new viewport dimensions.
	Resize(width, height int)

	// Manifest returns the ordered content list.
	Manifest() []ManifestItem

	// Events delivers surface events in emission order. The channel is
	// closed by Destroy.
	Events() <-chan Event

	// Destroy releases the surface. Idempotent.
	Destroy()
}
