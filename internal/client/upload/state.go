package upload

import (
	"fmt"

	"github.com/vanchuong201/joywork-web-sub000/internal/client/models"
)

// Status is the tag of a State.
type Status int

const (
	StatusUploading Status = iota + 1
	StatusUploaded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusUploading:
		return "uploading"
	case StatusUploaded:
		return "uploaded"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// State is the lifecycle state of one unit: Uploading, Uploaded or Failed.
type State interface {
	Status() Status
}

// Uploading is the initial state; the transfer is in flight.
type Uploading struct{}

// Uploaded is reached once storage accepted the payload. Dimensions are
// attached later if the probe succeeds.
type Uploaded struct {
	RemoteKey  string
	RemoteURL  string
	Dimensions *Dimensions
}

// Failed is terminal; the user removes the unit and adds the file again.
type Failed struct {
	Message string
}

type Dimensions struct {
	Width  int
	Height int
}

func (Uploading) Status() Status { return StatusUploading }
func (Uploaded) Status() Status  { return StatusUploaded }
func (Failed) Status() Status    { return StatusFailed }

type event interface {
	isEvent()
}

type uploadSucceeded struct{ object models.RemoteObject }
type uploadFailed struct{ err error }
type dimensionsProbed struct{ width, height int }

func (uploadSucceeded) isEvent()  {}
func (uploadFailed) isEvent()     {}
func (dimensionsProbed) isEvent() {}

// next is the only place states change. Allowed moves:
//
//	Uploading -> Uploaded   (uploadSucceeded)
//	Uploading -> Failed     (uploadFailed)
//	Uploaded  -> Uploaded   (dimensionsProbed, once)
//
// Everything else is ErrInvalidTransition.
func next(from State, ev event) (State, error) {
	switch s := from.(type) {
	case Uploading:
		switch e := ev.(type) {
		case uploadSucceeded:
			return Uploaded{RemoteKey: e.object.Key, RemoteURL: e.object.URL}, nil
		case uploadFailed:
			return Failed{Message: e.err.Error()}, nil
		}
	case Uploaded:
		if e, ok := ev.(dimensionsProbed); ok && s.Dimensions == nil {
			s.Dimensions = &Dimensions{Width: e.width, Height: e.height}
			return s, nil
		}
	case Failed:
	}
	return from, fmt.Errorf("%w: %T in state %s", ErrInvalidTransition, ev, from.Status())
}
