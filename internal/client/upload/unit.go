package upload

import (
	"context"

	"github.com/vanchuong201/joywork-web-sub000/internal/client/models"
	"github.com/vanchuong201/joywork-web-sub000/internal/client/preview"
)

// Unit is one attachment tracked by a Queue. The id, file, content type and
// preview never change after creation; state and cancel are guarded by the
// owning queue's mutex.
type Unit struct {
	id          string
	file        models.LocalFile
	contentType string
	preview     *preview.Handle

	state  State
	cancel context.CancelFunc
}

// UnitView is a read-only snapshot of a unit for presentation.
type UnitView struct {
	ID          string
	Name        string
	Size        int64
	ContentType string
	PreviewURI  string
	State       State
}

func (u *Unit) view() UnitView {
	return UnitView{
		ID:          u.id,
		Name:        u.file.Name(),
		Size:        u.file.Size(),
		ContentType: u.contentType,
		PreviewURI:  u.preview.URI(),
		State:       u.state,
	}
}

// release revokes the preview and aborts any in-flight transfer.
func (u *Unit) release() {
	if u.cancel != nil {
		u.cancel()
	}
	u.preview.Release()
}
