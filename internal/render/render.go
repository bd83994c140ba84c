// Package render defines the surfaces a polling cycle's frame is handed to.
package render

import (
	"context"
	"errors"

	"QuoteBoard/internal/model"
)

// Surface displays frames. Each call replaces what was shown before.
type Surface interface {
	Render(ctx context.Context, frame *model.Frame) error
}

// Multi fans a frame out to several surfaces.
type Multi []Surface

func (m Multi) Render(ctx context.Context, frame *model.Frame) error {
	var errs []error
	for _, s := range m {
		if err := s.Render(ctx, frame); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
