package moderation

import (
	"context"
	"errors"
)

// ErrImageRejected marks an input image the screener refused.
var ErrImageRejected = errors.New("image rejected by content screening")

// ImageScreener checks an uploaded person photo before it is stored or sent
// to a generation provider.
type ImageScreener interface {
	Screen(ctx context.Context, data []byte, mimeType string) error
}

// NoopScreener accepts everything; used when no screening backend is
// configured.
type NoopScreener struct{}

func NewNoopScreener() *NoopScreener { return &NoopScreener{} }

func (n *NoopScreener) Screen(ctx context.Context, data []byte, mimeType string) error {
	return nil
}
