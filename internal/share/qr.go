package share

import (
	"context"
	"fmt"
	"io"

	"github.com/mdp/qrterminal/v3"
)

// maxQRBytes is the byte capacity of a version 40 code at level L.
const maxQRBytes = 2953

// QRSharer is the terminal's native share: it prints the text as a QR code
// a phone can scan.
type QRSharer struct {
	W io.Writer
}

// Share renders the payload text as a half-block QR code. A cancelled
// context counts as the user dismissing the share.
func (q QRSharer) Share(ctx context.Context, p Payload) error {
	if ctx.Err() != nil {
		return ErrCancelled
	}
	if q.W == nil {
		return fmt.Errorf("qr share: no terminal")
	}
	if len(p.Text) > maxQRBytes {
		return fmt.Errorf("qr share: text is %d bytes, limit %d", len(p.Text), maxQRBytes)
	}

	if p.Title != "" {
		fmt.Fprintln(q.W, p.Title)
	}
	qrterminal.GenerateHalfBlock(p.Text, qrterminal.L, q.W)
	return nil
}
