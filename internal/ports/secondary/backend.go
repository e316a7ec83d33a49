package secondary

import (
	"context"

	"github.com/example/controlcard/internal/core/finalize"
	"github.com/example/controlcard/internal/core/redeem"
)

// Submitter sends a finalized card snapshot to the backend.
// A nil error means the backend acknowledged the submission.
type Submitter interface {
	Submit(ctx context.Context, payload finalize.Payload) error
}

// Redeemer exchanges an entry code for card data.
type Redeemer interface {
	Redeem(ctx context.Context, code string) (*redeem.Redemption, error)
}

// ScanSource is the camera/QR capability. Each call to Next blocks until one
// payload has been decoded, the source fails, or ctx is done.
// io.EOF signals that the source is exhausted.
type ScanSource interface {
	Next(ctx context.Context) (string, error)
}
