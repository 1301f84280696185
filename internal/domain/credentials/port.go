package credentials

import "context"

// Uploader port (interface to the backend credential endpoints)
type Uploader interface {
	// StoreBucketName persists the object-storage bucket identifier before the
	// generic upload is issued.
	StoreBucketName(ctx context.Context, bucket string) error

	// UploadBundle persists the full credential bundle for a datastore and
	// returns the backend's file/reference URL.
	UploadBundle(ctx context.Context, provider string, bundle Bundle) (string, error)
}
