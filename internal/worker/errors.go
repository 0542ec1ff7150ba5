package worker

import "errors"

// ErrContentMissing marks a post whose referenced blog does not exist.
// Retrying cannot fix it, so the post goes straight to failed.
var ErrContentMissing = errors.New("referenced blog content is missing")
