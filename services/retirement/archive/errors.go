// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package archive

import "errors"

var (
	// ErrFetching indicates the ledger query for archivable rows failed.
	ErrFetching = errors.New("failed to fetch learners to archive")

	// ErrArchiving indicates the upload to object storage failed. No
	// rows are deleted when this is returned.
	ErrArchiving = errors.New("failed to archive learners")

	// ErrDeleting indicates the post-upload bulk delete failed. The
	// archive object was already written.
	ErrDeleting = errors.New("failed to delete archived learners")
)
