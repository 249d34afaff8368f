// Package autosave persists a finished capture: the blob is uploaded
// through the artifact gateway and then entered in the catalog.
//
// A failure keeps enough state to resume. After UPLOAD_FAILED the blob is
// kept and Retry uploads it again. After SIGNED_URL_FAILED the object is
// already stored, so Retry only signs it again.
package autosave
