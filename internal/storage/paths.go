package storage

import (
	"path"
	"strings"
)

// Key layout inside the bucket:
//
//	temp/{kind}/{file}                  staging, before the owning project is approved
//	updates/{projectID}/{kind}/{file}   draft staging, edits against a published project
//	projects/{projectID}/{kind}/{file}  permanent, scoped to an approved project
const (
	stagingRoot      = "temp"
	draftStagingRoot = "updates"
	permanentRoot    = "projects"
)

// StagingKey builds the pre-approval location for an uploaded file.
func StagingKey(kind, fileName string) string {
	return path.Join(stagingRoot, kind, fileName)
}

// DraftStagingKey builds the location for a file proposed against an
// already-published project.
func DraftStagingKey(projectID, kind, fileName string) string {
	return path.Join(draftStagingRoot, projectID, kind, fileName)
}

// PermanentKey builds the durable location for an approved project's file.
func PermanentKey(projectID, kind, fileName string) string {
	return path.Join(permanentRoot, projectID, kind, fileName)
}

// IsStaging reports whether the key lives in the pre-approval staging area.
func IsStaging(key string) bool {
	return strings.HasPrefix(key, stagingRoot+"/")
}

// IsDraftStaging reports whether the key lives in the draft staging area.
func IsDraftStaging(key string) bool {
	return strings.HasPrefix(key, draftStagingRoot+"/")
}

// IsPermanent reports whether the key lives under an approved project.
func IsPermanent(key string) bool {
	return strings.HasPrefix(key, permanentRoot+"/")
}
