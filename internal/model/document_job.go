package model

// DocumentJob asks for a stored document to be extracted and chunked.
type DocumentJob struct {
	DocumentID  string `json:"document_id" binding:"required"`
	SubjectID   string `json:"subject_id" binding:"required"`
	StoragePath string `json:"storage_path" binding:"required"`
	Filename    string `json:"filename" binding:"required"`
}
