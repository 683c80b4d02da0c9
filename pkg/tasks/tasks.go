// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

// DocumentIndexTask represents the data structure for a document indexing job.
type DocumentIndexTask struct {
	DocumentID uint   `json:"document_id"`
	Filename   string `json:"filename"`
	UserID     uint   `json:"user_id"`
}
