package models

import "time"

// PostRecord is the history entry stored for every generated post
type PostRecord struct {
	ID           string    `bson:"_id" json:"id"`
	SourceURL    string    `bson:"source_url" json:"source_url"`
	Domain       string    `bson:"domain" json:"domain"`
	EffectiveURL string    `bson:"effective_url,omitempty" json:"effective_url,omitempty"`
	QRURL        string    `bson:"qr_url" json:"qr_url"`
	Price        string    `bson:"price,omitempty" json:"price,omitempty"`
	Strategy     string    `bson:"strategy" json:"strategy"`
	OutputPath   string    `bson:"output_path" json:"output_path"`
	S3Key        string    `bson:"s3_key,omitempty" json:"s3_key,omitempty"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}

// FailedListing pairs a URL with the reason it could not be posted
type FailedListing struct {
	URL string
	Err error
}

// BatchReport summarises one batch run.
type BatchReport struct {
	Total     int
	Succeeded []string
	Outputs   []string
	Failed    []FailedListing
}

// ExitCode is 0 only when every listing succeeded.
func (b *BatchReport) ExitCode() int {
	if len(b.Failed) > 0 || b.Total == 0 {
		return 1
	}
	return 0
}
