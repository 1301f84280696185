package credentials

import "strings"

// Vendor enum
type Vendor string

const (
	VendorAWS   Vendor = "aws"
	VendorGCP   Vendor = "gcp"
	VendorAzure Vendor = "azure"
)

// DatastoreID identifies one datastore variant under a vendor
type DatastoreID string

const (
	DatastoreS3        DatastoreID = "aws-s3"
	DatastoreDynamoDB  DatastoreID = "aws-dynamodb"
	DatastoreRDS       DatastoreID = "aws-rds"
	DatastoreGCS       DatastoreID = "gcp-gcs"
	DatastoreBigQuery  DatastoreID = "gcp-bigquery"
	DatastoreAzureBlob DatastoreID = "azure-blob"
	DatastoreCosmosDB  DatastoreID = "azure-cosmosdb"
)

// FieldSpec describes one credential input for a (vendor, datastore) pair.
// Sensitive fields are masked by the console and never logged.
type FieldSpec struct {
	Key       string `json:"key"`
	Label     string `json:"label"`
	Sensitive bool   `json:"sensitive"`
}

// Bundle is the credential key/value set collected for one datastore selection.
type Bundle map[string]string

// Complete reports whether every field in specs has a non-empty value after trimming.
// An empty spec list is vacuously complete.
func (b Bundle) Complete(specs []FieldSpec) bool {
	for _, spec := range specs {
		if strings.TrimSpace(b[spec.Key]) == "" {
			return false
		}
	}
	return true
}

// Trimmed returns a fresh copy with surrounding whitespace stripped from every value.
func (b Bundle) Trimmed() Bundle {
	out := make(Bundle, len(b))
	for k, v := range b {
		out[k] = strings.TrimSpace(v)
	}
	return out
}
