package credentials

// Static field schema registry: (vendor, datastore) -> ordered credential fields.
// Pure lookup, no I/O. Unknown pairs yield an empty list, which callers treat as
// "no credentials required" rather than an error.

var vendorOrder = []Vendor{VendorAWS, VendorGCP, VendorAzure}

var datastoreOrder = map[Vendor][]DatastoreID{
	VendorAWS:   {DatastoreS3, DatastoreDynamoDB, DatastoreRDS},
	VendorGCP:   {DatastoreGCS, DatastoreBigQuery},
	VendorAzure: {DatastoreAzureBlob, DatastoreCosmosDB},
}

var fieldSchemas = map[DatastoreID][]FieldSpec{
	DatastoreS3: {
		{Key: "AWS_ACCESS_KEY_ID", Label: "Access Key ID", Sensitive: true},
		{Key: "AWS_SECRET_ACCESS_KEY", Label: "Secret Access Key", Sensitive: true},
		{Key: "AWS_REGION", Label: "Region"},
		{Key: "AWS_BUCKET_NAME", Label: "Bucket Name"},
	},
	DatastoreDynamoDB: {
		{Key: "AWS_ACCESS_KEY_ID", Label: "Access Key ID", Sensitive: true},
		{Key: "AWS_SECRET_ACCESS_KEY", Label: "Secret Access Key", Sensitive: true},
		{Key: "AWS_REGION", Label: "Region"},
		{Key: "AWS_TABLE_NAME", Label: "Table Name"},
	},
	DatastoreRDS: {
		{Key: "RDS_HOST", Label: "Host"},
		{Key: "RDS_PORT", Label: "Port"},
		{Key: "RDS_USERNAME", Label: "Username"},
		{Key: "RDS_PASSWORD", Label: "Password", Sensitive: true},
		{Key: "RDS_DATABASE", Label: "Database Name"},
	},
	DatastoreGCS: {
		{Key: "GCP_PROJECT_ID", Label: "Project ID"},
		{Key: "GCP_SERVICE_ACCOUNT_JSON", Label: "Service Account JSON", Sensitive: true},
		{Key: "GCS_BUCKET_NAME", Label: "Bucket Name"},
	},
	DatastoreBigQuery: {
		{Key: "GCP_PROJECT_ID", Label: "Project ID"},
		{Key: "GCP_SERVICE_ACCOUNT_JSON", Label: "Service Account JSON", Sensitive: true},
		{Key: "BQ_DATASET", Label: "Dataset"},
	},
	DatastoreAzureBlob: {
		{Key: "AZURE_STORAGE_ACCOUNT", Label: "Storage Account"},
		{Key: "AZURE_STORAGE_KEY", Label: "Storage Key", Sensitive: true},
		{Key: "AZURE_CONTAINER_NAME", Label: "Container Name"},
	},
	DatastoreCosmosDB: {
		{Key: "COSMOS_ENDPOINT", Label: "Endpoint"},
		{Key: "COSMOS_KEY", Label: "Primary Key", Sensitive: true},
		{Key: "COSMOS_DATABASE", Label: "Database Name"},
	},
}

// bucket-style datastores require their bucket/container identifier to be
// pre-stored on the backend before the generic credential upload.
var bucketFields = map[DatastoreID]string{
	DatastoreS3:        "AWS_BUCKET_NAME",
	DatastoreGCS:       "GCS_BUCKET_NAME",
	DatastoreAzureBlob: "AZURE_CONTAINER_NAME",
}

// Vendors lists the selectable cloud vendors in display order.
func Vendors() []Vendor {
	out := make([]Vendor, len(vendorOrder))
	copy(out, vendorOrder)
	return out
}

// Datastores lists the selectable datastore variants for a vendor in display order.
func Datastores(v Vendor) []DatastoreID {
	src := datastoreOrder[v]
	out := make([]DatastoreID, len(src))
	copy(out, src)
	return out
}

// Fields returns the ordered credential field specs for a (vendor, datastore) pair.
// The datastore must belong to the vendor; otherwise the list is empty.
func Fields(v Vendor, ds DatastoreID) []FieldSpec {
	found := false
	for _, d := range datastoreOrder[v] {
		if d == ds {
			found = true
			break
		}
	}
	if !found {
		return nil
	}
	src := fieldSchemas[ds]
	out := make([]FieldSpec, len(src))
	copy(out, src)
	return out
}

// IsObjectStorage reports whether the datastore is a bucket/container variant.
func IsObjectStorage(ds DatastoreID) bool {
	_, ok := bucketFields[ds]
	return ok
}

// BucketField returns the field key holding the bucket/container name for
// object-storage datastores, or "" for everything else.
func BucketField(ds DatastoreID) string {
	return bucketFields[ds]
}
