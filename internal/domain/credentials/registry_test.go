package credentials

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldsNonEmptyForEveryReachablePair(t *testing.T) {
	for _, v := range Vendors() {
		datastores := Datastores(v)
		require.NotEmpty(t, datastores, "vendor %s has no datastores", v)
		for _, ds := range datastores {
			specs := Fields(v, ds)
			assert.NotEmpty(t, specs, "pair (%s, %s) has no field specs", v, ds)
			for _, spec := range specs {
				assert.NotEmpty(t, spec.Key)
				assert.NotEmpty(t, spec.Label)
			}
		}
	}
}

func TestFieldsDeterministic(t *testing.T) {
	first := Fields(VendorAWS, DatastoreS3)
	second := Fields(VendorAWS, DatastoreS3)
	assert.Equal(t, first, second)

	// returned slice is a copy; mutating it must not poison the registry
	first[0].Key = "MUTATED"
	assert.NotEqual(t, first[0].Key, Fields(VendorAWS, DatastoreS3)[0].Key)
}

func TestFieldsUnknownPairEmpty(t *testing.T) {
	assert.Empty(t, Fields(VendorAWS, DatastoreGCS), "datastore from another vendor")
	assert.Empty(t, Fields(Vendor("oracle"), DatastoreS3))
	assert.Empty(t, Fields(VendorGCP, DatastoreID("gcp-spanner")))
}

func TestBucketFieldOnlyForObjectStorage(t *testing.T) {
	assert.True(t, IsObjectStorage(DatastoreS3))
	assert.True(t, IsObjectStorage(DatastoreGCS))
	assert.True(t, IsObjectStorage(DatastoreAzureBlob))
	assert.False(t, IsObjectStorage(DatastoreRDS))
	assert.False(t, IsObjectStorage(DatastoreDynamoDB))

	assert.Equal(t, "AWS_BUCKET_NAME", BucketField(DatastoreS3))
	assert.Equal(t, "", BucketField(DatastoreCosmosDB))
}

func TestBundleComplete(t *testing.T) {
	specs := []FieldSpec{
		{Key: "A", Label: "a"},
		{Key: "B", Label: "b"},
	}

	cases := []struct {
		name   string
		bundle Bundle
		want   bool
	}{
		{"all filled", Bundle{"A": "x", "B": "y"}, true},
		{"missing key", Bundle{"A": "x"}, false},
		{"whitespace only", Bundle{"A": "x", "B": "   "}, false},
		{"padded value counts", Bundle{"A": " x ", "B": "y"}, true},
		{"empty specs vacuously complete", Bundle{}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := specs
			if tc.name == "empty specs vacuously complete" {
				s = nil
			}
			assert.Equal(t, tc.want, tc.bundle.Complete(s))
		})
	}
}

func TestBundleTrimmed(t *testing.T) {
	b := Bundle{"A": "  x  ", "B": "y"}
	trimmed := b.Trimmed()
	assert.Equal(t, "x", trimmed["A"])
	assert.Equal(t, "y", trimmed["B"])
	assert.Equal(t, "  x  ", b["A"], "original must stay untouched")
}
