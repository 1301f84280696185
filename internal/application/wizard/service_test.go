package wizard

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/dspm-console/internal/domain/credentials"
)

type fakeUploader struct {
	mu            sync.Mutex
	storeCalls    int
	uploadCalls   int
	gotBucket     string
	gotProvider   string
	gotBundle     domain.Bundle
	storeErr      error
	uploadErr     error
	uploadFileURL string
}

func (f *fakeUploader) StoreBucketName(_ context.Context, bucket string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.storeCalls++
	f.gotBucket = bucket
	return f.storeErr
}

func (f *fakeUploader) UploadBundle(_ context.Context, provider string, bundle domain.Bundle) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploadCalls++
	f.gotProvider = provider
	f.gotBundle = bundle
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	return f.uploadFileURL, nil
}

func openAtFields(t *testing.T, svc *Service, v domain.Vendor, ds domain.DatastoreID) string {
	t.Helper()
	sess := svc.Open()
	_, err := svc.SelectVendor(sess.ID, v)
	require.NoError(t, err)
	_, err = svc.SelectDatastore(sess.ID, ds)
	require.NoError(t, err)
	return sess.ID
}

func fillS3(t *testing.T, svc *Service, id, bucket string) {
	t.Helper()
	for key, value := range map[string]string{
		"AWS_ACCESS_KEY_ID":     "AKIAEXAMPLE",
		"AWS_SECRET_ACCESS_KEY": "secret",
		"AWS_REGION":            "us-east-1",
		"AWS_BUCKET_NAME":       bucket,
	} {
		_, err := svc.SetField(id, key, value)
		require.NoError(t, err)
	}
}

func TestSubmitObjectStoragePreStoresBucket(t *testing.T) {
	up := &fakeUploader{uploadFileURL: "http://backend/files/creds.json"}
	svc := NewService(up)

	id := openAtFields(t, svc, domain.VendorAWS, domain.DatastoreS3)
	fillS3(t, svc, id, "my-bucket")

	completion, err := svc.Submit(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, 1, up.storeCalls, "exactly one pre-store call")
	assert.Equal(t, "my-bucket", up.gotBucket)
	assert.Equal(t, 1, up.uploadCalls, "exactly one upload call")
	assert.Equal(t, "aws-s3", up.gotProvider)

	assert.Equal(t, "aws-s3", completion.DatastoreID)
	assert.Equal(t, "my-bucket", completion.Credentials["AWS_BUCKET_NAME"])
	assert.Equal(t, "http://backend/files/creds.json", completion.FileURL)

	_, err = svc.Get(id)
	assert.ErrorIs(t, err, ErrSessionNotFound, "session closes on success")
}

func TestSubmitNonBucketSkipsPreStore(t *testing.T) {
	up := &fakeUploader{}
	svc := NewService(up)

	id := openAtFields(t, svc, domain.VendorAWS, domain.DatastoreRDS)
	for _, spec := range domain.Fields(domain.VendorAWS, domain.DatastoreRDS) {
		_, err := svc.SetField(id, spec.Key, "value")
		require.NoError(t, err)
	}

	_, err := svc.Submit(context.Background(), id)
	require.NoError(t, err)
	assert.Zero(t, up.storeCalls)
	assert.Equal(t, 1, up.uploadCalls)
}

func TestSubmitIncompleteIsNoOp(t *testing.T) {
	up := &fakeUploader{}
	svc := NewService(up)

	id := openAtFields(t, svc, domain.VendorAWS, domain.DatastoreS3)
	_, err := svc.SetField(id, "AWS_BUCKET_NAME", "my-bucket")
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrIncompleteBundle)
	assert.Zero(t, up.storeCalls, "nothing goes to the network")
	assert.Zero(t, up.uploadCalls)

	sess, err := svc.Get(id)
	require.NoError(t, err)
	assert.Equal(t, StepEnterFields, sess.Step)

	ok, err := svc.CanSubmit(id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSubmitWhitespaceOnlyFieldBlocked(t *testing.T) {
	up := &fakeUploader{}
	svc := NewService(up)

	id := openAtFields(t, svc, domain.VendorAWS, domain.DatastoreS3)
	fillS3(t, svc, id, "   ")

	_, err := svc.Submit(context.Background(), id)
	assert.ErrorIs(t, err, domain.ErrIncompleteBundle)
	assert.Zero(t, up.uploadCalls)
}

func TestSubmitPreStoreFailureKeepsInput(t *testing.T) {
	up := &fakeUploader{storeErr: errors.New("backend down")}
	svc := NewService(up)

	id := openAtFields(t, svc, domain.VendorAWS, domain.DatastoreS3)
	fillS3(t, svc, id, "my-bucket")

	_, err := svc.Submit(context.Background(), id)
	require.Error(t, err)
	assert.Zero(t, up.uploadCalls, "upload must not fire after pre-store failure")

	sess, err := svc.Get(id)
	require.NoError(t, err)
	assert.Equal(t, StepEnterFields, sess.Step)
	assert.Equal(t, "my-bucket", sess.Bundle["AWS_BUCKET_NAME"], "typed input retained")
}

func TestSubmitUploadFailureReturnsToForm(t *testing.T) {
	up := &fakeUploader{uploadErr: errors.New("503")}
	svc := NewService(up)

	id := openAtFields(t, svc, domain.VendorAWS, domain.DatastoreS3)
	fillS3(t, svc, id, "my-bucket")

	_, err := svc.Submit(context.Background(), id)
	require.Error(t, err)

	sess, gerr := svc.Get(id)
	require.NoError(t, gerr)
	assert.Equal(t, StepEnterFields, sess.Step)
	assert.Equal(t, "secret", sess.Bundle["AWS_SECRET_ACCESS_KEY"])
}

func TestBackClearsStepBeingLeft(t *testing.T) {
	svc := NewService(&fakeUploader{})

	id := openAtFields(t, svc, domain.VendorAWS, domain.DatastoreS3)
	_, err := svc.SetField(id, "AWS_BUCKET_NAME", "my-bucket")
	require.NoError(t, err)

	sess, err := svc.Back(id)
	require.NoError(t, err)
	assert.Equal(t, StepSelectDatastore, sess.Step)
	assert.Empty(t, sess.Bundle)
	assert.Empty(t, sess.Datastore)

	sess, err = svc.Back(id)
	require.NoError(t, err)
	assert.Equal(t, StepSelectVendor, sess.Step)
	assert.Empty(t, sess.Vendor)

	_, err = svc.Back(id)
	assert.ErrorIs(t, err, ErrWrongStep)
}

func TestBranchChangeStartsFreshBundle(t *testing.T) {
	svc := NewService(&fakeUploader{})

	id := openAtFields(t, svc, domain.VendorAWS, domain.DatastoreS3)
	_, err := svc.SetField(id, "AWS_BUCKET_NAME", "my-bucket")
	require.NoError(t, err)

	_, err = svc.Back(id)
	require.NoError(t, err)
	sess, err := svc.SelectDatastore(id, domain.DatastoreDynamoDB)
	require.NoError(t, err)

	assert.Empty(t, sess.Bundle, "no carry-over across branch changes")
	assert.Len(t, sess.Specs, len(domain.Fields(domain.VendorAWS, domain.DatastoreDynamoDB)))
}

func TestUnknownPairVacuouslyComplete(t *testing.T) {
	up := &fakeUploader{}
	svc := NewService(up)

	// datastore outside the vendor's list: empty spec list, not an error
	id := openAtFields(t, svc, domain.VendorAWS, domain.DatastoreID("aws-glacier"))

	ok, err := svc.CanSubmit(id)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.Submit(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 1, up.uploadCalls)
}

func TestSetFieldRejectsUnknownKey(t *testing.T) {
	svc := NewService(&fakeUploader{})
	id := openAtFields(t, svc, domain.VendorAWS, domain.DatastoreS3)

	_, err := svc.SetField(id, "NOT_A_FIELD", "x")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestCancelFromAnyStep(t *testing.T) {
	svc := NewService(&fakeUploader{})

	id := openAtFields(t, svc, domain.VendorAWS, domain.DatastoreS3)
	require.NoError(t, svc.Cancel(id))

	_, err := svc.Get(id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, svc.Cancel(id), ErrSessionNotFound)
}

func TestVendorSelectionGuards(t *testing.T) {
	svc := NewService(&fakeUploader{})
	sess := svc.Open()

	_, err := svc.SelectVendor(sess.ID, domain.Vendor("oracle"))
	assert.ErrorIs(t, err, ErrUnknownVendor)

	_, err = svc.SelectDatastore(sess.ID, domain.DatastoreS3)
	assert.ErrorIs(t, err, ErrWrongStep, "datastore pick before vendor pick")
}
