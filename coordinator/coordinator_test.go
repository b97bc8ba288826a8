package coordinator_test

import (
	"context"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/tangramvision/datasetxfer/coordinator"
	mockcoordinator "github.com/tangramvision/datasetxfer/coordinator/mock"
	"github.com/tangramvision/datasetxfer/metadata"
	"github.com/tangramvision/datasetxfer/xferr"
)

// noopSink is a progress.Sink that discards every update, standing in for a
// real *progress.Reporter bar wherever a test doesn't care about progress
// output.
type noopSink struct{}

func (noopSink) Add(int64) {}

func writeTempFile(dir, name string, size int) string {
	path := filepath.Join(dir, name)
	Expect(os.WriteFile(path, make([]byte, size), 0o600)).To(Succeed())
	return path
}

var _ = Describe("Coordinator.UploadDataset", func() {
	var (
		ctrl                          *gomock.Controller
		meta                          *mockcoordinator.MockMetadataClient
		engine                        *mockcoordinator.MockTransferEngine
		reporter                      *mockcoordinator.MockProgressReporter
		tmpDir                        string
		datasetID                     uuid.UUID
		plexFileID, objectSpaceFileID uuid.UUID
		plexPath, objectSpacePath     string
	)

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		meta = mockcoordinator.NewMockMetadataClient(ctrl)
		engine = mockcoordinator.NewMockTransferEngine(ctrl)
		reporter = mockcoordinator.NewMockProgressReporter(ctrl)
		reporter.EXPECT().NewBar(gomock.Any(), gomock.Any()).Return(noopSink{}).AnyTimes()

		var err error
		tmpDir, err = os.MkdirTemp("", "coordinator-test-*")
		Expect(err).NotTo(HaveOccurred())

		plexPath = writeTempFile(tmpDir, "plex.bin", 10)
		objectSpacePath = writeTempFile(tmpDir, "objectspace.csv", 20)

		datasetID = uuid.New()
		plexFileID = uuid.New()
		objectSpaceFileID = uuid.New()
	})

	AfterEach(func() {
		ctrl.Finish()
		os.RemoveAll(tmpDir)
	})

	It("creates the dataset, registers every file, and notifies complete with the right roles (S1)", func() {
		meta.EXPECT().CreateDataset(gomock.Any(), "robot-1", gomock.Any()).
			Return(&metadata.Dataset{DatasetID: datasetID}, nil)

		engine.EXPECT().UploadFile(gomock.Any(), plexPath, gomock.Any(), gomock.Any()).
			Return("https://bucket.s3.us-west-1.amazonaws.com/plex", "v-plex", nil)
		engine.EXPECT().UploadFile(gomock.Any(), objectSpacePath, gomock.Any(), gomock.Any()).
			Return("https://bucket.s3.us-west-1.amazonaws.com/objectspace", "v-objectspace", nil)

		meta.EXPECT().RegisterFile(gomock.Any(), datasetID, "https://bucket.s3.us-west-1.amazonaws.com/plex", int64(10), "v-plex", gomock.Any()).
			Return(&metadata.UploadedFile{FileID: plexFileID}, nil)
		meta.EXPECT().RegisterFile(gomock.Any(), datasetID, "https://bucket.s3.us-west-1.amazonaws.com/objectspace", int64(20), "v-objectspace", gomock.Any()).
			Return(&metadata.UploadedFile{FileID: objectSpaceFileID}, nil)

		meta.EXPECT().NotifyComplete(gomock.Any(), datasetID, plexFileID, objectSpaceFileID).Return(nil)

		coord := coordinator.New(logr.Discard(), meta, engine, reporter)
		gotDatasetID, err := coord.UploadDataset(context.Background(), "robot-1", uuid.New(), []string{plexPath, objectSpacePath})

		Expect(err).NotTo(HaveOccurred())
		Expect(gotDatasetID).To(Equal(datasetID))
	})

	It("never calls NotifyComplete when a file transfer fails (fail-fast abort path)", func() {
		meta.EXPECT().CreateDataset(gomock.Any(), "robot-1", gomock.Any()).
			Return(&metadata.Dataset{DatasetID: datasetID}, nil)

		engine.EXPECT().UploadFile(gomock.Any(), plexPath, gomock.Any(), gomock.Any()).
			Return("", "", xferr.New(xferr.ObjectStoreTransient, "connection reset"))
		engine.EXPECT().UploadFile(gomock.Any(), objectSpacePath, gomock.Any(), gomock.Any()).
			Return("https://bucket.s3.us-west-1.amazonaws.com/objectspace", "v-objectspace", nil).AnyTimes()
		meta.EXPECT().RegisterFile(gomock.Any(), datasetID, "https://bucket.s3.us-west-1.amazonaws.com/objectspace", gomock.Any(), gomock.Any(), gomock.Any()).
			Return(&metadata.UploadedFile{FileID: objectSpaceFileID}, nil).AnyTimes()
		// No NotifyComplete expectation is set up: gomock's strict
		// controller fails the test if UploadDataset calls it anyway,
		// which is exactly the guarantee this test is after.

		coord := coordinator.New(logr.Discard(), meta, engine, reporter, coordinator.WithMaxFilesConcurrently(1))
		_, err := coord.UploadDataset(context.Background(), "robot-1", uuid.New(), []string{plexPath, objectSpacePath})

		Expect(err).To(HaveOccurred())
		Expect(xferr.Is(err, xferr.ObjectStoreTransient)).To(BeTrue())
	})

	It("rejects an empty file list before any network call", func() {
		_, err := coordinator.New(logr.Discard(), meta, engine, reporter).
			UploadDataset(context.Background(), "robot-1", uuid.New(), nil)
		Expect(err).To(HaveOccurred())
		Expect(xferr.Is(err, xferr.InputInvalid)).To(BeTrue())
	})

	It("reports a protocol error when the object-space position never registered", func() {
		meta.EXPECT().CreateDataset(gomock.Any(), "robot-1", gomock.Any()).
			Return(&metadata.Dataset{DatasetID: datasetID}, nil)
		engine.EXPECT().UploadFile(gomock.Any(), plexPath, gomock.Any(), gomock.Any()).
			Return("https://bucket.s3.us-west-1.amazonaws.com/plex", "v-plex", nil)
		meta.EXPECT().RegisterFile(gomock.Any(), datasetID, gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(&metadata.UploadedFile{FileID: plexFileID}, nil)

		coord := coordinator.New(logr.Discard(), meta, engine, reporter)
		_, err := coord.UploadDataset(context.Background(), "robot-1", uuid.New(), []string{plexPath})

		Expect(err).To(HaveOccurred())
		Expect(xferr.Is(err, xferr.Protocol)).To(BeTrue())
	})
})

var _ = Describe("Coordinator.DownloadDataset", func() {
	var (
		ctrl      *gomock.Controller
		meta      *mockcoordinator.MockMetadataClient
		engine    *mockcoordinator.MockTransferEngine
		reporter  *mockcoordinator.MockProgressReporter
		tmpDir    string
		datasetID uuid.UUID
	)

	BeforeEach(func() {
		ctrl = gomock.NewController(GinkgoT())
		meta = mockcoordinator.NewMockMetadataClient(ctrl)
		engine = mockcoordinator.NewMockTransferEngine(ctrl)
		reporter = mockcoordinator.NewMockProgressReporter(ctrl)
		reporter.EXPECT().NewBar(gomock.Any(), gomock.Any()).Return(noopSink{}).AnyTimes()

		var err error
		tmpDir, err = os.MkdirTemp("", "coordinator-download-test-*")
		Expect(err).NotTo(HaveOccurred())

		datasetID = uuid.New()
	})

	AfterEach(func() {
		ctrl.Finish()
		os.RemoveAll(tmpDir)
	})

	It("lands the first file completely and surfaces the second file's 403 (S3)", func() {
		meta.EXPECT().ListFiles(gomock.Any(), datasetID, gomock.Any()).Return([]metadata.UploadedFile{
			{Key: "https://bucket.s3.us-west-1.amazonaws.com/a.bin", FileSize: 5},
			{Key: "https://bucket.s3.us-west-1.amazonaws.com/b.bin", FileSize: 5},
		}, nil)

		engine.EXPECT().DownloadFile(gomock.Any(), "https://bucket.s3.us-west-1.amazonaws.com/a.bin", gomock.Any(), gomock.Any()).
			Return(nil)
		engine.EXPECT().DownloadFile(gomock.Any(), "https://bucket.s3.us-west-1.amazonaws.com/b.bin", gomock.Any(), gomock.Any()).
			Return(xferr.New(xferr.ObjectStoreRejected, "403 Forbidden"))

		coord := coordinator.New(logr.Discard(), meta, engine, reporter)
		err := coord.DownloadDataset(context.Background(), datasetID, nil, tmpDir)

		Expect(err).To(HaveOccurred())
		Expect(xferr.Is(err, xferr.ObjectStoreRejected)).To(BeTrue())
	})

	It("returns nil without calling the engine when the dataset has no files", func() {
		meta.EXPECT().ListFiles(gomock.Any(), datasetID, gomock.Any()).Return(nil, nil)

		coord := coordinator.New(logr.Discard(), meta, engine, reporter)
		err := coord.DownloadDataset(context.Background(), datasetID, nil, tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	It("skips an existing file when the overwrite policy declines", func() {
		meta.EXPECT().ListFiles(gomock.Any(), datasetID, gomock.Any()).Return([]metadata.UploadedFile{
			{Key: "existing.bin", FileSize: 5},
		}, nil)
		Expect(os.WriteFile(filepath.Join(tmpDir, "existing.bin"), []byte("hello"), 0o600)).To(Succeed())

		decline := func(string) (bool, error) { return false, nil }
		coord := coordinator.New(logr.Discard(), meta, engine, reporter, coordinator.WithOverwritePolicy(decline))
		err := coord.DownloadDataset(context.Background(), datasetID, nil, tmpDir)

		// engine.DownloadFile has no expectation set; a call would fail the
		// test via gomock's strict controller.
		Expect(err).NotTo(HaveOccurred())
	})
})
