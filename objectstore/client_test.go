package objectstore_test

import (
	"bytes"
	"context"
	"io"

	"github.com/go-logr/logr"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tangramvision/datasetxfer/objectstore"
)

var _ = Describe("Client", func() {
	var client *objectstore.Client

	BeforeEach(func() {
		client = objectstore.New(logr.Discard(), s3Client, bucketName)
	})

	It("round-trips a one-shot put_object/get_object", func() {
		ctx := context.Background()
		body := []byte("hello dataset core")

		version, err := client.PutObject(ctx, "u1/d1/hello.bin", body)
		Expect(err).NotTo(HaveOccurred())
		Expect(version).NotTo(BeEmpty())

		reader, size, err := client.GetObject(ctx, "u1/d1/hello.bin", 0)
		Expect(err).NotTo(HaveOccurred())
		defer reader.Close()
		Expect(size).To(Equal(int64(len(body))))

		got, err := io.ReadAll(reader)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(body))
	})

	It("round-trips a multipart upload across two parts (I3, I4)", func() {
		ctx := context.Background()
		part1 := bytes.Repeat([]byte("a"), 5*1024*1024)
		part2 := []byte("final part")

		uploadID, err := client.CreateMultipartUpload(ctx, "u1/d1/multipart.bin")
		Expect(err).NotTo(HaveOccurred())

		etag1, err := client.UploadPart(ctx, "u1/d1/multipart.bin", uploadID, 1, part1)
		Expect(err).NotTo(HaveOccurred())
		Expect(etag1).NotTo(BeEmpty())

		etag2, err := client.UploadPart(ctx, "u1/d1/multipart.bin", uploadID, 2, part2)
		Expect(err).NotTo(HaveOccurred())

		version, err := client.CompleteMultipartUpload(ctx, "u1/d1/multipart.bin", uploadID, []objectstore.CompletedPart{
			{PartNumber: 1, ETag: etag1, Size: int64(len(part1))},
			{PartNumber: 2, ETag: etag2, Size: int64(len(part2))},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(version).NotTo(BeEmpty())

		reader, size, err := client.GetObject(ctx, "u1/d1/multipart.bin", 0)
		Expect(err).NotTo(HaveOccurred())
		defer reader.Close()
		Expect(size).To(Equal(int64(len(part1) + len(part2))))

		got, err := io.ReadAll(reader)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal(append(part1, part2...)))
	})

	It("rejects an out-of-order part list before the wire call (P3)", func() {
		ctx := context.Background()
		_, err := client.CompleteMultipartUpload(ctx, "u1/d1/bad.bin", "unused-upload-id", []objectstore.CompletedPart{
			{PartNumber: 2, ETag: "b"},
			{PartNumber: 1, ETag: "a"},
		})
		Expect(err).To(HaveOccurred())
	})

	It("aborts a multipart upload cleanly", func() {
		ctx := context.Background()
		uploadID, err := client.CreateMultipartUpload(ctx, "u1/d1/abort-me.bin")
		Expect(err).NotTo(HaveOccurred())

		_, err = client.UploadPart(ctx, "u1/d1/abort-me.bin", uploadID, 1, []byte("partial"))
		Expect(err).NotTo(HaveOccurred())

		Expect(client.AbortMultipartUpload(ctx, "u1/d1/abort-me.bin", uploadID)).To(Succeed())
	})

	It("supports a ranged get for resuming a download mid-stream", func() {
		ctx := context.Background()
		body := []byte("0123456789")
		_, err := client.PutObject(ctx, "u1/d1/range.bin", body)
		Expect(err).NotTo(HaveOccurred())

		reader, _, err := client.GetObject(ctx, "u1/d1/range.bin", 5)
		Expect(err).NotTo(HaveOccurred())
		defer reader.Close()

		got, err := io.ReadAll(reader)
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(Equal([]byte("56789")))
	})
})
