package worker

import (
	"bytes"

	"text2phenotype.com/corpora/s3client"
)

type s3Transactions interface {
	saveDocuments(task *Task, documents []byte) error
	saveResult(task *Task, result []byte) error
	close()
}

type s3ClientWrapper struct {
	s3Client *s3client.Client
}

func (wrapper *s3ClientWrapper) close() {
	wrapper.s3Client.Close()
}

func (wrapper *s3ClientWrapper) saveDocuments(task *Task, documents []byte) error {
	_, err := wrapper.s3Client.Upload(bytes.NewReader(documents), getDocumentsFileKey(task))
	return err
}

func (wrapper *s3ClientWrapper) saveResult(task *Task, result []byte) error {
	_, err := wrapper.s3Client.Upload(bytes.NewReader(result), getResultsFileKey(task))
	return err
}
