package worker

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
	"text2phenotype.com/corpora/ingest"
	"text2phenotype.com/corpora/tasks"
	"text2phenotype.com/corpora/types"
)

type failingMethod struct {
	fail bool
}

type withValue struct {
	fail          bool
	returnedValue interface{}
}

type pipelineMock struct {
	ppln   Pipeline
	config pipelineMockConfig
	calls  pipelineCall
}

type pipelineMockConfig struct {
	fail bool
	// partial returns a result together with the error, as a count mismatch does
	partial bool
	panics  bool
}

type pipelineCall struct {
	pipeline bool
}

type redisMock struct {
	config redisMockConfig
	calls  redisMockCalls
}

type redisMockConfig struct {
	getIngestTask         withValue
	getJobTask            withValue
	onTaskCancelled       failingMethod
	onTaskStarted         failingMethod
	onTaskExceededRetries failingMethod
	onTaskFailedWithError failingMethod
	onTaskComplete        failingMethod
}

type redisMockCalls struct {
	getIngestTask         bool
	getJobTask            bool
	onTaskCancelled       bool
	onTaskStarted         bool
	onTaskExceededRetries bool
	onTaskFailedWithError bool
	onTaskComplete        bool
}

type rmqMock struct {
	config rmqMockConfig
	calls  rmqMockCalls
}

type rmqMockConfig struct {
	notifyCompletion    failingMethod
	acknowledgeDelivery failingMethod
}

type rmqMockCalls struct {
	notifyCompletion    bool
	acknowledgeDelivery bool
	rejectDelivery      bool
}

type s3Mock struct {
	config s3MockConfig
	calls  s3MockCalls
	saved  map[string][]byte
}

type s3MockConfig struct {
	saveDocuments failingMethod
	saveResult    failingMethod
}

type s3MockCalls struct {
	saveDocuments bool
	saveResult    bool
}

func (mock *s3Mock) close() {}

func (mock *rmqMock) close() {}

func (mock *redisMock) close() {}

func getPipelineMock(config pipelineMockConfig) *pipelineMock {
	mock := pipelineMock{config: config}
	mock.ppln = func(ctx context.Context, dataset string, sink ingest.Sink) (*ingest.Result, error) {
		mock.calls.pipeline = true
		switch {
		case mock.config.panics:
			panic("archive reader exploded")
		case mock.config.fail:
			return nil, errors.New("mock: failed to open archive")
		}
		if err := sink.Write(types.Document{ID: "A.00001", Language: "en"}); err != nil {
			return nil, err
		}
		result := &ingest.Result{Dataset: dataset, Kind: types.MuchMoreKind, Documents: 1}
		if mock.config.partial {
			return result, errors.New("mock: plain: matched count 1, expected 6374")
		}
		return result, nil
	}
	return &mock
}

func (mock *redisMock) getIngestTask(redisKey string) (*tasks.IngestTask, error) {
	mock.calls.getIngestTask = true
	if mock.config.getIngestTask.fail {
		return nil, errors.New("failed to get ingest task")
	}
	switch mock.config.getIngestTask.returnedValue.(type) {
	case tasks.IngestTask:
		task := mock.config.getIngestTask.returnedValue.(tasks.IngestTask)
		return &task, nil
	default:
		return &tasks.IngestTask{Dataset: types.MuchMoreDataset}, nil
	}
}

func (mock *redisMock) getJobTask(task *Task) (*tasks.JobTask, error) {
	mock.calls.getJobTask = true
	if mock.config.getJobTask.fail {
		return nil, errors.New("failed to get job task")
	}
	switch mock.config.getJobTask.returnedValue.(type) {
	case tasks.JobTask:
		jobTask := mock.config.getJobTask.returnedValue.(tasks.JobTask)
		return &jobTask, nil
	default:
		return &tasks.JobTask{}, nil
	}
}

func (mock *redisMock) onTaskStarted(task *Task) error {
	mock.calls.onTaskStarted = true
	if mock.config.onTaskStarted.fail {
		return errors.New("failed to update ingest task on start")
	}
	return nil
}

func (mock *redisMock) onTaskCancelled(task *Task, errorMessages ...string) error {
	mock.calls.onTaskCancelled = true
	if mock.config.onTaskCancelled.fail {
		return errors.New("failed to update ingest task on cancel")
	}
	return nil
}

func (mock *redisMock) onTaskExceededRetries(task *Task, maxRetries int) error {
	mock.calls.onTaskExceededRetries = true
	if mock.config.onTaskExceededRetries.fail {
		return errors.New("failed to update ingest task on exceeded retries")
	}
	return nil
}

func (mock *redisMock) onTaskFailedWithError(task *Task, err error) error {
	mock.calls.onTaskFailedWithError = true
	if mock.config.onTaskFailedWithError.fail {
		return errors.New("failed to update ingest task on fail with error")
	}
	return nil
}

func (mock *redisMock) onTaskComplete(task *Task) error {
	mock.calls.onTaskComplete = true
	if mock.config.onTaskComplete.fail {
		return errors.New("failed to update ingest task on complete")
	}
	return nil
}

func (mock *rmqMock) rejectDelivery(delivery *amqp.Delivery, log *zerolog.Logger) {
	mock.calls.rejectDelivery = true
}

func (mock *rmqMock) getDeliveriesCh() <-chan amqp.Delivery {
	return nil
}

func (mock *rmqMock) getReqChanErrorsCh() <-chan *amqp.Error {
	return nil
}

func (mock *rmqMock) getRespChanErrorsCh() <-chan *amqp.Error {
	return nil
}

func (mock *rmqMock) notifyCompletion(task *Task, message Message) error {
	mock.calls.notifyCompletion = true
	if mock.config.notifyCompletion.fail {
		return errors.New("failed to send completion")
	}
	return nil
}

func (mock *rmqMock) acknowledgeDelivery(delivery *amqp.Delivery) error {
	mock.calls.acknowledgeDelivery = true
	if mock.config.acknowledgeDelivery.fail {
		return errors.New("failed to acknowledge delivery")
	}
	return nil
}

func (mock *s3Mock) save(key string, data []byte) {
	if mock.saved == nil {
		mock.saved = map[string][]byte{}
	}
	mock.saved[key] = append([]byte(nil), data...)
}

func (mock *s3Mock) saveDocuments(task *Task, documents []byte) error {
	mock.calls.saveDocuments = true
	if mock.config.saveDocuments.fail {
		return errors.New("failed to upload documents")
	}
	mock.save(getDocumentsFileKey(task), documents)
	return nil
}

func (mock *s3Mock) saveResult(task *Task, result []byte) error {
	mock.calls.saveResult = true
	if mock.config.saveResult.fail {
		return errors.New("failed to upload results")
	}
	mock.save(getResultsFileKey(task), result)
	return nil
}
