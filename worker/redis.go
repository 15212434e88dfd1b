package worker

import (
	"fmt"

	"text2phenotype.com/corpora/tasks"
)

type redisTransactions interface {
	getIngestTask(redisKey string) (*tasks.IngestTask, error)
	getJobTask(task *Task) (*tasks.JobTask, error)
	onTaskStarted(task *Task) error
	onTaskCancelled(task *Task, errorMessages ...string) error
	onTaskExceededRetries(task *Task, maxRetries int) error
	onTaskFailedWithError(task *Task, err error) error
	onTaskComplete(task *Task) error
	close()
}

type redisClientWrapper struct {
	tasksClient *tasks.Client
}

func (wrapper *redisClientWrapper) close() {
	wrapper.tasksClient.Close()
}

func (wrapper *redisClientWrapper) onTaskStarted(task *Task) error {
	return wrapper.tasksClient.Ingests.Update(task.redisKey, func(ingestTask *tasks.IngestTask) {
		info := &ingestTask.TaskStatuses.Ingest
		info.Status = tasks.TaskStatusStarted
		info.Attempts += 1
		info.StartedAt = getFormattedNow()
		info.CompletedAt = nil
	})
}

func (wrapper *redisClientWrapper) onTaskCancelled(task *Task, errorMessages ...string) error {
	return wrapper.tasksClient.Ingests.Update(task.redisKey, func(ingestTask *tasks.IngestTask) {
		info := &ingestTask.TaskStatuses.Ingest
		info.Status = tasks.TaskStatusCanceled
		info.StartedAt = getFormattedNow()
		info.CompletedAt = getFormattedNow()
		info.Attempts += 1
		info.ErrorMessages = append(info.ErrorMessages, errorMessages...)
	})
}

func (wrapper *redisClientWrapper) onTaskExceededRetries(task *Task, maxRetries int) error {
	return wrapper.tasksClient.Ingests.Update(task.redisKey, func(ingestTask *tasks.IngestTask) {
		info := &ingestTask.TaskStatuses.Ingest
		info.Status = tasks.TaskStatusCompletedFailure
		info.StartedAt = getFormattedNow()
		info.CompletedAt = getFormattedNow()
		info.Attempts += 1
		info.ErrorMessages = append(
			info.ErrorMessages,
			fmt.Sprintf("Task has exceeded retries. (Attempts: %d, max retries: %d )", info.Attempts, maxRetries),
		)
	})
}

func (wrapper *redisClientWrapper) onTaskFailedWithError(task *Task, err error) error {
	return wrapper.tasksClient.Ingests.Update(task.redisKey, func(ingestTask *tasks.IngestTask) {
		info := &ingestTask.TaskStatuses.Ingest
		info.Status = tasks.TaskStatusFailed
		info.CompletedAt = getFormattedNow()
		info.ErrorMessages = append(info.ErrorMessages, err.Error())
	})
}

func (wrapper *redisClientWrapper) onTaskComplete(task *Task) error {
	return wrapper.tasksClient.Ingests.Update(task.redisKey, func(ingestTask *tasks.IngestTask) {
		info := &ingestTask.TaskStatuses.Ingest
		if !info.Status.Complete() {
			info.Status = tasks.TaskStatusCompletedSuccess
		}
		info.CompletedAt = getFormattedNow()
		info.DocumentsFileKey = getDocumentsFileKey(task)
		info.ResultsFileKey = getResultsFileKey(task)
	})
}

func (wrapper *redisClientWrapper) getIngestTask(redisKey string) (*tasks.IngestTask, error) {
	return wrapper.tasksClient.Ingests.Get(redisKey)
}

func (wrapper *redisClientWrapper) getJobTask(task *Task) (*tasks.JobTask, error) {
	return wrapper.tasksClient.Jobs.GetCached(task.ingestTask.JobID)
}
