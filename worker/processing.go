package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
	"text2phenotype.com/corpora/ingest"
	"text2phenotype.com/corpora/tasks"
	"text2phenotype.com/corpora/utils"
)

type Message struct {
	WorkType string `json:"work_type"`
	RedisKey string `json:"redis_key"`
	Sender   string `json:"sender"`
	Version  string `json:"version"`
}

type Task struct {
	delivery   *amqp.Delivery
	ingestTask *tasks.IngestTask
	message    *Message
	redisKey   string
	log        *zerolog.Logger
}

func (worker *Worker) processMessage(delivery *amqp.Delivery) {
	task, err := worker.createTask(delivery)
	rejectLogger := worker.log.With().Str("message_id", delivery.MessageId).Logger()
	if err != nil {
		worker.log.Err(err).
			Str("message_id", delivery.MessageId).
			Str("tid", string(delivery.Body)).
			Msg("Failed to create task for delivery")
		worker.rmq.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if err = worker.processTask(task); err != nil {
		worker.rmq.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if err = worker.rmq.notifyCompletion(task, *task.message); err != nil {
		task.log.Err(err).Msg("Got error while sending completion message")
		worker.rmq.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if err = worker.rmq.acknowledgeDelivery(delivery); err != nil {
		task.log.Err(err).Msg("Failed to acknowledge delivery")
	}
	task.log.Info().Msg("Finished processing RMQ message")
}

func (worker *Worker) createTask(delivery *amqp.Delivery) (*Task, error) {
	var message Message
	err := json.Unmarshal(delivery.Body, &message)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal message, got error %w", err)
	}
	ingestTask, err := worker.redis.getIngestTask(message.RedisKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query ingest task for message, got error %w", err)
	}
	taskLogger := worker.log.With().Str("tid", message.RedisKey).Str("dataset", ingestTask.Dataset).Logger()
	task := Task{
		delivery:   delivery,
		ingestTask: ingestTask,
		redisKey:   message.RedisKey,
		message:    &message,
		log:        &taskLogger,
	}
	return &task, nil
}

func (worker *Worker) processTask(task *Task) error {
	shouldPerform, err := worker.shouldPerformTask(task)
	if err != nil {
		task.log.Err(err).
			Msg("Got error while trying to decide whether to run task")
		return err
	}
	if !shouldPerform {
		return nil
	}
	if err = worker.redis.onTaskStarted(task); err != nil {
		task.log.Err(err).Msg("Failed to update task info")
		return fmt.Errorf("failed to update TaskInfo: %w", err)
	}
	if err = worker.runPipeline(task); err != nil {
		task.log.Err(err).Msg("Got error while running pipeline")
		if err = worker.redis.onTaskFailedWithError(task, err); err != nil {
			return err
		}
		return nil
	}
	task.log.Info().Msg("Saved results, marking task as complete")
	if err = worker.redis.onTaskComplete(task); err != nil {
		task.log.Err(err).Msg("Got error while trying to mark task as complete")
		return err
	}
	return nil
}

// runPipeline ingests the dataset and uploads its documents and result. A run that read every
// archive but failed the expected counts still uploads both files before reporting the error.
func (worker *Worker) runPipeline(task *Task) (err error) {
	defer utils.RecoverWithError(&err, task.log)
	task.log.Info().Msgf("Processing message from RMQ, attempt # %d", task.ingestTask.TaskStatuses.Ingest.Attempts)

	var documents bytes.Buffer
	result, runErr := worker.ppln(context.Background(), task.ingestTask.Dataset, ingest.NewJSONLinesSink(&documents))
	if result == nil {
		if runErr == nil {
			runErr = errors.New("pipeline returned no result")
		}
		return fmt.Errorf("ingest %s: %w", task.ingestTask.Dataset, runErr)
	}

	task.log.Info().Int("documents", result.Documents).Msg("Finished pipeline, saving results to s3")
	if err = worker.s3.saveDocuments(task, documents.Bytes()); err != nil {
		task.log.Err(err).Msg("Got error while trying to save documents")
		return err
	}
	b, err := json.Marshal(result)
	if err != nil {
		return err
	}
	if err = worker.s3.saveResult(task, b); err != nil {
		task.log.Err(err).Msg("Got error while trying to save results")
		return err
	}
	return runErr
}

func (worker *Worker) shouldPerformTask(task *Task) (bool, error) {
	taskInfo := task.ingestTask.TaskStatuses.Ingest
	taskLogger := task.log

	if taskInfo.Status.Complete() {
		taskLogger.Info().Msg("Task is already done. (might indicate issue acking message with RMQ). Sending completion.")
		return false, nil
	}
	taskJob, err := worker.redis.getJobTask(task)
	if err != nil {
		taskLogger.Err(err).Msg("Failed to query job task for ingest task")
		return false, err
	}
	if taskJob.UserCanceled {
		taskLogger.Info().Msg("Job was canceled, no need to perform this task. Sending completion.")
		err := worker.redis.onTaskCancelled(task)
		return false, err
	}
	if taskInfo.Attempts >= worker.config.TaskMaxRetries {
		taskLogger.Info().Msg("Ingest task has exceeded retries. Sending completion.")
		err = worker.redis.onTaskExceededRetries(task, worker.config.TaskMaxRetries)
		return false, err
	}
	return true, nil
}
