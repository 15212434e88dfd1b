package tasks

import (
	"text2phenotype.com/corpora/redis"
)

const IngestsDB redis.DB = 2

type TaskStatus string

const (
	TaskStatusSubmitted        TaskStatus = "submitted"
	TaskStatusStarted          TaskStatus = "started"
	TaskStatusFailed           TaskStatus = "failed"
	TaskStatusCompletedSuccess TaskStatus = "completed - success"
	TaskStatusCompletedFailure TaskStatus = "completed - failure"
	TaskStatusCanceled         TaskStatus = "canceled"
)

func (s TaskStatus) Complete() bool {
	return s == TaskStatusCompletedSuccess || s == TaskStatusCompletedFailure || s == TaskStatusCanceled
}

func (s TaskStatus) Submitted() bool {
	return s == TaskStatusSubmitted || s == TaskStatusStarted
}

// IngestTask asks for one dataset to be ingested. Other services own the remaining fields of the
// stored document; updates only touch the fields declared here.
type IngestTask struct {
	Dataset      string             `json:"dataset"`
	JobID        string             `json:"job_id"`
	TaskStatuses IngestTaskStatuses `json:"task_statuses"`
}

type IngestTaskStatuses struct {
	Ingest IngestTaskInfo `json:"ingest"`
}

type IngestTaskInfo struct {
	DocumentsFileKey string     `json:"documents_file_key"`
	ResultsFileKey   string     `json:"results_file_key"`
	StartedAt        *string    `json:"started_at"`
	CompletedAt      *string    `json:"completed_at"`
	Attempts         int        `json:"attempts"`
	Status           TaskStatus `json:"status"`
	ErrorMessages    []string   `json:"error_messages"`
}

type IngestTasks struct {
	client redis.Client
}

func (tasks IngestTasks) Get(redisKey string) (*IngestTask, error) {
	var task IngestTask
	err := tasks.client.GetDocument(redisKey, &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (tasks IngestTasks) Update(redisKey string, updateFunc func(task *IngestTask)) error {
	var task IngestTask
	return tasks.client.UpdateDocument(redisKey, &task, func() { updateFunc(&task) })
}

// Submit stores a new task for dataset.
func (tasks IngestTasks) Submit(redisKey, dataset, jobID string) error {
	task := IngestTask{
		Dataset: dataset,
		JobID:   jobID,
		TaskStatuses: IngestTaskStatuses{
			Ingest: IngestTaskInfo{Status: TaskStatusSubmitted},
		},
	}
	return tasks.client.SaveDoc(redisKey, &task)
}
