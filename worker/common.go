package worker

import (
	"path"
	"time"
)

const (
	documentsFileName = "documents.jsonl"
	resultsFileName   = "result.json"
)

func resultsPrefix(task *Task) string {
	return path.Join("processed", "datasets", task.ingestTask.Dataset, task.redisKey)
}

func getDocumentsFileKey(task *Task) string {
	return path.Join(resultsPrefix(task), documentsFileName)
}

func getResultsFileKey(task *Task) string {
	return path.Join(resultsPrefix(task), resultsFileName)
}

const RFC3339Micro = "2006-01-02T15:04:05.000000-07:00"

func getFormattedNow() *string {
	now := time.Now().UTC().Format(RFC3339Micro)
	return &now
}
