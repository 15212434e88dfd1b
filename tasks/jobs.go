package tasks

import (
	"text2phenotype.com/corpora/redis"
)

const JobsDB redis.DB = 1

type JobTask struct {
	UserCanceled bool `json:"user_canceled"`
}

type JobTasks struct {
	client redis.Client
}

func (tasks JobTasks) GetCached(redisKey string) (*JobTask, error) {
	var task JobTask
	err := tasks.client.GetDocument(cachedPropertiesKey(redisKey), &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}
