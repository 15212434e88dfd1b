package tasks

import (
	"fmt"

	"text2phenotype.com/corpora/redis"
)

type Client struct {
	Ingests IngestTasks
	Jobs    JobTasks
}

// NewClient is a preferred way for working with TaskInfos
func NewClient() (Client, error) {
	jobsRedisClient, err := redis.NewClient(JobsDB)
	if err != nil {
		return Client{}, err
	}
	ingestsRedisClient, err := redis.NewClient(IngestsDB)
	if err != nil {
		_ = jobsRedisClient.Close()
		return Client{}, err
	}
	return Client{
		Jobs:    JobTasks{client: jobsRedisClient},
		Ingests: IngestTasks{client: ingestsRedisClient},
	}, nil
}

func (client *Client) Close() {
	_ = client.Ingests.client.Close()
	_ = client.Jobs.client.Close()
}

func cachedPropertiesKey(redisKey string) string {
	return fmt.Sprintf("%s-cached-properties", redisKey)
}
