package s3client

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestReadEnvironment(t *testing.T) {
	t.Setenv("CORPORA_S3_BUCKET", "corpora-results")
	t.Setenv("CORPORA_AWS_REGION_NAME", "us-east-1")

	env, err := readEnvironment()
	require.NoError(t, err)
	require.Equal(t, "corpora-results", env.BucketName)
	require.Equal(t, "prod", env.Env)
}

func TestCreateEnvConfigDevEndpoint(t *testing.T) {
	client := &Client{env: EnvironmentConfig{
		Region:      "us-east-1",
		Env:         "dev",
		AwsEndpoint: "http://localhost:4566",
		AccessKeyID: "id",
		AccessKey:   "key",
	}}
	cfg, err := client.createEnvConfig()
	require.NoError(t, err)
	require.Equal(t, "http://localhost:4566", *cfg.Endpoint)
	require.True(t, *cfg.S3ForcePathStyle)
}

func TestCreateEnvConfigWithoutCredentials(t *testing.T) {
	client := &Client{env: EnvironmentConfig{Region: "us-east-1"}}
	_, err := client.createEnvConfig()
	require.Error(t, err)
}

func TestSDKLogger(t *testing.T) {
	var buf bytes.Buffer
	getLogger(zerolog.New(&buf)).Log("DEBUG:", "request sent")
	require.Contains(t, buf.String(), "request sent")
}
