package s3client

import (
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/sts"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"text2phenotype.com/corpora/logger"
)

type EnvironmentConfig struct {
	BucketName  string `envconfig:"CORPORA_S3_BUCKET" required:"true"`
	Env         string `envconfig:"CORPORA_ENV" default:"prod"`
	Region      string `envconfig:"CORPORA_AWS_REGION_NAME" required:"true"`
	AwsEndpoint string `envconfig:"CORPORA_AWS_ENDPOINT_URL" default:""`
	AccessKeyID string `envconfig:"CORPORA_AWS_ACCESS_ID" default:""`
	AccessKey   string `envconfig:"CORPORA_AWS_ACCESS_KEY" default:""`
}

type Client struct {
	mu   sync.Mutex
	sess *session.Session
	env  EnvironmentConfig
}

var clientLogger = logger.NewLogger("S3Client")
var sdkLogger = logger.NewLogger("S3-SDK")

func New() (*Client, error) {
	env, err := readEnvironment()
	if err != nil {
		clientLogger.Err(err).Msg("Failed to get proper variables from environment")
		return nil, err
	}
	client := &Client{env: env}
	if err := client.acquireNewSession(); err != nil {
		return nil, err
	}
	return client, nil
}

// Upload stores body under key in the configured bucket. A failed upload is retried once
// with a fresh session.
func (client *Client) Upload(body io.ReadSeeker, key string) (*s3manager.UploadOutput, error) {
	params := &s3manager.UploadInput{
		Bucket: aws.String(client.env.BucketName),
		Key:    aws.String(key),
		Body:   body,
	}
	output, err := client.upload(client.session(), params)
	if err == nil {
		return output, nil
	}
	clientLogger.Error().Err(err).Str("key", key).Msg("Upload failed, refreshing session")
	if err := client.acquireNewSession(); err != nil {
		return nil, err
	}
	if _, err := body.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return client.upload(client.session(), params)
}

func (client *Client) Bucket() string {
	return client.env.BucketName
}

func (client *Client) Close() {
	client.mu.Lock()
	client.sess = nil
	client.mu.Unlock()
	clientLogger.Info().Msg("Closing client")
}

func (client *Client) session() *session.Session {
	client.mu.Lock()
	defer client.mu.Unlock()
	return client.sess
}

func (client *Client) upload(sess *session.Session, params *s3manager.UploadInput) (*s3manager.UploadOutput, error) {
	if sess == nil {
		return nil, fmt.Errorf("no S3 session for %s", *params.Key)
	}
	sdkLog := sdkLogger.With().
		Str("key", *params.Key).
		Str("bucket", *params.Bucket).Logger()

	uploader := s3manager.NewUploader(sess.Copy(&aws.Config{Logger: getLogger(sdkLog)}))
	clientLogger.Debug().Str("key", *params.Key).Str("bucket", *params.Bucket).Msg("Uploading the file")
	return uploader.Upload(params)
}

func (client *Client) createEC2Config() *aws.Config {
	return &aws.Config{
		Region:     aws.String(client.env.Region),
		MaxRetries: aws.Int(4),
		LogLevel:   aws.LogLevel(aws.LogDebug),
	}
}

func (client *Client) createEnvConfig() (*aws.Config, error) {
	creds := credentials.NewStaticCredentials(client.env.AccessKeyID, client.env.AccessKey, "")
	if _, err := creds.Get(); err != nil {
		return nil, fmt.Errorf("credentials from environment: %w", err)
	}
	cfg := aws.NewConfig().
		WithRegion(client.env.Region).
		WithMaxRetries(4).
		WithCredentials(creds).
		WithLogLevel(aws.LogDebug)

	if client.env.Env == "dev" && len(client.env.AwsEndpoint) > 0 {
		cfg = cfg.WithEndpoint(client.env.AwsEndpoint).WithS3ForcePathStyle(true)
	}
	return cfg, nil
}

func (client *Client) setSession(sess *session.Session) {
	client.mu.Lock()
	client.sess = sess
	client.mu.Unlock()
}

func (client *Client) acquireNewSession() error {
	sess, err := session.NewSession(client.createEC2Config())
	if err == nil {
		if _, err = sts.New(sess).GetCallerIdentity(&sts.GetCallerIdentityInput{}); err == nil {
			client.setSession(sess)
			clientLogger.Info().Msg("S3 session successfully initialized using EC2")
			return nil
		}
	}
	clientLogger.Info().Msg("Could not initialize S3 session using EC2, trying env credentials")
	cfg, err := client.createEnvConfig()
	if err != nil {
		client.setSession(nil)
		return err
	}
	sess, err = session.NewSession(cfg)
	if err != nil {
		client.setSession(nil)
		clientLogger.Error().Err(err).Msg("Could not initialize S3 session")
		return err
	}
	if _, err = sts.New(sess).GetCallerIdentity(&sts.GetCallerIdentityInput{}); err != nil {
		client.setSession(nil)
		clientLogger.Error().Err(err).Msg("Could not initialize S3 session")
		return fmt.Errorf("could not initialize S3 session: %w", err)
	}
	client.setSession(sess)
	clientLogger.Info().Msg("S3 session successfully initialized using env credentials")
	return nil
}

func readEnvironment() (EnvironmentConfig, error) {
	var config EnvironmentConfig
	err := envconfig.Process("", &config)
	return config, err
}

type s3Logger struct {
	log zerolog.Logger
}

func getLogger(log zerolog.Logger) *s3Logger {
	return &s3Logger{log}
}

func (logger *s3Logger) Log(v ...interface{}) {
	logger.log.Debug().Msg(fmt.Sprint(v...))
}
