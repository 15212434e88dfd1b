package rmq

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
	"text2phenotype.com/corpora/logger"
)

type Config struct {
	Host                    string `envconfig:"CORPORA_RMQ_HOST" required:"true"`
	Port                    string `envconfig:"CORPORA_RMQ_PORT" required:"true"`
	Username                string `envconfig:"CORPORA_RMQ_USERNAME" required:"true"`
	Password                string `envconfig:"CORPORA_RMQ_PASSWORD" required:"true"`
	Exchange                string `envconfig:"CORPORA_RMQ_DEFAULT_EXCHANGE" default:"corpora-default-exchange"`
	MaxParallelRequestCount int    `envconfig:"CORPORA_MQ_MAX_PARALLEL_REQUESTS" default:"2"`
	IngestTaskQueue         string `envconfig:"CORPORA_INGEST_TASK_QUEUE" default:"corpora-ingest-tasks"`
	CompletionQueue         string `envconfig:"CORPORA_INGEST_COMPLETION_QUEUE" default:"corpora-ingest-completed"`
}

type Client struct {
	Deliveries     <-chan amqp.Delivery
	ReqChanErrors  <-chan *amqp.Error
	RespChanErrors <-chan *amqp.Error
	config         Config
	reqConn        *amqp.Connection
	respConn       *amqp.Connection
	respChannel    *amqp.Channel
	log            *zerolog.Logger
}

func ReadConfig() (Config, error) {
	var config Config
	err := envconfig.Process("", &config)
	return config, err
}

func NewClient() (*Client, error) {
	log := logger.NewLogger("RMQ client")
	config, err := ReadConfig()
	if err != nil {
		log.Error().Err(err).Msg("Could not read env config")
		return nil, err
	}

	url := getURL(config)
	respConn, respChannel, err := setup(url)
	if err != nil {
		return nil, fmt.Errorf("failed connection: %w", err)
	}
	reqConn, reqChannel, err := setup(url)
	if err != nil {
		_ = respConn.Close()
		return nil, fmt.Errorf("failed connection: %w", err)
	}

	q, err := reqChannel.QueueDeclare(
		config.IngestTaskQueue, // name
		true,                   // durable
		false,                  // delete when unused
		false,                  // exclusive
		false,                  // no-wait
		nil,                    // arguments
	)
	if err != nil {
		return nil, err
	}
	if err := reqChannel.QueueBind(
		config.IngestTaskQueue,
		config.IngestTaskQueue,
		config.Exchange,
		false,
		nil); err != nil {
		return nil, err
	}
	if err := reqChannel.Qos(config.MaxParallelRequestCount, 0, false); err != nil {
		return nil, fmt.Errorf("qos: %w", err)
	}

	deliveries, err := reqChannel.Consume(
		q.Name,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("consume deliveries: %w", err)
	}
	reqChanErrors := reqChannel.NotifyClose(make(chan *amqp.Error))
	respChanErrors := respChannel.NotifyClose(make(chan *amqp.Error))

	return &Client{
		Deliveries:     deliveries,
		ReqChanErrors:  reqChanErrors,
		RespChanErrors: respChanErrors,
		config:         config,
		reqConn:        reqConn,
		respConn:       respConn,
		respChannel:    respChannel,
		log:            &log,
	}, nil
}

// SendCompletion publishes a finished-task notice.
func (c *Client) SendCompletion(msg amqp.Publishing) error {
	return c.respChannel.Publish(
		c.config.Exchange,
		c.config.CompletionQueue,
		false,
		false,
		msg)
}

// Submit publishes an ingestion request on the task queue this client consumes.
func (c *Client) Submit(msg amqp.Publishing) error {
	return c.respChannel.Publish(
		c.config.Exchange,
		c.config.IngestTaskQueue,
		false,
		false,
		msg)
}

func (c *Client) Close() {
	_ = c.reqConn.Close()
	_ = c.respConn.Close()
}

func getURL(config Config) string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s", config.Username, config.Password, config.Host, config.Port)
}

func setup(url string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return conn, ch, nil
}
