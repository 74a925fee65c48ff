package notify

import (
	"context"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisTLSConfig controls TLS behaviour for Redis connections.
type RedisTLSConfig struct {
	CAFile             string
	CertFile           string
	KeyFile            string
	ServerName         string
	InsecureSkipVerify bool
}

// RedisQueueConfig configures the Redis-backed notification queue.
type RedisQueueConfig struct {
	Addr         string
	Addrs        []string
	Username     string
	Password     string
	Stream       string
	Group        string
	Logger       *slog.Logger
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BlockTimeout time.Duration
	Buffer       int
	PoolSize     int
	MasterName   string
	TLS          RedisTLSConfig
}

// NewRedisQueue initialises a queue backed by Redis Streams so notification
// tasks survive across gateway instances. The caller is responsible for
// ensuring the Redis instance is reachable.
func NewRedisQueue(cfg RedisQueueConfig) (Queue, error) {
	addrs := make([]string, 0, len(cfg.Addrs)+1)
	for _, addr := range cfg.Addrs {
		if trimmed := strings.TrimSpace(addr); trimmed != "" {
			addrs = append(addrs, trimmed)
		}
	}
	if addr := strings.TrimSpace(cfg.Addr); addr != "" {
		addrs = append(addrs, addr)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("redis addr is required")
	}
	stream := strings.TrimSpace(cfg.Stream)
	if stream == "" {
		stream = "reelgate:notifications"
	}
	group := strings.TrimSpace(cfg.Group)
	if group == "" {
		group = "notify-workers"
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = 128
	}
	tlsConfig, err := buildTLSConfig(cfg.TLS)
	if err != nil {
		return nil, err
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        addrs,
		MasterName:   strings.TrimSpace(cfg.MasterName),
		Username:     strings.TrimSpace(cfg.Username),
		Password:     cfg.Password,
		TLSConfig:    tlsConfig,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
		MaxRetries:   2,
	})
	queue := &redisQueue{
		client:       client,
		stream:       stream,
		group:        group,
		blockTimeout: cfg.BlockTimeout,
		logger:       cfg.Logger,
		buffer:       cfg.Buffer,
	}
	if queue.logger == nil {
		queue.logger = slog.Default()
	}
	if queue.blockTimeout <= 0 {
		queue.blockTimeout = 2 * time.Second
	}
	if err := queue.ensureGroup(context.Background()); err != nil {
		client.Close()
		return nil, err
	}
	return queue, nil
}

type redisQueue struct {
	client       redis.UniversalClient
	stream       string
	group        string
	blockTimeout time.Duration
	logger       *slog.Logger
	buffer       int

	groupMu    sync.Mutex
	groupReady atomic.Bool
}

func (q *redisQueue) Publish(ctx context.Context, task Task) error {
	if task.RecipientID == "" {
		return errors.New("task recipient is required")
	}
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("marshal task: %w", err)
	}
	if err := q.ensureGroup(ctx); err != nil {
		return err
	}
	return q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream,
		Values: map[string]interface{}{"payload": string(payload)},
	}).Err()
}

func (q *redisQueue) Subscribe() Subscription {
	ctx, cancel := context.WithCancel(context.Background())
	if err := q.ensureGroup(ctx); err != nil {
		if q.logger != nil {
			q.logger.Error("redis queue group setup failed", "error", err)
		}
	}
	sub := &redisSubscription{
		queue:    q,
		consumer: randomConsumerID(),
		cancel:   cancel,
		ch:       make(chan Task, q.buffer),
	}
	go sub.run(ctx)
	return sub
}

func (q *redisQueue) ensureGroup(ctx context.Context) error {
	if q.groupReady.Load() {
		return nil
	}
	q.groupMu.Lock()
	defer q.groupMu.Unlock()
	if q.groupReady.Load() {
		return nil
	}
	err := q.client.XGroupCreateMkStream(ctx, q.stream, q.group, "$").Err()
	if err != nil {
		if isBusyGroup(err) {
			q.groupReady.Store(true)
			return nil
		}
		return err
	}
	q.groupReady.Store(true)
	return nil
}

type redisSubscription struct {
	queue    *redisQueue
	consumer string
	cancel   context.CancelFunc

	once sync.Once
	ch   chan Task
}

func (s *redisSubscription) Tasks() <-chan Task {
	return s.ch
}

// Close stops the consumer loop. The loop's own goroutine closes the task
// channel once it has drained, so Close never races a pending send.
func (s *redisSubscription) Close() {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
}

func (s *redisSubscription) run(ctx context.Context) {
	defer close(s.ch)
	defer s.Close()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if err := s.queue.ensureGroup(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			if s.queue.logger != nil {
				s.queue.logger.Warn("redis queue group ensure failed", "error", err)
			}
			time.Sleep(200 * time.Millisecond)
			continue
		}
		messages, err := s.read(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			if s.queue.logger != nil {
				s.queue.logger.Warn("redis queue read failed", "error", err)
			}
			time.Sleep(200 * time.Millisecond)
			continue
		}
		for _, message := range messages {
			payload := extractPayload(message)
			if len(payload) == 0 {
				s.ack(ctx, message.ID)
				continue
			}
			var task Task
			if err := json.Unmarshal(payload, &task); err != nil {
				if s.queue.logger != nil {
					s.queue.logger.Error("redis queue decode failed", "error", err)
				}
				s.ack(ctx, message.ID)
				continue
			}
			select {
			case s.ch <- task:
				s.ack(ctx, message.ID)
			case <-ctx.Done():
				s.requeue(message.ID, payload)
				return
			}
		}
	}
}

func (s *redisSubscription) ack(ctx context.Context, id string) {
	if id == "" {
		return
	}
	if err := s.queue.client.XAck(ctx, s.queue.stream, s.queue.group, id).Err(); err != nil && s.queue.logger != nil {
		s.queue.logger.Warn("redis ack failed", "id", id, "error", err)
	}
}

func (s *redisSubscription) requeue(id string, payload []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	s.ack(ctx, id)
	if len(payload) == 0 {
		return
	}
	err := s.queue.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.queue.stream,
		Values: map[string]interface{}{"payload": string(payload)},
	}).Err()
	if err != nil && s.queue.logger != nil {
		s.queue.logger.Warn("redis requeue failed", "id", id, "error", err)
	}
}

func (s *redisSubscription) read(ctx context.Context) ([]redis.XMessage, error) {
	streams, err := s.queue.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    s.queue.group,
		Consumer: s.consumer,
		Streams:  []string{s.queue.stream, ">"},
		Count:    32,
		Block:    s.queue.blockTimeout,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var messages []redis.XMessage
	for _, stream := range streams {
		messages = append(messages, stream.Messages...)
	}
	return messages, nil
}

func extractPayload(message redis.XMessage) []byte {
	for key, value := range message.Values {
		if !strings.EqualFold(key, "payload") {
			continue
		}
		switch v := value.(type) {
		case string:
			return []byte(v)
		case []byte:
			return v
		}
	}
	return nil
}

func isBusyGroup(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "busygroup")
}

func randomConsumerID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("consumer-%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("consumer-%s", hex.EncodeToString(buf))
}

func buildTLSConfig(cfg RedisTLSConfig) (*tls.Config, error) {
	if cfg.CAFile == "" && cfg.CertFile == "" && cfg.KeyFile == "" && !cfg.InsecureSkipVerify {
		return nil, nil
	}
	tlsCfg := &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify}
	if cfg.ServerName != "" {
		tlsCfg.ServerName = cfg.ServerName
	}
	if cfg.CAFile != "" {
		caPath := filepath.Clean(cfg.CAFile)
		pemData, err := os.ReadFile(caPath)
		if err != nil {
			return nil, fmt.Errorf("read redis tls ca: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pemData) {
			return nil, fmt.Errorf("redis tls ca is invalid")
		}
		tlsCfg.RootCAs = pool
	}
	if cfg.CertFile != "" || cfg.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(filepath.Clean(cfg.CertFile), filepath.Clean(cfg.KeyFile))
		if err != nil {
			return nil, fmt.Errorf("load redis tls certificate: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{cert}
	}
	return tlsCfg, nil
}
