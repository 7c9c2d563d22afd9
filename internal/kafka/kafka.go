// Package kafka provides processed-image events publishing, topic bootstrap and a kafka readiness-probing
package kafka

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

// InitKafkaTopics - creates topics in kafka, retrying until ctx is done
func InitKafkaTopics(ctx context.Context, brokerAddr string, delay time.Duration, topics ...string) error {
	client := &kafkago.Client{
		Addr:    kafkago.TCP(brokerAddr),
		Timeout: 10 * time.Second,
	}

	req := kafkago.CreateTopicsRequest{
		Topics: make([]kafkago.TopicConfig, 0, len(topics)),
	}
	for _, t := range topics {
		req.Topics = append(req.Topics, kafkago.TopicConfig{
			Topic:             t,
			NumPartitions:     1,
			ReplicationFactor: 1,
		})
	}

	for {
		resp, err := client.CreateTopics(ctx, &req)
		if err == nil && topicsCreated(resp) {
			log.Println("All topics created successfully!")
			return nil
		}
		if err != nil {
			log.Printf("Failed to run topics creation request: %v\nWait %v before next try...", err, delay)
		}

		if err := sleepCtx(ctx, delay); err != nil {
			return fmt.Errorf("topics creation canceled: %w", err)
		}
	}
}

func topicsCreated(resp *kafkago.CreateTopicsResponse) bool {
	ok := true
	for k, v := range resp.Errors {
		switch {
		case v == nil, errors.Is(v, kafkago.TopicAlreadyExists):
		default:
			log.Printf("Topic %q creation error: %v", k, v)
			ok = false
		}
	}
	return ok
}

// WaitKafkaReady - blocks until the broker accepts tcp-connections or ctx is done
func WaitKafkaReady(ctx context.Context, brokerAddr string, delay time.Duration) error {
	var dialer kafkago.Dialer
	for {
		conn, err := dialer.DialContext(ctx, "tcp", brokerAddr)
		if err == nil {
			if errConn := conn.Close(); errConn != nil {
				log.Println("Failed to close connection after testing Kafka readyness:", errConn)
			}
			log.Println("Kafka is ready!")
			return nil
		}

		log.Printf("Kafka not ready, retrying in %v...", delay)
		if err := sleepCtx(ctx, delay); err != nil {
			return fmt.Errorf("kafka %q is not ready: %w", brokerAddr, err)
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
