package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Queue 落库失败的测验结果重试队列
type Queue struct {
	client    *redis.Client
	queueName string
}

// ResultMessage 待重试的测验结果
type ResultMessage struct {
	UserID          int64   `json:"user_id"`
	CategoryID      string  `json:"category_id"`
	SubjectIDs      string  `json:"subject_ids"`
	TotalQuestions  int     `json:"total_questions"`
	CorrectAnswers  int     `json:"correct_answers"`
	ScorePercentage float64 `json:"score_percentage"`
	TimeTakenSecs   int     `json:"time_taken_seconds"`
	CompletedAt     int64   `json:"completed_at"` // unix 秒
}

func NewQueue(client *redis.Client, queueName string) *Queue {
	return &Queue{
		client:    client,
		queueName: queueName,
	}
}

// Push 将结果加入重试队列
func (q *Queue) Push(ctx context.Context, msg *ResultMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	return q.client.LPush(ctx, q.queueName, data).Err()
}

// Pop 从队列取出一条（阻塞，超时返回 nil）
func (q *Queue) Pop(ctx context.Context, timeout time.Duration) (*ResultMessage, error) {
	result, err := q.client.BRPop(ctx, timeout, q.queueName).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // 超时，无任务
		}
		return nil, fmt.Errorf("failed to pop from queue: %w", err)
	}

	if len(result) < 2 {
		return nil, nil
	}

	var msg ResultMessage
	if err := json.Unmarshal([]byte(result[1]), &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}

	return &msg, nil
}

// Length 获取队列长度
func (q *Queue) Length(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.queueName).Result()
}
