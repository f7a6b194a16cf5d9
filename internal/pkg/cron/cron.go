package cron

import (
	"context"
	"log"
	"time"

	"github.com/qs3c/medquiz_go_server/internal/pkg/queue"
	"github.com/qs3c/medquiz_go_server/internal/service"
)

type Service struct {
	quizService *service.QuizService
	subService  *service.SubscriptionService
	retryQueue  *queue.Queue // 可为 nil，此时不启动重试循环
	stopChan    chan struct{}
}

func NewService(
	quizService *service.QuizService,
	subService *service.SubscriptionService,
	retryQueue *queue.Queue,
) *Service {
	return &Service{
		quizService: quizService,
		subService:  subService,
		retryQueue:  retryQueue,
		stopChan:    make(chan struct{}),
	}
}

// Start 启动定时任务
func (s *Service) Start() {
	go s.runSessionSweep()
	go s.runDailyExpirySweep()
	if s.retryQueue != nil {
		go s.runResultRetry()
	}
	log.Println("Cron service started (session sweep + expiry sweep + result retry)")
}

// Stop 停止定时任务
func (s *Service) Stop() {
	close(s.stopChan)
	log.Println("Cron service stopped")
}

// runSessionSweep 定期交卷超时未完成的测验会话
func (s *Service) runSessionSweep() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			count := s.quizService.SweepExpired(context.Background(), time.Now())
			if count > 0 {
				log.Printf("Session sweep: auto-completed %d expired sessions", count)
			}
		}
	}
}

// runDailyExpirySweep 每日刷新订阅状态列。读取路径实时推导，
// 这里只是让展示数据跟上
func (s *Service) runDailyExpirySweep() {
	now := time.Now().UTC()
	nextMidnight := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	timer := time.NewTimer(nextMidnight.Sub(now))

	for {
		select {
		case <-s.stopChan:
			timer.Stop()
			return
		case <-timer.C:
			s.sweepExpiredSubscriptions()
			timer.Reset(24 * time.Hour)
		}
	}
}

func (s *Service) sweepExpiredSubscriptions() {
	log.Println("Starting subscription expiry sweep...")
	count, err := s.subService.SweepExpired(context.Background(), time.Now())
	if err != nil {
		log.Printf("Failed to sweep expired subscriptions: %v", err)
		return
	}
	log.Printf("Subscription expiry sweep completed, %d rows updated", count)
}

// runResultRetry 消费落库失败的测验结果重试队列
func (s *Service) runResultRetry() {
	for {
		select {
		case <-s.stopChan:
			return
		default:
		}

		msg, err := s.retryQueue.Pop(context.Background(), 5*time.Second)
		if err != nil {
			log.Printf("Result retry: failed to pop from queue: %v", err)
			time.Sleep(5 * time.Second)
			continue
		}
		if msg == nil {
			continue
		}

		if err := s.quizService.RetryPersist(msg); err != nil {
			log.Printf("Result retry: persist failed for user %d, re-queueing: %v", msg.UserID, err)
			// 放回队列，下一轮再试
			if err := s.retryQueue.Push(context.Background(), msg); err != nil {
				log.Printf("Result retry: re-queue failed, dropping result for user %d: %v", msg.UserID, err)
			}
			time.Sleep(10 * time.Second)
		}
	}
}
