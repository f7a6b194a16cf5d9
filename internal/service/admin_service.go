package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/qs3c/medquiz_go_server/internal/model"
	"github.com/qs3c/medquiz_go_server/internal/model/dto"
	"github.com/qs3c/medquiz_go_server/internal/repository"
)

type AdminService struct {
	userRepo *repository.UserRepository
	subRepo  *repository.SubscriptionRepository
}

func NewAdminService(userRepo *repository.UserRepository, subRepo *repository.SubscriptionRepository) *AdminService {
	return &AdminService{
		userRepo: userRepo,
		subRepo:  subRepo,
	}
}

// ListUserSubscriptions 全量用户 × 最新订阅记录，状态按当前时刻实时推导。
// 无订阅记录的用户也出现在列表中，状态为 none
func (s *AdminService) ListUserSubscriptions(now time.Time) ([]dto.UserSubscriptionView, error) {
	users, err := s.userRepo.ListAll()
	if err != nil {
		return nil, err
	}
	subs, err := s.subRepo.ListAll()
	if err != nil {
		return nil, err
	}

	// ListAll 按 created_at 降序，每用户首次出现的即最新一条
	latest := make(map[int64]*model.Subscription, len(subs))
	for i := range subs {
		if _, ok := latest[subs[i].UserID]; !ok {
			latest[subs[i].UserID] = &subs[i]
		}
	}

	views := make([]dto.UserSubscriptionView, 0, len(users))
	for _, user := range users {
		view := dto.UserSubscriptionView{
			UserID:    user.ID,
			UserName:  user.DisplayName,
			Status:    model.SubStatusNone,
			CreatedAt: user.CreatedAt.Format(time.RFC3339),
			UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
		}
		if user.Email != nil {
			view.UserEmail = *user.Email
		}

		if sub, ok := latest[user.ID]; ok {
			status, _ := DeriveStatus(sub, now)
			view.Status = status
			view.IsTrial = sub.IsTrial
			view.Amount = sub.Amount
			view.UpdatedAt = sub.UpdatedAt.Format(time.RFC3339)
			if sub.SubscriptionStart != nil {
				view.SubscriptionStart = sub.SubscriptionStart.Format(time.RFC3339)
			}
			if sub.SubscriptionEnd != nil {
				view.SubscriptionEnd = sub.SubscriptionEnd.Format(time.RFC3339)
			}
			if sub.TrialEnd != nil {
				view.TrialEnd = sub.TrialEnd.Format(time.RFC3339)
			}
			if sub.PaymentReference != nil {
				view.PaymentReference = *sub.PaymentReference
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// Stats 对概览行做一次归约得到统计卡片数据
func (s *AdminService) Stats(views []dto.UserSubscriptionView) *dto.SubscriptionStats {
	stats := &dto.SubscriptionStats{
		TotalUsers: len(views),
	}
	for _, v := range views {
		switch v.Status {
		case model.SubStatusActive:
			stats.ActiveSubscriptions++
		case model.SubStatusTrial:
			stats.TrialUsers++
		case model.SubStatusExpired:
			stats.ExpiredSubscriptions++
		default:
			stats.NoSubscription++
		}
		if v.Amount != nil {
			stats.TotalRevenue += *v.Amount
		}
	}
	return stats
}

// Filter 按搜索词与状态筛选概览行。搜索词对用户 ID、姓名、邮箱做
// 大小写不敏感的子串匹配；状态为空或 all 时不过滤
func (s *AdminService) Filter(views []dto.UserSubscriptionView, search, status string) []dto.UserSubscriptionView {
	byStatus := status != "" && status != "all"
	search = strings.ToLower(strings.TrimSpace(search))
	if !byStatus && search == "" {
		return views
	}

	filtered := make([]dto.UserSubscriptionView, 0, len(views))
	for _, v := range views {
		if byStatus && v.Status != status {
			continue
		}
		if search != "" && !matchesSearch(&v, search) {
			continue
		}
		filtered = append(filtered, v)
	}
	return filtered
}

func matchesSearch(v *dto.UserSubscriptionView, search string) bool {
	if strconv.FormatInt(v.UserID, 10) == search {
		return true
	}
	if strings.Contains(strings.ToLower(v.UserName), search) {
		return true
	}
	return strings.Contains(strings.ToLower(v.UserEmail), search)
}
