package service

import (
	"context"
	"sync"
	"time"

	"github.com/user/cowatch/internal/repository"
	"github.com/user/cowatch/internal/utils"
)

// CleanupService 定时清理过期搜索缓存
type CleanupService struct {
	repos    *repository.Repositories
	interval time.Duration
	now      func() time.Time

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewCleanupService 创建清理服务
func NewCleanupService(repos *repository.Repositories, interval time.Duration) *CleanupService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &CleanupService{
		repos:    repos,
		interval: interval,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
}

// Start 启动定时清理任务（启动时先运行一次）
func (s *CleanupService) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.RunOnce(context.Background())
		for {
			select {
			case <-ticker.C:
				s.RunOnce(context.Background())
			case <-s.stop:
				return
			}
		}
	}()
}

// Stop 停止定时任务并等待当前一轮结束
func (s *CleanupService) Stop() {
	close(s.stop)
	s.wg.Wait()
}

// RunOnce 删除已过期的缓存行，返回删除条数
func (s *CleanupService) RunOnce(ctx context.Context) int64 {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	affected, err := s.repos.SearchCache.CleanExpired(ctx, s.now())
	if err != nil {
		utils.Logger.Warn().Err(err).Msg("[CleanupService] 清理过期搜索缓存失败")
		return 0
	}
	if affected > 0 {
		utils.Logger.Info().Int64("count", affected).Msg("[CleanupService] 已清理过期搜索缓存")
	}
	return affected
}
