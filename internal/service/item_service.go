package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/user/cowatch/internal/access"
	"github.com/user/cowatch/internal/apperr"
	"github.com/user/cowatch/internal/model"
	"github.com/user/cowatch/internal/repository"
	"github.com/user/cowatch/internal/utils"
	"github.com/user/cowatch/internal/validation"
	"gorm.io/gorm"
)

// MediaResolver 目录 ID → 媒体记录 ID
type MediaResolver interface {
	GetOrCreateMedia(ctx context.Context, catalogID int, kind string) (int, error)
}

// ItemService 片单条目与观看进度
type ItemService struct {
	repos *repository.Repositories
	media MediaResolver
	now   func() time.Time
}

func NewItemService(repos *repository.Repositories, media MediaResolver) *ItemService {
	return &ItemService{repos: repos, media: media, now: time.Now}
}

// loadList 先确认片单存在，再做角色判断
func loadList(ctx context.Context, repos *repository.Repositories, listID int, subject string, edit bool) (*model.List, access.Role, error) {
	list, err := repos.List.FindByID(ctx, listID)
	if err != nil {
		return nil, access.RoleNone, err
	}
	if list == nil {
		return nil, access.RoleNone, apperr.NotFound("片单不存在")
	}
	role := access.RoleOf(list, subject)
	if edit && !access.CanEdit(role) {
		return nil, role, apperr.Unauthorized("没有编辑该片单的权限")
	}
	if !access.CanView(role) {
		return nil, role, apperr.Unauthorized("没有查看该片单的权限")
	}
	return list, role, nil
}

func (s *ItemService) loadItem(ctx context.Context, repos *repository.Repositories, itemID int, subject string) (*model.ListItem, error) {
	item, err := repos.ListItem.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperr.NotFound("条目不存在")
	}
	if item.Media == nil {
		return nil, apperr.NotFound("媒体不存在")
	}
	if _, _, err := loadList(ctx, repos, item.ListID, subject, true); err != nil {
		return nil, err
	}
	return item, nil
}

// mutate 在事务中读取条目、校验权限、应用修改并写回
// fn 返回需要写回的列；返回错误时不产生任何写入
func (s *ItemService) mutate(ctx context.Context, itemID int, subject string, fn func(item *model.ListItem) ([]string, error)) (*model.ListItem, error) {
	var result *model.ListItem
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		item, err := s.loadItem(ctx, tx, itemID, subject)
		if err != nil {
			return err
		}
		columns, err := fn(item)
		if err != nil {
			return err
		}
		if err := tx.ListItem.Update(ctx, item, columns...); err != nil {
			return err
		}
		if err := tx.List.Touch(ctx, item.ListID); err != nil {
			return err
		}
		result = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetItems 返回片单条目（含媒体），sortBy 为空时使用片单默认排序
func (s *ItemService) GetItems(ctx context.Context, listID int, subject, sortBy string) ([]*model.ListItem, error) {
	list, _, err := loadList(ctx, s.repos, listID, subject, false)
	if err != nil {
		return nil, err
	}
	if sortBy == "" {
		sortBy = list.DefaultSort
	}
	sortBy, err = validation.Sort(sortBy)
	if err != nil {
		return nil, err
	}

	items, err := s.repos.ListItem.ListByList(ctx, listID)
	if err != nil {
		return nil, err
	}
	SortItems(items, sortBy)
	return items, nil
}

// AddItem 将已存在的媒体记录加入片单，同一媒体重复加入返回 Conflict
func (s *ItemService) AddItem(ctx context.Context, listID int, subject string, mediaID int) (*model.ListItem, error) {
	var item *model.ListItem
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if _, _, err := loadList(ctx, tx, listID, subject, true); err != nil {
			return err
		}
		media, err := tx.Media.FindByID(ctx, mediaID)
		if err != nil {
			return err
		}
		if media == nil {
			return apperr.NotFound("媒体不存在")
		}
		exists, err := tx.ListItem.Exists(ctx, listID, mediaID)
		if err != nil {
			return err
		}
		if exists {
			return apperr.Conflict("该媒体已在片单中")
		}

		item = &model.ListItem{
			ListID:  listID,
			MediaID: mediaID,
			Status:  model.StatusToWatch,
			AddedBy: subject,
		}
		if err := tx.ListItem.Create(ctx, item); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperr.Conflict("该媒体已在片单中")
			}
			return err
		}
		item.Media = media
		return tx.List.Touch(ctx, listID)
	})
	if err != nil {
		return nil, err
	}
	utils.Logger.Info().Int("list_id", listID).Int("media_id", mediaID).Str("subject", subject).Msg("[ItemService] 添加条目")
	return item, nil
}

// AddCatalogItem 按目录 ID 加入片单，必要时先创建媒体记录
func (s *ItemService) AddCatalogItem(ctx context.Context, listID int, subject string, catalogID int, kind string) (*model.ListItem, error) {
	// 无权限时不触发外部目录请求
	if _, _, err := loadList(ctx, s.repos, listID, subject, true); err != nil {
		return nil, err
	}
	mediaID, err := s.media.GetOrCreateMedia(ctx, catalogID, kind)
	if err != nil {
		return nil, err
	}
	return s.AddItem(ctx, listID, subject, mediaID)
}

// DeleteItem 删除条目，媒体记录保留
func (s *ItemService) DeleteItem(ctx context.Context, itemID int, subject string) error {
	return s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		item, err := s.loadItem(ctx, tx, itemID, subject)
		if err != nil {
			return err
		}
		if err := tx.ListItem.Delete(ctx, item.ID); err != nil {
			return err
		}
		return tx.List.Touch(ctx, item.ListID)
	})
}

// SetStatus 设置条目状态
// 电影直接写入；剧集状态由季进度推导，只允许直接设为 dropped
func (s *ItemService) SetStatus(ctx context.Context, itemID int, subject, status string) (*model.ListItem, error) {
	return s.mutate(ctx, itemID, subject, func(item *model.ListItem) ([]string, error) {
		st, err := validation.Status(status)
		if err != nil {
			return nil, err
		}
		if item.Media.Kind == model.KindTV && st != model.StatusDropped {
			return nil, apperr.Validation("剧集状态由各季进度决定，只能直接设为 dropped")
		}
		item.Status = st
		stampDates(st, &item.StartedAt, &item.FinishedAt, s.now().UnixMilli())
		return []string{"status", "started_at", "finished_at"}, nil
	})
}

// SetSeasonStatus 设置某季状态并重新计算剧集整体状态
func (s *ItemService) SetSeasonStatus(ctx context.Context, itemID int, subject string, season int, status string) (*model.ListItem, error) {
	return s.mutate(ctx, itemID, subject, func(item *model.ListItem) ([]string, error) {
		if err := checkSeason(item, season); err != nil {
			return nil, err
		}
		st, err := validation.Status(status)
		if err != nil {
			return nil, err
		}

		nowMs := s.now().UnixMilli()
		item.SeasonProgress = ApplySeasonStatus(item.SeasonProgress, season, st, nowMs)
		item.Status = AggregateStatus(item.Media.SeasonNumbers(), item.SeasonProgress)
		stampDates(item.Status, &item.StartedAt, &item.FinishedAt, nowMs)
		return []string{"season_progress", "status", "started_at", "finished_at"}, nil
	})
}

// SetRating 评分，nil 表示清除
func (s *ItemService) SetRating(ctx context.Context, itemID int, subject string, rating *int) (*model.ListItem, error) {
	return s.mutate(ctx, itemID, subject, func(item *model.ListItem) ([]string, error) {
		r, err := validation.Rating(rating)
		if err != nil {
			return nil, err
		}
		item.Rating = r
		return []string{"rating"}, nil
	})
}

// SetNotes 备注，空字符串表示清除
func (s *ItemService) SetNotes(ctx context.Context, itemID int, subject, notes string) (*model.ListItem, error) {
	return s.mutate(ctx, itemID, subject, func(item *model.ListItem) ([]string, error) {
		n, err := validation.Notes(notes)
		if err != nil {
			return nil, err
		}
		item.Notes = n
		return []string{"notes"}, nil
	})
}

func (s *ItemService) SetPriority(ctx context.Context, itemID int, subject string, priority *string) (*model.ListItem, error) {
	return s.mutate(ctx, itemID, subject, func(item *model.ListItem) ([]string, error) {
		p, err := validation.Priority(priority)
		if err != nil {
			return nil, err
		}
		item.Priority = p
		return []string{"priority"}, nil
	})
}

func (s *ItemService) SetTags(ctx context.Context, itemID int, subject string, tags []string) (*model.ListItem, error) {
	return s.mutate(ctx, itemID, subject, func(item *model.ListItem) ([]string, error) {
		t, err := validation.Tags(tags)
		if err != nil {
			return nil, err
		}
		item.Tags = t
		return []string{"tags"}, nil
	})
}

// SetDates 开始/完成日期的三态更新
func (s *ItemService) SetDates(ctx context.Context, itemID int, subject string, started, finished model.DateUpdate) (*model.ListItem, error) {
	return s.mutate(ctx, itemID, subject, func(item *model.ListItem) ([]string, error) {
		newStarted := started.Apply(item.StartedAt)
		newFinished := finished.Apply(item.FinishedAt)
		if err := validation.Dates(newStarted, newFinished, s.now()); err != nil {
			return nil, err
		}
		item.StartedAt, item.FinishedAt = newStarted, newFinished
		return []string{"started_at", "finished_at"}, nil
	})
}

// SetSeasonRating 单季评分，不触发整体状态重算
func (s *ItemService) SetSeasonRating(ctx context.Context, itemID int, subject string, season int, rating *int) (*model.ListItem, error) {
	return s.mutate(ctx, itemID, subject, func(item *model.ListItem) ([]string, error) {
		if err := checkSeason(item, season); err != nil {
			return nil, err
		}
		r, err := validation.Rating(rating)
		if err != nil {
			return nil, err
		}
		seasonEntry(item, season).Rating = r
		return []string{"season_progress"}, nil
	})
}

func (s *ItemService) SetSeasonNotes(ctx context.Context, itemID int, subject string, season int, notes string) (*model.ListItem, error) {
	return s.mutate(ctx, itemID, subject, func(item *model.ListItem) ([]string, error) {
		if err := checkSeason(item, season); err != nil {
			return nil, err
		}
		n, err := validation.Notes(notes)
		if err != nil {
			return nil, err
		}
		seasonEntry(item, season).Notes = n
		return []string{"season_progress"}, nil
	})
}

func (s *ItemService) SetSeasonDates(ctx context.Context, itemID int, subject string, season int, started, finished model.DateUpdate) (*model.ListItem, error) {
	return s.mutate(ctx, itemID, subject, func(item *model.ListItem) ([]string, error) {
		if err := checkSeason(item, season); err != nil {
			return nil, err
		}
		var curStarted, curFinished *int64
		if cur := item.Season(season); cur != nil {
			curStarted, curFinished = cur.StartedAt, cur.FinishedAt
		}
		newStarted := started.Apply(curStarted)
		newFinished := finished.Apply(curFinished)
		if err := validation.Dates(newStarted, newFinished, s.now()); err != nil {
			return nil, err
		}
		entry := seasonEntry(item, season)
		entry.StartedAt, entry.FinishedAt = newStarted, newFinished
		return []string{"season_progress"}, nil
	})
}

// ExportListItems 导出片单条目的只读投影
func (s *ItemService) ExportListItems(ctx context.Context, listID int, subject string) (*model.ListExport, error) {
	list, _, err := loadList(ctx, s.repos, listID, subject, false)
	if err != nil {
		return nil, err
	}
	items, err := s.repos.ListItem.ListByList(ctx, listID)
	if err != nil {
		return nil, err
	}
	SortItems(items, list.DefaultSort)

	export := &model.ListExport{ListName: list.Name, Items: make([]model.ExportItem, 0, len(items))}
	for _, item := range items {
		row := model.ExportItem{
			Status:     item.Status,
			Rating:     item.Rating,
			Priority:   item.Priority,
			Tags:       item.Tags,
			Notes:      item.Notes,
			StartedAt:  item.StartedAt,
			FinishedAt: item.FinishedAt,
		}
		if m := item.Media; m != nil {
			row.Title = m.Title
			row.Kind = m.Kind
			row.ReleaseDate = m.ReleaseDate
			row.Genres = m.Genres
			row.SeasonCount = len(m.Seasons)
		}
		for _, p := range item.SeasonProgress {
			if p.Status == model.StatusWatched {
				row.SeasonsWatched++
			}
		}
		export.Items = append(export.Items, row)
	}
	return export, nil
}

// checkSeason 季操作仅适用于剧集，季号需在已知季内（媒体未列出季信息时只校验下界）
func checkSeason(item *model.ListItem, season int) error {
	if item.Media.Kind != model.KindTV {
		return apperr.Validation("电影没有分季进度")
	}
	if err := validation.SeasonNumber(season); err != nil {
		return err
	}
	if len(item.Media.Seasons) > 0 && !item.Media.HasSeason(season) {
		return apperr.Validation("该剧集没有第 %d 季", season)
	}
	return nil
}

// seasonEntry 返回某季进度，不存在时以 to_watch 插入
func seasonEntry(item *model.ListItem, season int) *model.SeasonProgress {
	if p := item.Season(season); p != nil {
		return p
	}
	item.SeasonProgress = append(item.SeasonProgress, model.SeasonProgress{
		SeasonNumber: season,
		Status:       model.StatusToWatch,
	})
	sort.Slice(item.SeasonProgress, func(i, j int) bool {
		return item.SeasonProgress[i].SeasonNumber < item.SeasonProgress[j].SeasonNumber
	})
	return item.Season(season)
}

var priorityRank = map[string]int{
	model.PriorityHigh:   3,
	model.PriorityMedium: 2,
	model.PriorityLow:    1,
}

// SortItems 按排序方式原地排序，缺失值排在最后，其余按加入时间倒序
func SortItems(items []*model.ListItem, sortBy string) {
	newer := func(a, b *model.ListItem) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	}
	title := func(i *model.ListItem) string {
		if i.Media == nil {
			return ""
		}
		return strings.ToLower(i.Media.Title)
	}
	release := func(i *model.ListItem) string {
		if i.Media == nil || i.Media.ReleaseDate == nil {
			return ""
		}
		return *i.Media.ReleaseDate
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		switch sortBy {
		case model.SortAddedAsc:
			return newer(b, a)
		case model.SortTitleAsc, model.SortTitleDesc:
			ta, tb := title(a), title(b)
			if ta != tb {
				return (ta < tb) == (sortBy == model.SortTitleAsc)
			}
		case model.SortReleaseAsc, model.SortReleaseDesc:
			ra, rb := release(a), release(b)
			if ra != rb {
				if ra == "" || rb == "" {
					return rb == ""
				}
				return (ra < rb) == (sortBy == model.SortReleaseAsc)
			}
		case model.SortRatingDesc:
			if (a.Rating == nil) != (b.Rating == nil) {
				return b.Rating == nil
			}
			if a.Rating != nil && *a.Rating != *b.Rating {
				return *a.Rating > *b.Rating
			}
		case model.SortPriorityDesc:
			pa, pb := 0, 0
			if a.Priority != nil {
				pa = priorityRank[*a.Priority]
			}
			if b.Priority != nil {
				pb = priorityRank[*b.Priority]
			}
			if pa != pb {
				return pa > pb
			}
		}
		return newer(a, b)
	})
}
