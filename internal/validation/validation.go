// Package validation 在写入存储前清洗并约束所有用户输入的标量。
// 所有函数均为纯函数，失败时返回 apperr 校验错误。
package validation

import (
	"slices"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-playground/validator/v10"
	"github.com/user/cowatch/internal/apperr"
	"github.com/user/cowatch/internal/config"
	"github.com/user/cowatch/internal/model"
)

var validate = validator.New()

// Text 去除首尾空白与控制字符并校验长度
func Text(field, s string, max int, required bool) (string, error) {
	s = strings.TrimSpace(stripControl(s))
	if required && s == "" {
		return "", apperr.Validation("%s不能为空", field)
	}
	if utf8.RuneCountInString(s) > max {
		return "", apperr.Validation("%s长度不能超过 %d", field, max)
	}
	return s, nil
}

// stripControl 移除控制字符，保留换行与制表符
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// optional 空字符串视为清除
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ListName 片单名称
func ListName(s string) (string, error) {
	return Text("片单名称", s, config.MaxListNameLength, true)
}

// Description 片单描述，空值表示清除
func Description(s string) (*string, error) {
	s, err := Text("片单描述", s, config.MaxListDescriptionLength, false)
	if err != nil {
		return nil, err
	}
	return optional(s), nil
}

// StripHTML 去除 HTML 标签，仅保留文本
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	doc.Find("script,style").Remove()
	return doc.Text()
}

// Notes 备注：去 HTML、去空白，空值表示清除
func Notes(s string) (*string, error) {
	s, err := Text("备注", StripHTML(s), config.MaxNotesLength, false)
	if err != nil {
		return nil, err
	}
	return optional(s), nil
}

// Rating 评分为 1-10 的整数，nil 表示清除
func Rating(r *int) (*int, error) {
	if r == nil {
		return nil, nil
	}
	if *r < config.MinRating || *r > config.MaxRating {
		return nil, apperr.Validation("评分必须在 %d 到 %d 之间", config.MinRating, config.MaxRating)
	}
	v := *r
	return &v, nil
}

// Priority 优先级，nil 或空表示清除
func Priority(p *string) (*string, error) {
	if p == nil {
		return nil, nil
	}
	v := strings.ToLower(strings.TrimSpace(*p))
	switch v {
	case "":
		return nil, nil
	case model.PriorityLow, model.PriorityMedium, model.PriorityHigh:
		return &v, nil
	}
	return nil, apperr.Validation("无效的优先级: %s", *p)
}

// Tags 标签去空白、按大小写不敏感去重（保留首次出现），数量与长度受限
func Tags(tags []string) ([]string, error) {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, raw := range tags {
		tag, err := Text("标签", raw, config.MaxTagLength, false)
		if err != nil {
			return nil, err
		}
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	if len(out) > config.MaxTags {
		return nil, apperr.Validation("标签数量不能超过 %d", config.MaxTags)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

// Email 校验并小写化邮箱
func Email(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if err := validate.Var(s, "required,email,max=254"); err != nil {
		return "", apperr.Validation("邮箱格式不正确")
	}
	return s, nil
}

// EmailPrefix 邮箱前缀搜索词
func EmailPrefix(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", apperr.Validation("搜索词不能为空")
	}
	if len(s) > config.MaxEmailLength {
		return "", apperr.Validation("搜索词过长")
	}
	return s, nil
}

// Subject 身份提供方用户标识
func Subject(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > config.MaxSubjectLength {
		return "", apperr.Validation("无效的用户标识")
	}
	return s, nil
}

// DisplayName 显示名，空值视为未设置
func DisplayName(s *string) (*string, error) {
	if s == nil {
		return nil, nil
	}
	v, err := Text("显示名", *s, config.MaxDisplayNameLength, false)
	if err != nil {
		return nil, err
	}
	return optional(v), nil
}

// AvatarURL 头像地址需为 http(s) URL
func AvatarURL(s *string) (*string, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	v := strings.TrimSpace(*s)
	if err := validate.Var(v, "url,startswith=http,max=2048"); err != nil {
		return nil, apperr.Validation("头像地址不合法")
	}
	return &v, nil
}

// NormalizeQuery 搜索缓存键：小写并去首尾空白
func NormalizeQuery(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// SearchQuery 规范化并校验搜索词
func SearchQuery(s string) (string, error) {
	q := NormalizeQuery(stripControl(s))
	if q == "" {
		return "", apperr.Validation("搜索词不能为空")
	}
	if utf8.RuneCountInString(q) > config.MaxQueryLength {
		return "", apperr.Validation("搜索词长度不能超过 %d", config.MaxQueryLength)
	}
	return q, nil
}

// Status 观看状态
func Status(s string) (model.WatchStatus, error) {
	st := model.WatchStatus(strings.TrimSpace(s))
	if !st.Valid() {
		return "", apperr.Validation("无效的状态: %s", s)
	}
	return st, nil
}

// Kind 媒体类型
func Kind(s string) (string, error) {
	switch s {
	case model.KindMovie, model.KindTV:
		return s, nil
	}
	return "", apperr.Validation("无效的媒体类型: %s", s)
}

// Sort 排序方式，空值取默认
func Sort(s string) (string, error) {
	if s == "" {
		return model.SortAddedDesc, nil
	}
	if !slices.Contains(model.SortOptions, s) {
		return "", apperr.Validation("无效的排序方式: %s", s)
	}
	return s, nil
}

// MemberRole 成员角色仅允许 admin/viewer
func MemberRole(s string) (string, error) {
	switch s {
	case model.MemberRoleAdmin, model.MemberRoleViewer:
		return s, nil
	}
	return "", apperr.Validation("无效的成员角色: %s", s)
}

// CatalogID 目录 ID 必须为正
func CatalogID(id int) error {
	if id <= 0 {
		return apperr.Validation("无效的目录 ID")
	}
	return nil
}

// SeasonNumber 季号从 1 开始
func SeasonNumber(n int) error {
	if n < 1 {
		return apperr.Validation("无效的季号: %d", n)
	}
	return nil
}

// Dates 校验开始/完成日期：不早于 1900、不晚于当前（含容差）、完成不早于开始
func Dates(started, finished *int64, now time.Time) error {
	limit := now.Add(config.FutureDateSkew).UnixMilli()
	for _, d := range []*int64{started, finished} {
		if d == nil {
			continue
		}
		if *d < config.MinDateMillis {
			return apperr.Validation("日期过早")
		}
		if *d > limit {
			return apperr.Validation("日期不能晚于当前时间")
		}
	}
	if started != nil && finished != nil && *finished < *started {
		return apperr.Validation("完成日期不能早于开始日期")
	}
	return nil
}
