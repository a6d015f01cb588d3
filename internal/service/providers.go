package service

import (
	"sort"
	"strings"

	"github.com/user/cowatch/internal/model"
)

// providerGroups 同一平台的不同套餐，组内越靠前优先级越高
var providerGroups = [][]string{
	{"Netflix", "Netflix Standard with Ads", "Netflix basic with Ads", "Netflix Kids"},
	{"Amazon Prime Video", "Amazon Prime Video with Ads"},
	{"Disney Plus", "Disney+"},
	{"Max", "HBO Max", "Max Amazon Channel", "HBO Max Amazon Channel"},
	{"Hulu", "Hulu (No Ads)"},
	{"Paramount Plus", "Paramount+ with Showtime", "Paramount Plus Essential", "Paramount Plus Premium", "Paramount+ Amazon Channel", "Paramount+ Roku Premium Channel"},
	{"Peacock", "Peacock Premium", "Peacock Premium Plus"},
	{"Apple TV Plus", "Apple TV+", "Apple TV Plus Amazon Channel"},
	{"Crunchyroll", "Crunchyroll Amazon Channel"},
	{"Starz", "Starz Amazon Channel", "Starz Roku Premium Channel"},
	{"AMC+", "AMC Plus Apple TV Channel", "AMC+ Amazon Channel", "AMC+ Roku Premium Channel"},
}

// providerSuffixes 去重前剥离的套餐后缀
var providerSuffixes = []string{"with ads", "standard"}

type providerRef struct {
	group int
	rank  int
}

var providerIndex = buildProviderIndex()

func buildProviderIndex() map[string]providerRef {
	idx := make(map[string]providerRef)
	for g, variants := range providerGroups {
		for rank, name := range variants {
			idx[strings.ToLower(name)] = providerRef{group: g, rank: rank}
		}
	}
	// 归一化后的名称作为兜底匹配，优先级最低
	for g, variants := range providerGroups {
		for _, name := range variants {
			key := normalizeProviderName(name)
			if _, ok := idx[key]; !ok {
				idx[key] = providerRef{group: g, rank: len(variants)}
			}
		}
	}
	return idx
}

// normalizeProviderName 小写并反复剥离已知后缀
func normalizeProviderName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	for {
		trimmed := n
		for _, suffix := range providerSuffixes {
			if strings.HasSuffix(trimmed, " "+suffix) {
				trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, suffix))
			}
		}
		if trimmed == n {
			return n
		}
		n = trimmed
	}
}

func lookupProvider(name string) (providerRef, bool) {
	if ref, ok := providerIndex[strings.ToLower(strings.TrimSpace(name))]; ok {
		return ref, true
	}
	ref, ok := providerIndex[normalizeProviderName(name)]
	return ref, ok
}

// DedupeProviders 合并同一平台的不同套餐，结果按 DisplayPriority 排序
//
// 已知分组内只保留优先级最高的变体（同优先级先到者胜出）；
// 其余平台按剥离后缀后的名称大小写不敏感去重，保留首次出现的条目。
func DedupeProviders(in []model.WatchProvider) []model.WatchProvider {
	type slot struct {
		provider model.WatchProvider
		rank     int
	}
	var out []slot
	byGroup := make(map[int]int)
	byName := make(map[string]struct{})

	for _, p := range in {
		if ref, ok := lookupProvider(p.ProviderName); ok {
			if i, exists := byGroup[ref.group]; exists {
				if ref.rank < out[i].rank {
					out[i] = slot{provider: p, rank: ref.rank}
				}
				continue
			}
			byGroup[ref.group] = len(out)
			out = append(out, slot{provider: p, rank: ref.rank})
			continue
		}

		key := normalizeProviderName(p.ProviderName)
		if _, exists := byName[key]; exists {
			continue
		}
		byName[key] = struct{}{}
		out = append(out, slot{provider: p})
	}

	result := make([]model.WatchProvider, 0, len(out))
	for _, s := range out {
		result = append(result, s.provider)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].DisplayPriority < result[j].DisplayPriority
	})
	return result
}

// regionProviders 取指定地区的订阅制平台并去重
func regionProviders(raw *RawProviders, region string) []model.WatchProvider {
	if raw == nil {
		return nil
	}
	entry, ok := raw.Results[region]
	if !ok || len(entry.Flatrate) == 0 {
		return nil
	}
	providers := make([]model.WatchProvider, 0, len(entry.Flatrate))
	for _, p := range entry.Flatrate {
		providers = append(providers, model.WatchProvider{
			ProviderID:      p.ProviderID,
			ProviderName:    p.ProviderName,
			LogoPath:        nonEmpty(p.LogoPath),
			DisplayPriority: p.DisplayPriority,
		})
	}
	return DedupeProviders(providers)
}
