package model

import (
	"bytes"
	"encoding/json"
)

type dateOp uint8

const (
	dateUnchanged dateOp = iota
	dateClear
	dateSet
)

// DateUpdate 可空日期字段的三态更新：保持不变 / 清除 / 设置
//
// JSON 中字段缺省为保持不变，null 为清除，数字（毫秒时间戳）为设置。
type DateUpdate struct {
	op    dateOp
	value int64
}

// Unchanged 保持原值
func Unchanged() DateUpdate { return DateUpdate{} }

// ClearDate 清除原值
func ClearDate() DateUpdate { return DateUpdate{op: dateClear} }

// SetDate 设置为指定毫秒时间戳
func SetDate(ms int64) DateUpdate { return DateUpdate{op: dateSet, value: ms} }

func (d DateUpdate) IsUnchanged() bool { return d.op == dateUnchanged }
func (d DateUpdate) IsClear() bool     { return d.op == dateClear }

// Value 返回设置值，仅在 op 为设置时 ok 为 true
func (d DateUpdate) Value() (int64, bool) {
	return d.value, d.op == dateSet
}

// Apply 对当前值应用更新，返回新值
func (d DateUpdate) Apply(current *int64) *int64 {
	switch d.op {
	case dateClear:
		return nil
	case dateSet:
		v := d.value
		return &v
	default:
		return current
	}
}

// UnmarshalJSON 字段出现时才会被调用，因此 null 表示清除
func (d *DateUpdate) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*d = ClearDate()
		return nil
	}
	var ms int64
	if err := json.Unmarshal(data, &ms); err != nil {
		return err
	}
	*d = SetDate(ms)
	return nil
}

// MarshalJSON 便于日志与测试输出
func (d DateUpdate) MarshalJSON() ([]byte, error) {
	if d.op == dateSet {
		return json.Marshal(d.value)
	}
	return []byte("null"), nil
}
