package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Duration 可从 JSON 字符串解析的 time.Duration
//
// 接受 "10s"、"1m30s" 这样的字符串，也接受纳秒整数：
//
//	{"shutdown_timeout": "10s"}
//	{"shutdown_timeout": 10000000000}
type Duration time.Duration

// UnmarshalJSON 实现 json.Unmarshaler 接口
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration string %q: %w", s, err)
		}
		*d = Duration(v)
		return nil
	}

	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("duration must be a string (e.g., \"10s\") or number (nanoseconds)")
	}
	*d = Duration(n)
	return nil
}

// MarshalJSON 输出字符串形式
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// Duration 返回底层的 time.Duration 值
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// String 返回字符串表示
func (d Duration) String() string {
	return time.Duration(d).String()
}
