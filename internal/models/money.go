package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// moneyScale 奈拉金额保留的小数位
const moneyScale = 2

// Money 奈拉金额，读写时统一保留两位小数
type Money struct {
	decimal.Decimal
}

// NewMoneyFromDecimal 从 decimal 创建金额
func NewMoneyFromDecimal(amount decimal.Decimal) Money {
	return Money{Decimal: amount.Round(moneyScale)}
}

// NewMoneyFromInt 从整数（奈拉）创建金额
func NewMoneyFromInt(amount int64) Money {
	return Money{Decimal: decimal.NewFromInt(amount)}
}

// ZeroMoney 零金额
func ZeroMoney() Money {
	return Money{Decimal: decimal.Zero}
}

// SubFloorZero 扣减金额，结果不低于零
func (m Money) SubFloorZero(amount decimal.Decimal) Money {
	result := m.Decimal.Sub(amount)
	if result.IsNegative() {
		return ZeroMoney()
	}
	return NewMoneyFromDecimal(result)
}

// MarshalJSON 输出两位小数的字符串，避免前端浮点误差
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON 接受字符串或数字，数字按原文解析不经过 float64
func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	text := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &text); err != nil {
			return err
		}
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return fmt.Errorf("invalid money amount %q: %w", text, err)
	}
	m.Decimal = d.Round(moneyScale)
	return nil
}

// Value 写库
func (m Money) Value() (driver.Value, error) {
	return m.Decimal.Round(moneyScale).Value()
}

// Scan 读库
func (m *Money) Scan(value interface{}) error {
	if err := m.Decimal.Scan(value); err != nil {
		return err
	}
	m.Decimal = m.Decimal.Round(moneyScale)
	return nil
}

// String 两位小数格式
func (m Money) String() string {
	return m.Decimal.StringFixed(moneyScale)
}
