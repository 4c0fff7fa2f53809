package truth

import "fmt"

// 文档注释：核验置信度分级（有序封闭枚举）
// 背景：High > Medium > Low > Unverified；数值越大越可信，可直接比较。
// 约束：Float 返回各档中值；ConfidenceFromFloat 按 0.9/0.6/0.3 分桶，边界值归入高档。
type Confidence int

const (
	Unverified Confidence = iota
	Low
	Medium
	High
)

var confidenceNames = [...]string{"Unverified", "Low", "Medium", "High"}

func (c Confidence) String() string {
	if c < Unverified || c > High {
		return fmt.Sprintf("confidence(%d)", int(c))
	}
	return confidenceNames[c]
}

// Float 各档中值 0.95 / 0.75 / 0.45 / 0.15
func (c Confidence) Float() float64 {
	switch c {
	case High:
		return 0.95
	case Medium:
		return 0.75
	case Low:
		return 0.45
	}
	return 0.15
}

func ConfidenceFromFloat(v float64) Confidence {
	switch {
	case v >= 0.9:
		return High
	case v >= 0.6:
		return Medium
	case v >= 0.3:
		return Low
	}
	return Unverified
}

func (c Confidence) MarshalText() ([]byte, error) {
	if c < Unverified || c > High {
		return nil, fmt.Errorf("unknown confidence %d", int(c))
	}
	return []byte(confidenceNames[c]), nil
}

func (c *Confidence) UnmarshalText(b []byte) error {
	for i, n := range confidenceNames {
		if n == string(b) {
			*c = Confidence(i)
			return nil
		}
	}
	return fmt.Errorf("unknown confidence %q", string(b))
}
