package utils

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

var weiPerEther = new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))

// TruncateString shortens str to num terminal cells, ending in "..." when
// there is room.
func TruncateString(str string, num int) string {
	if runewidth.StringWidth(str) <= num {
		return str
	}
	if num <= 3 {
		return runewidth.Truncate(str, num, "")
	}
	return runewidth.Truncate(str, num, "...")
}

func AddCommas(s string) string {
	if len(s) == 0 {
		return s
	}
	parts := strings.Split(s, ".")
	integerPart := parts[0]
	sign := ""
	if strings.HasPrefix(integerPart, "-") {
		sign = "-"
		integerPart = integerPart[1:]
	}

	n := len(integerPart)
	if n <= 3 {
		return s
	}

	var result strings.Builder
	result.WriteString(sign)
	remainder := n % 3
	if remainder > 0 {
		result.WriteString(integerPart[:remainder])
		result.WriteString(",")
	}
	for i := remainder; i < n; i += 3 {
		if i > remainder {
			result.WriteString(",")
		}
		result.WriteString(integerPart[i : i+3])
	}

	if len(parts) > 1 {
		result.WriteString(".")
		result.WriteString(parts[1])
	}
	return result.String()
}

func FormatFloat(f float64, decimals int) string {
	return AddCommas(fmt.Sprintf("%.*f", decimals, f))
}

// FormatCompact renders USD-style magnitudes as 12.34K, 5.60M, 1.20B, ...
func FormatCompact(num float64) string {
	switch {
	case num < 0.01:
		return "< 0.01"
	case num < 1e3:
		return fmt.Sprintf("%.2f", num)
	case num < 1e6:
		return fmt.Sprintf("%.2fK", num/1e3)
	case num < 1e9:
		return fmt.Sprintf("%.2fM", num/1e6)
	case num < 1e12:
		return fmt.Sprintf("%.2fB", num/1e9)
	default:
		return fmt.Sprintf("%.2fT", num/1e12)
	}
}

// FormatAge renders a duration as the largest whole unit: 3d, 5h, 12m.
func FormatAge(d time.Duration) string {
	switch {
	case d <= 0:
		return "-"
	case d >= 24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	case d >= time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
}

// ShortAddress turns 0xd8dA6BF2...6045 style addresses into 0xd8dA...6045.
func ShortAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}

// FormatWei converts a wei amount to ether with the given precision.
func FormatWei(wei *big.Int, decimals int) string {
	if wei == nil {
		return "0"
	}
	f := new(big.Float).Quo(new(big.Float).SetInt(wei), weiPerEther)
	return AddCommas(f.Text('f', decimals))
}
