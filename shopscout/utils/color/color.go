// shopscout/utils/color/color.go
package color

import (
	"github.com/fatih/color"
)

var (
	pageColor    = color.New(color.FgCyan, color.Bold)
	infoColor    = color.New(color.FgGreen)
	warningColor = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	productColor = color.New(color.FgHiYellow, color.Bold)
	summaryColor = color.New(color.FgGreen, color.Bold)
	mutedColor   = color.New(color.FgHiBlack)
)

func ColorPage(s string) string {
	return pageColor.Sprint(s)
}

func ColorInfo(s string) string {
	return infoColor.Sprint(s)
}

func ColorWarning(s string) string {
	return warningColor.Sprint(s)
}

func ColorError(s string) string {
	return errorColor.Sprint(s)
}

func ColorProduct(s string) string {
	return productColor.Sprint(s)
}

func ColorSummary(s string) string {
	return summaryColor.Sprint(s)
}

func ColorMuted(s string) string {
	return mutedColor.Sprint(s)
}

// Disable turns colouring off, e.g. when output is not a terminal.
func Disable() {
	color.NoColor = true
}
