package common

import (
	"github.com/ternarybob/banner"
)

// PrintBanner displays the runner banner
func PrintBanner() {
	banner.PrintSimple("Conduit E2E", Version)
}
