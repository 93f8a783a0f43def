package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner for Strata with the version
// tucked underneath.
func PrintBanner(version string) {
	p := termenv.ColorProfile()
	// Layered teal-to-violet scheme, one shade per stratum.
	s1 := termenv.String("  ____ _____ ____      _  _____  _    ").Foreground(p.Color("#2dd4bf"))
	s2 := termenv.String(" / ___|_   _|  _ \\    / \\|_   _|/ \\   ").Foreground(p.Color("#38bdf8"))
	s3 := termenv.String(" \\___ \\ | | | |_) |  / _ \\ | | / _ \\  ").Foreground(p.Color("#60a5fa"))
	s4 := termenv.String("  ___) || | |  _ <  / ___ \\| |/ ___ \\ ").Foreground(p.Color("#818cf8"))
	s5 := termenv.String(" |____/ |_| |_| \\_\\/_/   \\_\\_/_/   \\_\\").Foreground(p.Color("#a78bfa"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println(s5)
	if version != "" {
		fmt.Println(termenv.String("          v" + version).Faint())
	}
	fmt.Println()
}
