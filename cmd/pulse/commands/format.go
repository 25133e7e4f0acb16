package commands

import "fmt"

const rule = "───────────────────────────────────────────────────────────"

// printHeader prints a formatted section header so every command uses
// the same output shape.
func printHeader(title string) {
	fmt.Println()
	fmt.Println(rule)
	fmt.Printf("  %s\n", title)
	fmt.Println(rule)
}

// printFooter closes a section.
func printFooter() {
	fmt.Println(rule)
}
